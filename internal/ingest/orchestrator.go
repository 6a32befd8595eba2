package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/nuralia/clinic-crm/internal/store"
)

// Progress is one coarse-grained progress report: per file, per tier,
// per insert batch. Purely observational; the caller's UI cannot steer
// the run through it.
type Progress struct {
	Step       string `json:"step"`
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

// ProgressFunc receives progress reports during a run.
type ProgressFunc func(Progress)

// Options tunes a Processor.
type Options struct {
	// BatchSize is the number of rows submitted per insert call.
	BatchSize int

	// BatchDelay is the pause between insert chunks. This is deliberate
	// backpressure against the store's rate limits, not an incidental
	// sleep; set it to zero only for in-process test stores.
	BatchDelay time.Duration

	// PageSize caps rows per identifier-resolution read.
	PageSize int

	// RunID preassigns the run identifier so callers can track the run
	// before Run returns. Empty means a fresh UUID per run.
	RunID string

	Progress ProgressFunc
	Log      *RunLog
}

// Input is one uploaded source file.
type Input struct {
	Kind   FileKind
	Name   string
	Reader io.Reader
}

// Result is the single summary object the caller receives. Granular
// rejection counts live in the run log, not here: the summary feeds
// dashboards, the log feeds investigation.
type Result struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Stats    map[string]int `json:"stats"`
	Metadata *UploadRun     `json:"metadata,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
}

// Stats keys reported per entity.
const (
	StatCustomers      = "customersInserted"
	StatVisitFrequency = "visitFrequenciesInserted"
	StatTransactions   = "transactionsInserted"
	StatPayments       = "paymentsInserted"
	StatItems          = "itemsInserted"
	StatServiceSales   = "serviceSalesInserted"
)

// Processor runs the full-refresh load pipeline. It is not re-entrant:
// exactly one run may be active against a given set of target tables.
type Processor struct {
	st   store.Store
	opts Options
	log  *RunLog
}

// NewProcessor creates a Processor with defaults filled in.
func NewProcessor(st store.Store, opts Options) *Processor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.Log == nil {
		opts.Log = NewRunLog(nil)
	}
	return &Processor{st: st, opts: opts, log: opts.Log}
}

// Log returns the run log instance so callers can export the audit trail.
func (p *Processor) Log() *RunLog { return p.log }

// stepStatus is the explicit outcome variant of one stage.
type stepStatus int

const (
	stepOK stepStatus = iota
	// stepSoft is logged and the run continues.
	stepSoft
	// stepHard aborts the run.
	stepHard
)

type stepResult struct {
	status stepStatus
	err    error
}

func ok() stepResult            { return stepResult{status: stepOK} }
func soft(err error) stepResult { return stepResult{status: stepSoft, err: err} }
func hard(err error) stepResult { return stepResult{status: stepHard, err: err} }

// stage is one named step of the run. The run is this ordered slice and
// nothing else: dependency order is data, not inlined control flow.
type stage struct {
	name string
	run  func(ctx context.Context, rs *runState) stepResult
}

// runState carries intermediate products between stages of one run.
type runState struct {
	rows           map[FileKind][]RawRow
	fileNames      []string
	customers      []Customer
	customerIDs    IdentifierMap
	transactions   []Transaction
	transactionIDs IdentifierMap
	stats          map[string]int
	errors         []string
	run            UploadRun
}

// Run executes one full-refresh pass over the provided inputs. Inputs may
// omit files; an absent file contributes zero rows to its tier. The run
// executes to completion or to its first hard failure; there is no
// user-triggered abort path.
func (p *Processor) Run(ctx context.Context, inputs []Input) (*Result, error) {
	rs := &runState{
		rows:  make(map[FileKind][]RawRow),
		stats: make(map[string]int),
	}
	runID := p.opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	rs.run = UploadRun{ID: runID, UploadDate: time.Now()}

	byKind := make(map[FileKind]Input, len(inputs))
	for _, in := range inputs {
		byKind[in.Kind] = in
		rs.fileNames = append(rs.fileNames, in.Name)
	}
	rs.run.FileNames = rs.fileNames

	p.log.Infof("upload run %s started (%d files)", rs.run.ID, len(inputs))

	stages := p.stages(byKind)
	for i, st := range stages {
		p.report(st.name, i+1, len(stages), "")

		res := st.run(ctx, rs)
		switch res.status {
		case stepSoft:
			p.log.Warnf("%s: %v (continuing)", st.name, res.err)
			rs.errors = append(rs.errors, res.err.Error())
		case stepHard:
			p.log.Errorf("%s: %v (run aborted)", st.name, res.err)
			rs.errors = append(rs.errors, res.err.Error())
			return &Result{
				Success: false,
				Message: fmt.Sprintf("%s failed: %v", st.name, res.err),
				Stats:   rs.stats,
				Errors:  rs.errors,
			}, res.err
		}
	}

	rs.run.Stats = rs.stats
	rs.run.Errors = rs.errors
	p.log.Infof("upload run %s complete", rs.run.ID)

	return &Result{
		Success:  true,
		Message:  "upload complete",
		Stats:    rs.stats,
		Metadata: &rs.run,
		Errors:   rs.errors,
	}, nil
}

// stages builds the ordered stage list for one run. The order encodes the
// referential tiers: customers before anything referencing them,
// transactions before their three sibling dependents.
func (p *Processor) stages(inputs map[FileKind]Input) []stage {
	return []stage{
		{"extract", func(ctx context.Context, rs *runState) stepResult {
			return p.extractAll(inputs, rs)
		}},
		{"clean_customers", func(ctx context.Context, rs *runState) stepResult {
			var rejects RejectStats
			rs.customers, rejects = CleanCustomers(rs.rows[FileCustomers])
			p.logRejects("customers", len(rs.customers), rejects)
			return ok()
		}},
		{"refresh_tables", p.deleteAllTables},
		{"insert_customers", func(ctx context.Context, rs *runState) stepResult {
			rows := make([]store.Row, len(rs.customers))
			for i, c := range rs.customers {
				rows[i] = c.row()
			}
			return p.batchInsert(ctx, TableCustomers, rows, rs, StatCustomers)
		}},
		{"resolve_customers", func(ctx context.Context, rs *runState) stepResult {
			ids, err := ResolveIdentifiers(ctx, p.st, TableCustomers, "membership_no", p.opts.PageSize)
			if err != nil {
				if store.IsMissingTable(err) {
					rs.customerIDs = IdentifierMap{}
					return ok()
				}
				return hard(err)
			}
			rs.customerIDs = ids
			p.log.Infof("resolved %d customer identifiers", len(ids))
			return ok()
		}},
		{"visit_frequency", func(ctx context.Context, rs *runState) stepResult {
			records, rejects := CleanVisitFrequencies(rs.rows[FileVisitFrequency], rs.customerIDs)
			p.logRejects("visit frequencies", len(records), rejects)
			rows := make([]store.Row, len(records))
			for i, v := range records {
				rows[i] = v.row()
			}
			return p.batchInsert(ctx, TableVisitFrequency, rows, rs, StatVisitFrequency)
		}},
		{"clean_transactions", func(ctx context.Context, rs *runState) stepResult {
			var rejects RejectStats
			rs.transactions, rejects = CleanTransactions(rs.rows[FileSalesDetail], rs.customerIDs)
			p.logRejects("transactions", len(rs.transactions), rejects)
			return ok()
		}},
		{"insert_transactions", func(ctx context.Context, rs *runState) stepResult {
			rows := make([]store.Row, len(rs.transactions))
			for i, t := range rs.transactions {
				rows[i] = t.row()
			}
			return p.batchInsert(ctx, TableTransactions, rows, rs, StatTransactions)
		}},
		{"resolve_transactions", func(ctx context.Context, rs *runState) stepResult {
			ids, err := ResolveIdentifiers(ctx, p.st, TableTransactions, "so_number", p.opts.PageSize)
			if err != nil {
				if store.IsMissingTable(err) {
					rs.transactionIDs = IdentifierMap{}
					return ok()
				}
				return hard(err)
			}
			rs.transactionIDs = ids
			p.log.Infof("resolved %d transaction identifiers", len(ids))
			return ok()
		}},
		{"payments", func(ctx context.Context, rs *runState) stepResult {
			records, rejects := CleanPayments(rs.rows[FilePayments], rs.transactionIDs)
			p.logRejects("payments", len(records), rejects)
			rows := make([]store.Row, len(records))
			for i, r := range records {
				rows[i] = r.row()
			}
			return p.batchInsert(ctx, TablePayments, rows, rs, StatPayments)
		}},
		{"sale_items", func(ctx context.Context, rs *runState) stepResult {
			records, rejects := CleanItems(rs.rows[FileItemSales], rs.transactionIDs)
			p.logRejects("sale items", len(records), rejects)
			rows := make([]store.Row, len(records))
			for i, r := range records {
				rows[i] = r.row()
			}
			return p.batchInsert(ctx, TableSaleItems, rows, rs, StatItems)
		}},
		{"service_sales", func(ctx context.Context, rs *runState) stepResult {
			records, rejects := CleanServiceSales(rs.rows[FileServiceSales], rs.transactionIDs, rs.customerIDs)
			p.logRejects("service sales", len(records), rejects)
			rows := make([]store.Row, len(records))
			for i, r := range records {
				rows[i] = r.row()
			}
			return p.batchInsert(ctx, TableServiceSales, rows, rs, StatServiceSales)
		}},
		{"persist_metadata", func(ctx context.Context, rs *runState) stepResult {
			rs.run.Stats = rs.stats
			rs.run.Errors = rs.errors
			if err := persistRunMetadata(ctx, p.st, rs.run); err != nil {
				return soft(err)
			}
			p.log.Infof("run metadata persisted")
			return ok()
		}},
	}
}

// extractAll decodes every provided file. A malformed document is a hard
// failure: partial extraction would load an inconsistent dataset.
func (p *Processor) extractAll(inputs map[FileKind]Input, rs *runState) stepResult {
	for _, kind := range FileOrder {
		in, present := inputs[kind]
		if !present {
			continue
		}
		spec := FileSpecs[kind]
		rows, err := Extract(in.Reader, in.Name, spec.Header)
		if err != nil {
			return hard(fmt.Errorf("extract %s: %w", spec.Label, err))
		}
		rs.rows[kind] = rows
		p.log.Infof("extracted %d rows from %s (%s)", len(rows), in.Name, spec.Label)
	}
	return ok()
}

// deleteAllTables clears the six target tables in reverse-dependency
// order so the run's inserts see an empty dataset. A missing table is
// zero-affected; any other store error aborts the run.
func (p *Processor) deleteAllTables(ctx context.Context, rs *runState) stepResult {
	for i := len(loadOrder) - 1; i >= 0; i-- {
		table := loadOrder[i]
		deleted, err := p.st.DeleteAll(ctx, table)
		if err != nil {
			if store.IsMissingTable(err) {
				p.log.Warnf("table %s does not exist, skipping delete", table)
				continue
			}
			return hard(fmt.Errorf("clear %s: %w", table, err))
		}
		p.log.Infof("cleared %s (%d rows)", table, deleted)
	}
	return ok()
}

// batchInsert writes rows in fixed-size chunks with a delay between
// chunks. Missing destination table downgrades to zero-affected; any
// other store error is a hard failure with no partial retry.
func (p *Processor) batchInsert(ctx context.Context, table string, rows []store.Row, rs *runState, statKey string) stepResult {
	rs.stats[statKey] = 0
	if len(rows) == 0 {
		p.log.Infof("no rows to insert into %s", table)
		return ok()
	}

	total := (len(rows) + p.opts.BatchSize - 1) / p.opts.BatchSize
	for chunk := 0; chunk*p.opts.BatchSize < len(rows); chunk++ {
		start := chunk * p.opts.BatchSize
		end := start + p.opts.BatchSize
		if end > len(rows) {
			end = len(rows)
		}

		inserted, err := p.st.Insert(ctx, table, rows[start:end])
		if err != nil {
			if store.IsMissingTable(err) {
				p.log.Warnf("table %s does not exist, skipping insert", table)
				return ok()
			}
			return hard(fmt.Errorf("insert into %s: %w", table, err))
		}
		rs.stats[statKey] += inserted

		p.report(table, chunk+1, total, fmt.Sprintf("inserted %d/%d rows", end, len(rows)))

		if p.opts.BatchDelay > 0 && end < len(rows) {
			time.Sleep(p.opts.BatchDelay)
		}
	}

	p.log.Infof("inserted %d rows into %s", rs.stats[statKey], table)
	return ok()
}

// logRejects records a cleaner's output and rejection tallies in the run
// log. The summary object never carries these counts; the log is the
// investigation surface.
func (p *Processor) logRejects(entity string, kept int, rejects RejectStats) {
	p.log.Infof("cleaned %d %s", kept, entity)
	for reason, count := range rejects {
		p.log.Warnf("rejected %d %s rows: %s", count, entity, reason)
	}
}

func (p *Processor) report(step string, current, total int, message string) {
	if p.opts.Progress == nil {
		return
	}
	pct := 0
	if total > 0 {
		pct = current * 100 / total
	}
	p.opts.Progress(Progress{Step: step, Current: current, Total: total, Percentage: pct, Message: message})
}
