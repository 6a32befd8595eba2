package ingest

import "github.com/nuralia/clinic-crm/internal/store"

// Destination tables, in forward dependency order. Deletes run in the
// reverse of this order so foreign keys never dangle mid-run.
const (
	TableCustomers      = "customers"
	TableVisitFrequency = "visit_frequencies"
	TableTransactions   = "transactions"
	TablePayments       = "payments"
	TableSaleItems      = "sale_items"
	TableServiceSales   = "service_sales"
	TableUploadRuns     = "upload_runs"
)

// loadOrder lists the six target tables in insert order.
var loadOrder = []string{
	TableCustomers, TableVisitFrequency, TableTransactions,
	TablePayments, TableSaleItems, TableServiceSales,
}

// Rejection reasons tallied by the cleaners. Reasons are counted, never
// thrown: a rejected row is dropped and the run proceeds.
const (
	RejectMissingKey      = "missing_natural_key"
	RejectDuplicateKey    = "duplicate_natural_key"
	RejectUnresolvedRef   = "unresolved_reference"
	RejectMissingRequired = "missing_required_field"
)

// RejectStats counts dropped rows by reason for one cleaner pass.
type RejectStats map[string]int

func (s RejectStats) add(reason string) { s[reason]++ }

// Total returns the number of rows dropped across all reasons.
func (s RejectStats) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// IdentifierMap maps a natural key (membership number, order number) to
// the store-generated surrogate key. Built once per run after the owning
// tier is persisted; read-only afterwards.
type IdentifierMap map[string]string

// Customer is the normalized customer-info record. Aggregate fields start
// at zero and are populated by the visit-frequency tier, never here.
type Customer struct {
	MembershipNo string
	Name         string
	Gender       string
	Phone        string
	Email        string
	BirthDate    string // YYYY-MM-DD or empty
	Address      string
	Occupation   string
	MedicalNotes string
	JoinDate     string
	TotalVisits  int
	TotalSpend   float64
	LastVisit    string
}

func (c Customer) row() store.Row {
	return store.Row{
		"membership_no": c.MembershipNo,
		"name":          c.Name,
		"gender":        nullable(c.Gender),
		"phone":         nullable(c.Phone),
		"email":         nullable(c.Email),
		"birth_date":    nullable(c.BirthDate),
		"address":       nullable(c.Address),
		"occupation":    nullable(c.Occupation),
		"medical_notes": nullable(c.MedicalNotes),
		"join_date":     nullable(c.JoinDate),
		"total_visits":  c.TotalVisits,
		"total_spend":   c.TotalSpend,
		"last_visit":    nullable(c.LastVisit),
	}
}

// Transaction is the normalized sales-detail record.
type Transaction struct {
	SONumber           string
	CustomerID         string
	Date               string
	TotalAmount        float64
	DiscountAmount     float64
	TaxAmount          float64
	NetAmount          float64
	OutstandingAmount  float64
	OutstandingPercent float64
	Cancelled          bool
}

func (t Transaction) row() store.Row {
	return store.Row{
		"so_number":           t.SONumber,
		"customer_id":         t.CustomerID,
		"transaction_date":    nullable(t.Date),
		"total_amount":        t.TotalAmount,
		"discount_amount":     t.DiscountAmount,
		"tax_amount":          t.TaxAmount,
		"net_amount":          t.NetAmount,
		"outstanding_amount":  t.OutstandingAmount,
		"outstanding_percent": t.OutstandingPercent,
		"cancelled":           t.Cancelled,
	}
}

// Payment is one payment row against a transaction.
type Payment struct {
	TransactionID string
	Method        string
	Amount        float64
	Date          string
	ReferenceNo   string
}

func (p Payment) row() store.Row {
	return store.Row{
		"transaction_id": p.TransactionID,
		"method":         nullable(p.Method),
		"amount":         p.Amount,
		"payment_date":   nullable(p.Date),
		"reference_no":   nullable(p.ReferenceNo),
	}
}

// SaleItem is one product line against a transaction.
type SaleItem struct {
	TransactionID string
	ItemName      string
	Category      string
	Quantity      int
	UnitPrice     float64
	TotalPrice    float64
}

func (i SaleItem) row() store.Row {
	return store.Row{
		"transaction_id": i.TransactionID,
		"item_name":      i.ItemName,
		"category":       nullable(i.Category),
		"quantity":       i.Quantity,
		"unit_price":     i.UnitPrice,
		"total_price":    i.TotalPrice,
	}
}

// ServiceSale is one treatment line; unlike items it also carries the
// resolved customer so per-customer service history needs no join chain.
type ServiceSale struct {
	TransactionID   string
	CustomerID      string
	ServiceName     string
	StaffName       string
	DurationMinutes float64
	HasDuration     bool
	Quantity        int
	Amount          float64
	Date            string
}

func (s ServiceSale) row() store.Row {
	var duration any
	if s.HasDuration {
		duration = s.DurationMinutes
	}
	return store.Row{
		"transaction_id":   s.TransactionID,
		"customer_id":      s.CustomerID,
		"service_name":     s.ServiceName,
		"staff_name":       nullable(s.StaffName),
		"duration_minutes": duration,
		"quantity":         s.Quantity,
		"amount":           s.Amount,
		"sale_date":        nullable(s.Date),
	}
}

// VisitFrequency carries the monthly visit counters and the derived
// segmentation flags for one customer.
type VisitFrequency struct {
	CustomerID  string
	Monthly     [12]int
	TotalVisits int
	TotalSpend  float64
	LastVisit   string
	Active      bool
	AtRisk      bool
	Dormant     bool
	VIP         bool
}

func (v VisitFrequency) row() store.Row {
	row := store.Row{
		"customer_id":  v.CustomerID,
		"total_visits": v.TotalVisits,
		"total_spend":  v.TotalSpend,
		"last_visit":   nullable(v.LastVisit),
		"is_active":    v.Active,
		"is_at_risk":   v.AtRisk,
		"is_dormant":   v.Dormant,
		"is_vip":       v.VIP,
	}
	for i, col := range monthColumns {
		row[col] = v.Monthly[i]
	}
	return row
}

var monthColumns = [12]string{
	"visits_jan", "visits_feb", "visits_mar", "visits_apr",
	"visits_may", "visits_jun", "visits_jul", "visits_aug",
	"visits_sep", "visits_oct", "visits_nov", "visits_dec",
}

// nullable maps an empty string onto SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
