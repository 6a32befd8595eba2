// Package store provides the client for the remote relational store.
//
// The upload pipeline talks to the store through four primitives only:
// ranged selects, batched inserts, table-wide deletes, and counts. Joins
// between tiers are never pushed to the store; the pipeline correlates
// rows in-process through natural keys.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMissingTable signals that the destination table does not exist.
//
// The target schema may be provisioned incrementally across environments,
// so callers treat operations against an absent table as zero-affected
// rather than as an infrastructure failure.
var ErrMissingTable = errors.New("store: table does not exist")

// Row is a column name to value mapping for one store row.
// Values are native Go types; nil maps to SQL NULL.
type Row map[string]any

// Store is the set of operations the pipeline needs from the relational
// store. Satisfied by *Client in production and by in-process fakes in tests.
type Store interface {
	// Select reads up to limit rows starting at offset, ordered by the
	// store-generated id column so that pagination is stable.
	Select(ctx context.Context, table string, columns []string, offset, limit int) ([]Row, error)

	// Insert writes rows in a single statement and returns the number inserted.
	Insert(ctx context.Context, table string, rows []Row) (int, error)

	// DeleteAll removes every row from the table.
	DeleteAll(ctx context.Context, table string) (int64, error)

	// Count returns the number of rows in the table.
	Count(ctx context.Context, table string) (int64, error)
}

// Client implements Store against PostgreSQL through a pgx connection pool.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient wraps an existing connection pool.
func NewClient(pool *pgxpool.Pool) *Client {
	return &Client{pool: pool}
}

// Select reads (offset, limit) pages ordered by id.
func (c *Client) Select(ctx context.Context, table string, columns []string, offset, limit int) ([]Row, error) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdentifier(col)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY id LIMIT %d OFFSET %d",
		strings.Join(quoted, ", "), quoteIdentifier(table), limit, offset,
	)

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, classify(table, "select", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", table, err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(table, "select", err)
	}

	return result, nil
}

// Insert writes all rows as one multi-row INSERT. Column order is taken
// from the first row; every row must carry the same columns.
func (c *Client) Insert(ctx context.Context, table string, rows []Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	columns := sortedColumns(rows[0])
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdentifier(col)
	}

	var (
		placeholders []string
		args         []any
	)
	n := 1
	for _, row := range rows {
		group := make([]string, len(columns))
		for i, col := range columns {
			group[i] = fmt.Sprintf("$%d", n)
			args = append(args, row[col])
			n++
		}
		placeholders = append(placeholders, "("+strings.Join(group, ", ")+")")
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		quoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
	)

	tag, err := c.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, classify(table, "insert", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteAll removes every row from the table.
func (c *Client) DeleteAll(ctx context.Context, table string) (int64, error) {
	tag, err := c.pool.Exec(ctx, "DELETE FROM "+quoteIdentifier(table))
	if err != nil {
		return 0, classify(table, "delete", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the row count of the table.
func (c *Client) Count(ctx context.Context, table string) (int64, error) {
	var count int64
	err := c.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+quoteIdentifier(table)).Scan(&count)
	if err != nil {
		return 0, classify(table, "count", err)
	}
	return count, nil
}

// classify wraps store errors, mapping undefined_table (42P01) onto
// ErrMissingTable so callers can distinguish schema drift from real failures.
func classify(table, op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return fmt.Errorf("%s %s: %w", op, table, ErrMissingTable)
	}
	return fmt.Errorf("store: %s %s: %w", op, table, err)
}

// IsMissingTable reports whether err is the missing-table condition.
func IsMissingTable(err error) bool {
	return errors.Is(err, ErrMissingTable)
}

// quoteIdentifier safely quotes a SQL identifier.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sortedColumns returns the row's column names in a deterministic order.
func sortedColumns(row Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	// Map iteration order is random; sort so the generated SQL is stable.
	sort.Strings(cols)
	return cols
}
