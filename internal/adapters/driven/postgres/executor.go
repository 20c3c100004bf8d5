package postgres

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-widget/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QueryExecutor = (*Executor)(nil)

// Executor implements driven.QueryExecutor over the connection pool.
// Rows come back with driver-native values; coercion is the caller's job.
type Executor struct {
	db *DB
}

// NewExecutor creates a new Executor
func NewExecutor(db *DB) *Executor {
	return &Executor{db: db}
}

// Query runs a statement and collects every row keyed by column name.
func (e *Executor) Query(ctx context.Context, query string, args ...any) ([]driven.Row, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []driven.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(driven.Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Exec runs a statement and returns the number of rows affected.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Ping checks the database is reachable.
func (e *Executor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}
