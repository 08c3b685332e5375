package warehouse

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/snowwise/snowwise/internal/shared/llmutils"
)

const (
	DriverSnowflake = "snowflake"
	DriverSQLite    = "sqlite"
)

// dialect holds the driver-specific parts of a sqlConn.
type dialect interface {
	describe(ctx context.Context, db *sql.DB, ident Identifier) (*Table, error)
	exec(ctx context.Context, db *sql.DB, query string) (*Table, string, error)
}

// sqlConn is a Conn over database/sql.
type sqlConn struct {
	db      *sql.DB
	dialect dialect
	timeout time.Duration
}

func (c *sqlConn) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *sqlConn) Query(ctx context.Context, query string) (*Table, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	slog.Debug("warehouse query", "sql", llmutils.Truncate(query, 200))
	t, err := queryTable(ctx, c.db, query)
	return t, classify(err)
}

func (c *sqlConn) Exec(ctx context.Context, query string) (*Table, string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	slog.Debug("warehouse exec", "sql", llmutils.Truncate(query, 200))
	t, id, err := c.dialect.exec(ctx, c.db, query)
	if err != nil {
		return nil, "", classify(err)
	}
	return t, id, nil
}

func (c *sqlConn) Describe(ctx context.Context, table string) (*Table, error) {
	ident, err := ParseIdentifier(table)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	t, err := c.dialect.describe(ctx, c.db, ident)
	return t, classify(err)
}

func (c *sqlConn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrConnection, err)
	}
	return nil
}

func (c *sqlConn) Close() error { return c.db.Close() }

// queryTable runs query on db and reads every row.
func queryTable(ctx context.Context, db *sql.DB, query string) (*Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	t := &Table{Columns: cols, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		t.Rows = append(t.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// readDriverRows drains rows obtained directly from a driver connection.
func readDriverRows(rows driver.Rows) (*Table, error) {
	cols := rows.Columns()
	t := &Table{Columns: cols, Rows: make([][]any, 0)}
	for {
		dest := make([]driver.Value, len(cols))
		err := rows.Next(dest)
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		row := make([]any, len(cols))
		for i, v := range dest {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
}
