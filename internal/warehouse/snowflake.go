package warehouse

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	sf "github.com/snowflakedb/gosnowflake"
)

const (
	defaultDatabase = "SNOWFLAKE"
	defaultSchema   = "ACCOUNT_USAGE"
)

// openSnowflake builds a gosnowflake DSN from creds. Database and schema
// default to SNOWFLAKE.ACCOUNT_USAGE where the query history lives.
func openSnowflake(creds Credentials) (*sql.DB, error) {
	database := creds.Database
	if database == "" {
		database = defaultDatabase
	}
	schema := creds.Schema
	if schema == "" {
		schema = defaultSchema
	}

	dsn, err := sf.DSN(&sf.Config{
		Account:     creds.Account,
		User:        creds.User,
		Password:    creds.Password,
		Warehouse:   creds.Warehouse,
		Role:        creds.Role,
		Database:    database,
		Schema:      schema,
		Application: "snowwise",
	})
	if err != nil {
		return nil, fmt.Errorf("build dsn: %w", err)
	}
	return sql.Open("snowflake", dsn)
}

type snowflakeDialect struct{}

func (snowflakeDialect) describe(ctx context.Context, db *sql.DB, ident Identifier) (*Table, error) {
	return queryTable(ctx, db, "DESCRIBE TABLE "+ident.String())
}

// exec runs the statement once on a dedicated driver connection so the
// query id can be read from the driver rows.
func (snowflakeDialect) exec(ctx context.Context, db *sql.DB, query string) (*Table, string, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, "", err
	}
	defer conn.Close()

	var (
		table   *Table
		queryID string
	)
	err = conn.Raw(func(dc any) error {
		qc, ok := dc.(driver.QueryerContext)
		if !ok {
			return errors.New("snowflake driver connection does not implement QueryerContext")
		}
		rows, err := qc.QueryContext(ctx, query, nil)
		if err != nil {
			return err
		}
		defer rows.Close()

		if sr, ok := rows.(sf.SnowflakeRows); ok {
			queryID = sr.GetQueryID()
		}
		table, err = readDriverRows(rows)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return table, queryID, nil
}

// isSnowflakeSessionError reports login and session failures. Snowflake
// reports them in the 390xxx range (bad credentials, expired tokens,
// locked users).
func isSnowflakeSessionError(err error) bool {
	var sfErr *sf.SnowflakeError
	if !errors.As(err, &sfErr) {
		return false
	}
	return sfErr.Number >= 390000 && sfErr.Number < 391000
}
