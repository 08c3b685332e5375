package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

func openSQLite(creds Credentials) (*sql.DB, error) {
	db, err := sql.Open("sqlite", creds.Path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases alive across statements.
	db.SetMaxOpenConns(1)
	return db, nil
}

type sqliteDialect struct{}

func (sqliteDialect) describe(ctx context.Context, db *sql.DB, ident Identifier) (*Table, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", ident.Name())
	if schema := ident.Schema(); schema != "" {
		query = fmt.Sprintf("PRAGMA %s.table_info(%s)", schema, ident.Name())
	}
	t, err := queryTable(ctx, db, query)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("table %s does not exist", ident)
	}
	return t, nil
}

// exec has no server-side statement id to read, so one is generated.
func (sqliteDialect) exec(ctx context.Context, db *sql.DB, query string) (*Table, string, error) {
	t, err := queryTable(ctx, db, query)
	if err != nil {
		return nil, "", err
	}
	return t, uuid.NewString(), nil
}
