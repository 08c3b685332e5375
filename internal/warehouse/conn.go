// Package warehouse owns the session-scoped connection to the data warehouse.
//
// Every tool and the completion client reach the warehouse through Conn.
// Two drivers are supported: "snowflake" (gosnowflake) and "sqlite"
// (modernc.org/sqlite, used for local runs and tests).
package warehouse

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	// ErrConnection marks authentication and network failures. They are fatal
	// to the session: the cached connection is dropped and credentials must be
	// supplied again.
	ErrConnection = errors.New("warehouse connection error")
	// ErrInvalidIdentifier is returned when a table name does not look like a
	// (possibly qualified) SQL identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrNotReadOnly is returned by Guard for statements outside the
	// read-only allowlist.
	ErrNotReadOnly = errors.New("statement is not read-only")
	// ErrUnknownDriver is returned by Open for unsupported driver names.
	ErrUnknownDriver = errors.New("unknown warehouse driver")
)

// Conn is an authenticated warehouse session.
type Conn interface {
	// Query executes query and fetches the whole result.
	Query(ctx context.Context, query string) (*Table, error)
	// Exec executes query, fetches the whole result and returns the
	// connection-assigned statement identifier.
	Exec(ctx context.Context, query string) (*Table, string, error)
	// Describe returns column metadata rows for table.
	Describe(ctx context.Context, table string) (*Table, error)
	Ping(ctx context.Context) error
	Close() error
}

// Credentials identify the warehouse session.
type Credentials struct {
	Driver    string
	Account   string
	User      string
	Password  string
	Warehouse string
	Role      string
	Database  string
	Schema    string
	// Path is the database file for the sqlite driver.
	Path string
	// QueryTimeout bounds every statement; zero means no timeout.
	QueryTimeout time.Duration
}

// Complete reports whether all fields required by the driver are set.
func (c Credentials) Complete() bool {
	switch c.Driver {
	case DriverSQLite:
		return c.Path != ""
	default:
		return c.Account != "" && c.User != "" && c.Password != "" && c.Warehouse != "" && c.Role != ""
	}
}

// Open connects with creds and verifies the session with a ping.
func Open(ctx context.Context, creds Credentials) (Conn, error) {
	var (
		db  *sql.DB
		d   dialect
		err error
	)
	switch creds.Driver {
	case DriverSnowflake, "":
		db, err = openSnowflake(creds)
		d = snowflakeDialect{}
	case DriverSQLite:
		db, err = openSQLite(creds)
		d = sqliteDialect{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, creds.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", ErrConnection, err)
	}

	conn := &sqlConn{db: db, dialect: d, timeout: creds.QueryTimeout}
	if err := conn.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return conn, nil
}

// IsConnectionError reports whether err is fatal to the session.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// classify wraps authentication and network failures with ErrConnection.
// Everything else is returned unchanged and treated as a query error.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrConnection) {
		return err
	}
	// context.DeadlineExceeded satisfies net.Error; a statement timeout is
	// a query error.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if isSnowflakeSessionError(err) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return err
}
