package warehouse

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) Conn {
	t.Helper()
	ctx := context.Background()
	conn, err := Open(ctx, Credentials{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "warehouse.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Query(ctx, `CREATE TABLE query_history (
		query_id TEXT PRIMARY KEY,
		query_text TEXT NOT NULL,
		total_elapsed_time INTEGER
	)`)
	require.NoError(t, err)
	_, err = conn.Query(ctx, `INSERT INTO query_history VALUES
		('q1', 'SELECT * FROM orders', 1200),
		('q2', 'SELECT id FROM users', 30)`)
	require.NoError(t, err)
	return conn
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Credentials{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestSQLite_Exec(t *testing.T) {
	conn := openTestDB(t)

	table, id, err := conn.Exec(context.Background(),
		"SELECT query_id, total_elapsed_time FROM query_history ORDER BY total_elapsed_time DESC")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, []string{"query_id", "total_elapsed_time"}, table.Columns)
	require.Equal(t, 2, table.Len())
	v, ok := table.Value(0, 0)
	require.True(t, ok)
	assert.Equal(t, "q1", v)
}

func TestSQLite_ExecFailure(t *testing.T) {
	conn := openTestDB(t)

	table, id, err := conn.Exec(context.Background(), "SELECT nope FROM query_history")
	require.Error(t, err)
	assert.Empty(t, id)
	assert.Nil(t, table)
	assert.False(t, IsConnectionError(err), "a bad column is a query error, not a connection error")
}

func TestSQLite_ExecIDsAreDistinct(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	_, id1, err := conn.Exec(ctx, "SELECT 1")
	require.NoError(t, err)
	_, id2, err := conn.Exec(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestSQLite_Describe(t *testing.T) {
	conn := openTestDB(t)

	table, err := conn.Describe(context.Background(), "query_history")
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Contains(t, table.String(), "total_elapsed_time")

	_, err = conn.Describe(context.Background(), "main.query_history")
	require.NoError(t, err)
}

func TestSQLite_DescribeMissingTable(t *testing.T) {
	conn := openTestDB(t)

	_, err := conn.Describe(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestSQLite_DescribeRejectsInjection(t *testing.T) {
	conn := openTestDB(t)

	_, err := conn.Describe(context.Background(), "query_history); DROP TABLE query_history; --")
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	table, _, err := conn.Exec(context.Background(), "SELECT count(*) FROM query_history")
	require.NoError(t, err)
	v, _ := table.Value(0, 0)
	assert.EqualValues(t, 2, v)
}

func TestCredentials_Complete(t *testing.T) {
	assert.True(t, Credentials{Driver: DriverSQLite, Path: "x.db"}.Complete())
	assert.False(t, Credentials{Driver: DriverSQLite}.Complete())
	assert.False(t, Credentials{Account: "acme", User: "u"}.Complete())
	assert.True(t, Credentials{Account: "acme", User: "u", Password: "p", Warehouse: "wh", Role: "r"}.Complete())
}
