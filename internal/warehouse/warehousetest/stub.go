// Package warehousetest provides an in-memory warehouse.Conn for tests.
package warehousetest

import (
	"context"
	"errors"
	"sync"

	"github.com/snowwise/snowwise/internal/warehouse"
)

// StubID is the statement id Stub assigns to every successful Exec.
const StubID = "stub-id-123"

// Stub is a scriptable warehouse.Conn. Queries and described tables are
// recorded in call order.
type Stub struct {
	mu sync.Mutex

	// Tables maps a table name to its Describe result. Unknown names fail.
	Tables map[string]*warehouse.Table
	// Results maps a statement to its result. Unknown statements return
	// a one-row one-column table holding 1.
	Results map[string]*warehouse.Table
	// Errors maps a statement or table name to a forced error.
	Errors map[string]error
	// QueryFunc, when set, answers Query calls.
	QueryFunc func(query string) (*warehouse.Table, error)

	Queries   []string
	Described []string
	Closed    bool
}

func (s *Stub) Query(_ context.Context, query string) (*warehouse.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries = append(s.Queries, query)
	if s.QueryFunc != nil {
		return s.QueryFunc(query)
	}
	return s.result(query)
}

func (s *Stub) Exec(_ context.Context, query string) (*warehouse.Table, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries = append(s.Queries, query)
	t, err := s.result(query)
	if err != nil {
		return nil, "", err
	}
	return t, StubID, nil
}

func (s *Stub) result(query string) (*warehouse.Table, error) {
	if err := s.Errors[query]; err != nil {
		return nil, err
	}
	if t, ok := s.Results[query]; ok {
		return t, nil
	}
	return &warehouse.Table{Columns: []string{"1"}, Rows: [][]any{{int64(1)}}}, nil
}

func (s *Stub) Describe(_ context.Context, table string) (*warehouse.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Described = append(s.Described, table)
	if err := s.Errors[table]; err != nil {
		return nil, err
	}
	if _, err := warehouse.ParseIdentifier(table); err != nil {
		return nil, err
	}
	t, ok := s.Tables[table]
	if !ok {
		return nil, errors.New("SQL compilation error: Table '" + table + "' does not exist or not authorized.")
	}
	return t, nil
}

func (s *Stub) Ping(context.Context) error { return nil }

func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}
