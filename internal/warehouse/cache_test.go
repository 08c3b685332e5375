package warehouse

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     int
	err    error
	closed bool

	mu     sync.Mutex
	active int
	maxAct int
}

func (f *fakeConn) enter() {
	f.mu.Lock()
	f.active++
	if f.active > f.maxAct {
		f.maxAct = f.active
	}
	f.mu.Unlock()
	time.Sleep(time.Millisecond)
	f.mu.Lock()
	f.active--
	f.mu.Unlock()
}

func (f *fakeConn) Query(context.Context, string) (*Table, error) {
	f.enter()
	return &Table{Columns: []string{"id"}, Rows: [][]any{{f.id}}}, f.err
}

func (f *fakeConn) Exec(ctx context.Context, q string) (*Table, string, error) {
	t, err := f.Query(ctx, q)
	return t, "id", err
}

func (f *fakeConn) Describe(ctx context.Context, table string) (*Table, error) {
	return f.Query(ctx, table)
}

func (f *fakeConn) Ping(context.Context) error { return f.err }
func (f *fakeConn) Close() error               { f.closed = true; return nil }

type opener struct {
	opened []*fakeConn
	err    error
}

func (o *opener) open(context.Context) (Conn, error) {
	if o.err != nil {
		return nil, o.err
	}
	c := &fakeConn{id: len(o.opened) + 1}
	o.opened = append(o.opened, c)
	return c, nil
}

func TestCache_ReusesWithinTTL(t *testing.T) {
	o := &opener{}
	c := NewCache(o.open, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Query(ctx, "SELECT 1")
		require.NoError(t, err)
	}
	assert.Len(t, o.opened, 1)
}

func TestCache_ReopensAfterTTL(t *testing.T) {
	o := &opener{}
	c := NewCache(o.open, time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.Query(ctx, "SELECT 1")
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)
	tbl, err := c.Query(ctx, "SELECT 1")
	require.NoError(t, err)

	require.Len(t, o.opened, 2)
	assert.True(t, o.opened[0].closed)
	v, _ := tbl.Value(0, 0)
	assert.Equal(t, 2, v)
}

func TestCache_DropsConnectionOnConnectionError(t *testing.T) {
	o := &opener{}
	c := NewCache(o.open, 0)
	ctx := context.Background()

	_, err := c.Query(ctx, "SELECT 1")
	require.NoError(t, err)
	o.opened[0].err = ErrConnection

	_, err = c.Query(ctx, "SELECT 1")
	require.ErrorIs(t, err, ErrConnection)
	assert.True(t, o.opened[0].closed)

	_, err = c.Query(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.Len(t, o.opened, 2)
}

func TestCache_KeepsConnectionOnQueryError(t *testing.T) {
	o := &opener{}
	c := NewCache(o.open, 0)
	ctx := context.Background()

	_, err := c.Query(ctx, "SELECT 1")
	require.NoError(t, err)
	o.opened[0].err = errors.New("SQL compilation error")

	_, err = c.Query(ctx, "SELECT nope")
	require.Error(t, err)
	assert.False(t, o.opened[0].closed)
	assert.Len(t, o.opened, 1)
}

func TestCache_OpenFailureIsConnectionError(t *testing.T) {
	c := NewCache((&opener{err: errors.New("dial tcp: refused")}).open, 0)
	_, err := c.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrConnection)
}

func TestCache_InvalidateAndSetOpener(t *testing.T) {
	o := &opener{}
	c := NewCache(o.open, 0)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	c.Invalidate()
	assert.True(t, o.opened[0].closed)

	o2 := &opener{}
	c.SetOpener(o2.open)
	require.NoError(t, c.Ping(ctx))
	assert.Len(t, o2.opened, 1)
}

func TestCache_SerializesCalls(t *testing.T) {
	o := &opener{}
	c := NewCache(o.open, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Query(ctx, "SELECT 1")
		}()
	}
	wg.Wait()
	require.Len(t, o.opened, 1)
	assert.Equal(t, 1, o.opened[0].maxAct)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(context.DeadlineExceeded), context.DeadlineExceeded)
	assert.False(t, IsConnectionError(classify(context.DeadlineExceeded)))
	assert.False(t, IsConnectionError(classify(errors.New("syntax error"))))
	assert.True(t, IsConnectionError(classify(fmtBadConn())))
}
