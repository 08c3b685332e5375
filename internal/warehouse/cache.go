package warehouse

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is how long a cached connection is reused before it is reopened.
const DefaultTTL = 5 * time.Hour

// OpenFunc opens a new connection.
type OpenFunc func(ctx context.Context) (Conn, error)

// Cache opens a connection lazily, reuses it for ttl and reopens it after
// expiry. All calls through the cache are serialized on one mutex, so a
// connection is never used by two statements at once. Cache implements Conn.
type Cache struct {
	open OpenFunc
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	conn     Conn
	openedAt time.Time
}

// NewCache returns a cache over open. A non-positive ttl means DefaultTTL.
func NewCache(open OpenFunc, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{open: open, ttl: ttl, now: time.Now}
}

// connLocked returns the live connection, opening or reopening it as
// needed. c.mu must be held.
func (c *Cache) connLocked(ctx context.Context) (Conn, error) {
	if c.conn != nil && c.now().Sub(c.openedAt) < c.ttl {
		return c.conn, nil
	}
	if c.conn != nil {
		slog.Info("warehouse connection expired, reconnecting", "age", c.now().Sub(c.openedAt).Round(time.Second))
		_ = c.conn.Close()
		c.conn = nil
	}
	conn, err := c.open(ctx)
	if err != nil {
		return nil, classify(err)
	}
	c.conn = conn
	c.openedAt = c.now()
	return conn, nil
}

// observe drops the connection after a connection-level failure.
func (c *Cache) observe(err error) {
	if err != nil && IsConnectionError(err) && c.conn != nil {
		slog.Warn("warehouse connection lost, dropping cached session", "err", err)
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Invalidate closes and forgets the cached connection.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// SetOpener replaces the open function and drops the cached connection,
// e.g. after the user entered new credentials.
func (c *Cache) SetOpener(open OpenFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.open = open
}

func (c *Cache) Query(ctx context.Context, query string) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connLocked(ctx)
	if err != nil {
		return nil, err
	}
	t, err := conn.Query(ctx, query)
	c.observe(err)
	return t, err
}

func (c *Cache) Exec(ctx context.Context, query string) (*Table, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connLocked(ctx)
	if err != nil {
		return nil, "", err
	}
	t, id, err := conn.Exec(ctx, query)
	c.observe(err)
	return t, id, err
}

func (c *Cache) Describe(ctx context.Context, table string) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connLocked(ctx)
	if err != nil {
		return nil, err
	}
	t, err := conn.Describe(ctx, table)
	c.observe(err)
	return t, err
}

func (c *Cache) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, err := c.connLocked(ctx)
	if err != nil {
		return err
	}
	err = conn.Ping(ctx)
	c.observe(err)
	return err
}

// Close closes the cached connection. The cache stays usable and reopens
// on the next call.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
