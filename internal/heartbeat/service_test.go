package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowwise/snowwise/internal/warehouse"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheck(t *testing.T) {
	var lost []error
	onLost := func(_ context.Context, err error) { lost = append(lost, err) }
	ctx := context.Background()

	ok := NewService(pingFunc(func(context.Context) error { return nil }), 0, onLost)
	assert.True(t, ok.check(ctx))
	assert.Equal(t, DefaultInterval, ok.interval)

	slow := NewService(pingFunc(func(context.Context) error { return errors.New("warehouse suspended") }), 0, onLost)
	assert.False(t, slow.check(ctx))
	assert.Empty(t, lost)

	gone := NewService(pingFunc(func(context.Context) error {
		return fmt.Errorf("%w: session expired", warehouse.ErrConnection)
	}), 0, onLost)
	assert.False(t, gone.check(ctx))
	require.Len(t, lost, 1)
	assert.ErrorIs(t, lost[0], warehouse.ErrConnection)
}

func TestStart_PingsUntilCancelled(t *testing.T) {
	var pings atomic.Int32
	s := NewService(pingFunc(func(context.Context) error {
		pings.Add(1)
		return nil
	}), 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return pings.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
