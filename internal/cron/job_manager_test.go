package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowwise/snowwise/internal/bus"
	"github.com/snowwise/snowwise/internal/config/schedule"
)

type call struct {
	content, key, channel, chatID string
}

type fakeAgent struct {
	mu    sync.Mutex
	calls []call
	reply string
	err   error
}

func (f *fakeAgent) ProcessDirect(_ context.Context, content, key, channel, chatID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{content, key, channel, chatID})
	return f.reply, f.err
}

func (f *fakeAgent) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func dailyTop() schedule.ScheduleConfig {
	return schedule.ScheduleConfig{
		Name:    "daily-top",
		Cron:    "0 8 * * *",
		TZ:      "UTC",
		Message: "List the 20 most expensive queries of the last day",
		Channel: "slack",
		ChatID:  "C123",
	}
}

// ─── Validation ───

func TestNewJobManager_Validation(t *testing.T) {
	cases := map[string]func(*schedule.ScheduleConfig){
		"bad expression": func(s *schedule.ScheduleConfig) { s.Cron = "every day" },
		"bad tz":         func(s *schedule.ScheduleConfig) { s.TZ = "Mars/Olympus" },
		"no message":     func(s *schedule.ScheduleConfig) { s.Message = " " },
		"no name":        func(s *schedule.ScheduleConfig) { s.Name = "" },
		"cli channel":    func(s *schedule.ScheduleConfig) { s.Channel = "cli" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			sc := dailyTop()
			mutate(&sc)
			_, err := NewJobManager([]schedule.ScheduleConfig{sc}, &fakeAgent{}, bus.NewChannelBus(1))
			assert.Error(t, err)
		})
	}
}

func TestNewJobManager_DuplicateNames(t *testing.T) {
	_, err := NewJobManager([]schedule.ScheduleConfig{dailyTop(), dailyTop()}, &fakeAgent{}, bus.NewChannelBus(1))
	assert.ErrorIs(t, err, ErrDuplicateJob)
}

func TestNewJobManager_Descriptors(t *testing.T) {
	sc := dailyTop()
	sc.Cron = "@hourly"
	sc.TZ = ""
	_, err := NewJobManager([]schedule.ScheduleConfig{sc}, &fakeAgent{}, bus.NewChannelBus(1))
	assert.NoError(t, err)
}

// ─── List ───

func TestList_NextRun(t *testing.T) {
	m, err := NewJobManager([]schedule.ScheduleConfig{dailyTop()}, &fakeAgent{}, bus.NewChannelBus(1))
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, "daily-top", list[0].Name)
	assert.Equal(t, "0 8 * * *", list[0].Expr)
	assert.True(t, list[0].Next.Equal(time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)), "next run %v", list[0].Next)
	assert.True(t, list[0].LastRun.IsZero())
}

// ─── Execution ───

func TestRunNow_DeliversToChannel(t *testing.T) {
	agent := &fakeAgent{reply: "1. query 01ab… 42 credits"}
	outbound := bus.NewChannelBus(1)
	m, err := NewJobManager([]schedule.ScheduleConfig{dailyTop()}, agent, outbound)
	require.NoError(t, err)

	reply, err := m.RunNow(context.Background(), "daily-top")
	require.NoError(t, err)
	assert.Equal(t, agent.reply, reply)

	require.Len(t, agent.calls, 1)
	assert.Equal(t, call{
		content: "List the 20 most expensive queries of the last day",
		key:     "cron:daily-top",
		channel: "cron",
		chatID:  "C123",
	}, agent.calls[0])

	msg := <-outbound.Subscribe()
	assert.Equal(t, bus.ChannelSlack, msg.Channel())
	assert.Equal(t, "C123", msg.ChatId())
	assert.Equal(t, agent.reply, msg.Content())
	assert.Equal(t, "daily-top", msg.Metadata()["schedule"])

	assert.False(t, m.List()[0].LastRun.IsZero())
}

func TestRunNow_FailureIsRecordedAndReported(t *testing.T) {
	agent := &fakeAgent{reply: "Sorry, I encountered an error: boom", err: errors.New("boom")}
	outbound := bus.NewChannelBus(1)
	m, err := NewJobManager([]schedule.ScheduleConfig{dailyTop()}, agent, outbound)
	require.NoError(t, err)

	_, err = m.RunNow(context.Background(), "daily-top")
	require.Error(t, err)
	assert.Equal(t, "boom", m.List()[0].LastError)

	msg := <-outbound.Subscribe()
	assert.Equal(t, agent.reply, msg.Content())
}

func TestRunNow_NoChannelOnlyLogs(t *testing.T) {
	sc := dailyTop()
	sc.Channel = ""
	outbound := bus.NewChannelBus(1)
	m, err := NewJobManager([]schedule.ScheduleConfig{sc}, &fakeAgent{reply: "ok"}, outbound)
	require.NoError(t, err)

	_, err = m.RunNow(context.Background(), "daily-top")
	require.NoError(t, err)
	select {
	case msg := <-outbound.Subscribe():
		t.Fatalf("unexpected delivery %q", msg.Content())
	default:
	}
}

func TestRunNow_UnknownJob(t *testing.T) {
	m, err := NewJobManager(nil, &fakeAgent{}, bus.NewChannelBus(1))
	require.NoError(t, err)
	_, err = m.RunNow(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestStart_FiresAndStops(t *testing.T) {
	sc := dailyTop()
	sc.Cron = "@every 1s"
	sc.TZ = ""
	agent := &fakeAgent{reply: "tick"}
	outbound := bus.NewChannelBus(8)
	m, err := NewJobManager([]schedule.ScheduleConfig{sc}, agent, outbound)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	require.Eventually(t, func() bool { return agent.count() >= 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
	}
}
