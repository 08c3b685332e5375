// Package cron runs recurring analyses: each configured schedule sends a
// fixed message to the agent and delivers the answer to a chat channel.
package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/snowwise/snowwise/internal/bus"
	"github.com/snowwise/snowwise/internal/config/schedule"
	"github.com/snowwise/snowwise/internal/schema"
)

var (
	ErrUnknownJob   = errors.New("unknown schedule")
	ErrDuplicateJob = errors.New("duplicate schedule name")
)

var parser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow | robfigcron.Descriptor,
)

// Processor runs one agent turn outside the bus. Implemented by agent.AgentLoop.
type Processor interface {
	ProcessDirect(ctx context.Context, content, key, channel, chatID string) (string, error)
}

type job struct {
	cfg   schedule.ScheduleConfig
	sched robfigcron.Schedule

	lastRun time.Time
	lastErr string
}

// SessionKey is the conversation a schedule's turns are recorded in.
func SessionKey(name string) string { return string(bus.ChannelCron) + ":" + name }

// JobManager owns the robfig scheduler and the configured jobs.
type JobManager struct {
	agent    Processor
	outbound *bus.ChannelBus
	cron     *robfigcron.Cron
	now      func() time.Time

	mu   sync.Mutex
	jobs []*job
}

// NewJobManager validates every schedule. Nothing runs until Start.
func NewJobManager(schedules []schedule.ScheduleConfig, agent Processor, outbound *bus.ChannelBus) (*JobManager, error) {
	m := &JobManager{
		agent:    agent,
		outbound: outbound,
		cron:     robfigcron.New(robfigcron.WithParser(parser)),
		now:      time.Now,
	}
	seen := make(map[string]bool, len(schedules))
	for _, sc := range schedules {
		if seen[sc.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateJob, sc.Name)
		}
		seen[sc.Name] = true

		sched, err := parseSchedule(sc)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", sc.Name, err)
		}
		m.jobs = append(m.jobs, &job{cfg: sc, sched: sched})
	}
	return m, nil
}

func parseSchedule(sc schedule.ScheduleConfig) (robfigcron.Schedule, error) {
	if strings.TrimSpace(sc.Name) == "" {
		return nil, errors.New("name is required")
	}
	if strings.TrimSpace(sc.Message) == "" {
		return nil, errors.New("message is required")
	}
	switch bus.Channel(sc.Channel) {
	case "", bus.ChannelSlack, bus.ChannelTelegram, bus.ChannelWebSocket:
	default:
		return nil, fmt.Errorf("channel %q cannot receive scheduled reports", sc.Channel)
	}
	expr := strings.TrimSpace(sc.Cron)
	if sc.TZ != "" {
		if _, err := time.LoadLocation(sc.TZ); err != nil {
			return nil, fmt.Errorf("tz: %w", err)
		}
		expr = "CRON_TZ=" + sc.TZ + " " + expr
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("cron %q: %w", sc.Cron, err)
	}
	return sched, nil
}

// Start arms all jobs and blocks until ctx is cancelled. Running jobs are
// waited for before it returns.
func (m *JobManager) Start(ctx context.Context) error {
	m.mu.Lock()
	for _, j := range m.jobs {
		m.cron.Schedule(j.sched, robfigcron.FuncJob(func() { m.execute(ctx, j) }))
	}
	n := len(m.jobs)
	m.mu.Unlock()

	m.cron.Start()
	slog.Info("cron: started", "jobs", n)

	<-ctx.Done()
	<-m.cron.Stop().Done()
	return ctx.Err()
}

// RunNow executes the named schedule immediately and returns the answer.
func (m *JobManager) RunNow(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	var target *job
	for _, j := range m.jobs {
		if j.cfg.Name == name {
			target = j
			break
		}
	}
	m.mu.Unlock()
	if target == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return m.execute(ctx, target)
}

func (m *JobManager) execute(ctx context.Context, j *job) (string, error) {
	started := m.now()
	slog.Info("cron: executing job", "name", j.cfg.Name, "channel", j.cfg.Channel)

	reply, err := m.agent.ProcessDirect(ctx, j.cfg.Message, SessionKey(j.cfg.Name), string(bus.ChannelCron), j.cfg.ChatID)
	if err != nil {
		slog.Error("cron: job failed", "name", j.cfg.Name, "err", err)
	}

	m.mu.Lock()
	j.lastRun = started
	j.lastErr = ""
	if err != nil {
		j.lastErr = err.Error()
	}
	m.mu.Unlock()

	if j.cfg.Channel != "" && reply != "" {
		m.outbound.Publish(bus.NewChannelMessageBuilder(bus.Channel(j.cfg.Channel), j.cfg.ChatID, reply).
			Metadata(map[string]any{"schedule": j.cfg.Name}).
			Build())
	} else {
		slog.Info("cron: job finished", "name", j.cfg.Name, "length", len(reply))
	}
	return reply, err
}

// List implements schema.Scheduler.
func (m *JobManager) List() []schema.ScheduleSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	out := make([]schema.ScheduleSummary, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, schema.ScheduleSummary{
			Name:      j.cfg.Name,
			Expr:      j.cfg.Cron,
			Channel:   j.cfg.Channel,
			ChatID:    j.cfg.ChatID,
			Next:      j.sched.Next(now),
			LastRun:   j.lastRun,
			LastError: j.lastErr,
		})
	}
	return out
}

var _ schema.Scheduler = (*JobManager)(nil)
