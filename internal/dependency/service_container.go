// Package dependency wires core snowwise services using go.uber.org/dig.
package dependency

import (
	"context"

	"go.uber.org/dig"

	"github.com/snowwise/snowwise/internal/agent"
	"github.com/snowwise/snowwise/internal/bus"
	"github.com/snowwise/snowwise/internal/config"
	"github.com/snowwise/snowwise/internal/cron"
	"github.com/snowwise/snowwise/internal/heartbeat"
	"github.com/snowwise/snowwise/internal/llm"
	"github.com/snowwise/snowwise/internal/schema"
	"github.com/snowwise/snowwise/internal/session"
	"github.com/snowwise/snowwise/internal/tools"
	"github.com/snowwise/snowwise/internal/warehouse"
)

const busSize = 100

// ServiceContainer holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type ServiceContainer struct {
	cfg         *config.Config
	warehouse   *warehouse.Cache
	completer   llm.Completer
	registry    *tools.Registry
	inboundBus  *bus.AgentBus
	outboundBus *bus.ChannelBus
	consoleBus  *bus.ConsoleBus
	sessions    *session.Manager
	loop        *agent.AgentLoop
	jobs        *cron.JobManager
	heartbeat   *heartbeat.Service
}

func (c *ServiceContainer) Config() *config.Config         { return c.cfg }
func (c *ServiceContainer) Warehouse() *warehouse.Cache    { return c.warehouse }
func (c *ServiceContainer) Completer() llm.Completer       { return c.completer }
func (c *ServiceContainer) Tools() *tools.Registry         { return c.registry }
func (c *ServiceContainer) AgentBus() *bus.AgentBus        { return c.inboundBus }
func (c *ServiceContainer) ChannelBus() *bus.ChannelBus    { return c.outboundBus }
func (c *ServiceContainer) ConsoleBus() *bus.ConsoleBus    { return c.consoleBus }
func (c *ServiceContainer) Sessions() *session.Manager     { return c.sessions }
func (c *ServiceContainer) AgentLoop() schema.AgentLooper  { return c.loop }
func (c *ServiceContainer) CronService() *cron.JobManager  { return c.jobs }
func (c *ServiceContainer) Heartbeat() *heartbeat.Service  { return c.heartbeat }
func (c *ServiceContainer) Scheduler() schema.Scheduler    { return c.jobs }
func (c *ServiceContainer) Settings() schema.AgentSettings { return c.cfg.AgentSettings() }

// Option overrides one provider, mostly for tests.
type Option func(*options)

type options struct {
	open      warehouse.OpenFunc
	completer llm.Completer
}

// WithOpener replaces the warehouse connection factory.
func WithOpener(open warehouse.OpenFunc) Option {
	return func(o *options) { o.open = open }
}

// WithCompleter replaces the Cortex completion client.
func WithCompleter(c llm.Completer) Option {
	return func(o *options) { o.completer = c }
}

// Opener returns a connection factory for the credentials currently in cfg.
func Opener(cfg *config.Config) warehouse.OpenFunc {
	creds := cfg.Credentials()
	return func(ctx context.Context) (warehouse.Conn, error) {
		return warehouse.Open(ctx, creds)
	}
}

// New builds and wires all core services from cfg. No connection is opened
// until the first statement runs.
func New(cfg *config.Config, opts ...Option) (*ServiceContainer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := dig.New()
	providers := []any{
		func() *config.Config { return cfg },
		func() options { return o },
		newWarehouse,
		newCompleter,
		newGuard,
		newToolRegistry,
		newAgentBus,
		newChannelBus,
		newConsoleBus,
		session.NewManager,
		newLoopRunner,
		newAgentLoop,
		newJobManager,
		newHeartbeat,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *ServiceContainer
	err := d.Invoke(func(
		wh *warehouse.Cache,
		completer llm.Completer,
		registry *tools.Registry,
		inbound *bus.AgentBus,
		outbound *bus.ChannelBus,
		console *bus.ConsoleBus,
		sessions *session.Manager,
		loop *agent.AgentLoop,
		jobs *cron.JobManager,
		hb *heartbeat.Service,
	) {
		result = &ServiceContainer{
			cfg:         cfg,
			warehouse:   wh,
			completer:   completer,
			registry:    registry,
			inboundBus:  inbound,
			outboundBus: outbound,
			consoleBus:  console,
			sessions:    sessions,
			loop:        loop,
			jobs:        jobs,
			heartbeat:   hb,
		}
	})
	return result, err
}

func newWarehouse(cfg *config.Config, o options) *warehouse.Cache {
	open := o.open
	if open == nil {
		open = Opener(cfg)
	}
	return warehouse.NewCache(open, cfg.Warehouse.CacheTTL)
}

func newCompleter(cfg *config.Config, o options, wh *warehouse.Cache) (llm.Completer, error) {
	if o.completer != nil {
		return o.completer, nil
	}
	d := cfg.Agents.Defaults
	return llm.NewCortex(wh, d.Model, d.CompletionTimeout)
}

func newGuard(cfg *config.Config) warehouse.Guard {
	return warehouse.Guard{Enabled: cfg.Tools.ReadOnly}
}

func newToolRegistry(wh *warehouse.Cache, completer llm.Completer, guard warehouse.Guard) *tools.Registry {
	return tools.NewSQLRegistry(wh, completer, guard)
}

func newAgentBus() *bus.AgentBus     { return bus.NewAgentBus(busSize) }
func newChannelBus() *bus.ChannelBus { return bus.NewChannelBus(busSize) }
func newConsoleBus() *bus.ConsoleBus { return bus.NewConsoleBus(busSize) }

func newLoopRunner(cfg *config.Config, completer llm.Completer, registry *tools.Registry) agent.LoopRunner {
	return agent.NewLoopRunner(completer, registry, cfg.AgentSettings())
}

func newAgentLoop(
	cfg *config.Config,
	inbound *bus.AgentBus,
	outbound *bus.ChannelBus,
	console *bus.ConsoleBus,
	sessions *session.Manager,
	runner agent.LoopRunner,
	wh *warehouse.Cache,
) *agent.AgentLoop {
	return agent.NewAgentLoop(inbound, outbound, console, cfg.AgentSettings(), sessions, runner, wh)
}

func newJobManager(cfg *config.Config, loop *agent.AgentLoop, outbound *bus.ChannelBus) (*cron.JobManager, error) {
	return cron.NewJobManager(cfg.Schedules, loop, outbound)
}

func newHeartbeat(cfg *config.Config, wh *warehouse.Cache) *heartbeat.Service {
	return heartbeat.NewService(wh, cfg.Gateway.Heartbeat, nil)
}
