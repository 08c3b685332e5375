package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/snowwise/snowwise/internal/channels"
	"github.com/snowwise/snowwise/internal/config"
	"github.com/snowwise/snowwise/internal/dependency"
)

var gatewayPort int

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Serve the agent on chat channels and run scheduled analyses",
	RunE:  runGateway,
}

func init() {
	gatewayCmd.Flags().IntVarP(&gatewayPort, "port", "p", 0, "Gateway port (overrides config)")
}

func runGateway(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if gatewayPort > 0 {
		cfg.Gateway.Port = gatewayPort
	}
	if !cfg.Credentials().Complete() {
		return fmt.Errorf("warehouse credentials incomplete: set them in %s or via %s, %s, %s, %s and %s",
			config.ConfigPath(), config.EnvAccount, config.EnvUser, config.EnvPassword, config.EnvWarehouse, config.EnvRole)
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer container.Warehouse().Close()

	fmt.Printf("%s Starting snowwise gateway for %s...\n", logo, cfg.Target())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	channelMgr := channels.NewManager(cfg, container.AgentBus(), container.ChannelBus())
	if enabled := channelMgr.EnabledChannels(); len(enabled) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabled, ", "))
	} else {
		fmt.Println("Warning: no channels enabled")
	}
	channelMgr.OnSessionEnd(container.Sessions().Invalidate)
	if n := len(container.Scheduler().List()); n > 0 {
		fmt.Printf("✓ Schedules: %d\n", n)
	}

	g.Go(func() error { return container.AgentLoop().Run(gctx) })
	g.Go(func() error { return container.CronService().Start(gctx) })
	g.Go(func() error { return channelMgr.StartAll(gctx) })
	if cfg.Gateway.Heartbeat > 0 {
		g.Go(func() error { return container.Heartbeat().Start(gctx) })
	}

	fmt.Printf("%s Gateway running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "gateway error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
