package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/snowwise/snowwise/internal/channels"
	"github.com/snowwise/snowwise/internal/config"
	"github.com/snowwise/snowwise/internal/dependency"
	"github.com/snowwise/snowwise/internal/shared/cmdutils"
)

var (
	agentMessage string
	agentSession string
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Chat with the query optimization agent",
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().StringVarP(&agentMessage, "message", "m", "", "Send a single message and exit")
	agentCmd.Flags().StringVarP(&agentSession, "session", "s", "cli:direct", "Session ID")
}

func runAgent(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer container.Warehouse().Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	channel, chatId := parseSessionKey(agentSession)

	if agentMessage != "" {
		ask := cmdutils.NewPrompter(bufio.NewReader(os.Stdin), os.Stderr, int(os.Stdin.Fd()))
		if err := useCredentials(container, ask, false); err != nil {
			return err
		}
		return runSingleMessage(ctx, container, agentSession, channel, chatId)
	}
	return runInteractive(ctx, container, chatId)
}

// useCredentials completes the warehouse credentials and points the
// connection cache at them.
func useCredentials(c *dependency.ServiceContainer, ask cmdutils.Prompter, again bool) error {
	cfg := c.Config()
	if err := promptCredentials(&cfg.Warehouse, ask, again); err != nil {
		return err
	}
	c.Warehouse().SetOpener(dependency.Opener(cfg))
	return nil
}

// runSingleMessage sends one message to the agent and prints the response.
func runSingleMessage(ctx context.Context, c *dependency.ServiceContainer, sessionKey, channel, chatId string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	cmdutils.PrintProgress("thinking...")
	reply, err := c.AgentLoop().ProcessDirect(ctx, agentMessage, sessionKey, channel, chatId)
	if err != nil {
		return err
	}
	cmdutils.PrintResponse(reply)
	return nil
}

// runInteractive starts the agent loop and the terminal REPL. A lost
// warehouse session asks for the credentials again before the next prompt.
func runInteractive(ctx context.Context, c *dependency.ServiceContainer, chatId string) error {
	fmt.Printf("%s Interactive mode, connected to %s\n", logo, c.Config().Target())

	cli := channels.NewCLIChannel(c.AgentBus(), c.ConsoleBus())
	cli.SetChatId(chatId)
	if err := useCredentials(c, cli.Prompter(), false); err != nil {
		return err
	}
	cli.OnConnectionLost(func(_ context.Context, ask cmdutils.Prompter) error {
		fmt.Println("The warehouse session was lost. Please enter your credentials again.")
		return useCredentials(c, ask, true)
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = c.AgentLoop().Run(ctx) }()

	if err := cli.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func parseSessionKey(key string) (channel, chatID string) {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "cli", key
}
