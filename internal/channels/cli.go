package channels

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/snowwise/snowwise/internal/bus"
	"github.com/snowwise/snowwise/internal/shared/cmdutils"
)

var cliExitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

// ReconnectFunc collects fresh warehouse credentials after the session was
// lost and installs them. It is called between turns, so ask may read from
// the terminal.
type ReconnectFunc func(ctx context.Context, ask cmdutils.Prompter) error

// CLIChannel wires the terminal into the agent: lines typed at the "You:"
// prompt go to the AgentBus, replies and progress lines come back on the
// ConsoleBus.
type CLIChannel struct {
	Base
	console   *bus.ConsoleBus
	chatId    string
	in        *bufio.Reader
	fd        int
	out       io.Writer
	reconnect ReconnectFunc
}

// NewCLIChannel creates a CLIChannel reading from stdin.
func NewCLIChannel(inbound *bus.AgentBus, console *bus.ConsoleBus) *CLIChannel {
	return &CLIChannel{
		Base:    NewBase(bus.ChannelCLI, inbound, nil),
		console: console,
		chatId:  string(bus.ChatIdDirect),
		in:      bufio.NewReader(os.Stdin),
		fd:      int(os.Stdin.Fd()),
		out:     os.Stdout,
	}
}

// SetChatId selects the conversation the terminal talks to.
func (c *CLIChannel) SetChatId(chatId string) {
	if chatId != "" {
		c.chatId = chatId
	}
}

// OnConnectionLost installs the credential re-entry hook.
func (c *CLIChannel) OnConnectionLost(fn ReconnectFunc) {
	c.reconnect = fn
}

// Prompter returns a prompter sharing the channel's input buffer.
func (c *CLIChannel) Prompter() cmdutils.Prompter {
	return cmdutils.NewPrompter(c.in, c.out, c.fd)
}

func (c *CLIChannel) Name() string { return string(bus.ChannelCLI) }

// Start runs the REPL until ctx is cancelled, stdin is closed or the user
// types an exit command.
func (c *CLIChannel) Start(ctx context.Context) error {
	fmt.Fprintf(c.out, "snowwise ready. Type 'exit' or press Ctrl+C to quit, /help for commands.\n\n")

	type readResult struct {
		line string
		err  error
	}

	for {
		fmt.Fprint(c.out, "You: ")

		read := make(chan readResult, 1)
		go func() {
			line, err := c.in.ReadString('\n')
			read <- readResult{line, err}
		}()

		var res readResult
		select {
		case res = <-read:
		case <-ctx.Done():
			return ctx.Err()
		}
		if res.err != nil && (res.err != io.EOF || res.line == "") {
			fmt.Fprintln(c.out, "\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(res.line)
		if line == "" {
			continue
		}
		if cliExitCommands[strings.ToLower(line)] {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}

		c.HandleMessage(bus.SenderIdCLI, c.chatId, line, nil)
		lost := c.waitForReply(ctx)
		if lost && c.reconnect != nil {
			if err := c.reconnect(ctx, c.Prompter()); err != nil {
				slog.Error("reconnect failed", "err", err)
				fmt.Fprintf(c.out, "Could not reconnect: %v\n", err)
			}
		}
	}
}

// waitForReply prints progress lines until the final reply of the turn
// arrives, then prints it. It reports whether the turn lost the warehouse
// connection.
func (c *CLIChannel) waitForReply(ctx context.Context) bool {
	for {
		select {
		case msg := <-c.console.Subscribe():
			if msg.IsProgress() {
				cmdutils.PrintProgress(msg.Content())
				continue
			}
			cmdutils.PrintResponse(msg.Content())
			return msg.ConnectionLost()
		case <-ctx.Done():
			return false
		}
	}
}

// Send delivers an outbound agent reply to the CLI by publishing it onto the
// console bus. The Start loop drains the console bus and prints to stdout.
func (c *CLIChannel) Send(_ context.Context, msg bus.ChannelMessage) error {
	c.console.Publish(msg)
	return nil
}
