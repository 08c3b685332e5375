package bus

import (
	"context"
	"testing"
	"time"
)

func TestRoutingKey(t *testing.T) {
	if got := RoutingKey(ChannelSlack, "C123"); got != "slack:C123" {
		t.Errorf("RoutingKey = %q", got)
	}
	if got := RoutingKey(ChannelCLI, ""); got != "cli" {
		t.Errorf("RoutingKey without chat = %q", got)
	}
	ch, chat := ParseRoutingKey("telegram:42:extra")
	if ch != ChannelTelegram || chat != "42:extra" {
		t.Errorf("ParseRoutingKey = %q, %q", ch, chat)
	}
}

func TestAgentBusMessage_RoutingKeyOverride(t *testing.T) {
	msg := NewAgentBusMessage(ChannelCron, "cron", "daily", "report", "cron:daily")
	if msg.RoutingKey() != "cron:daily" {
		t.Errorf("RoutingKey = %q", msg.RoutingKey())
	}
	msg = NewAgentBusMessage(ChannelSlack, "U1", "C1", "hi", "")
	if msg.RoutingKey() != "slack:C1" {
		t.Errorf("default RoutingKey = %q", msg.RoutingKey())
	}
}

func TestChannelMessageBuilder_Progress(t *testing.T) {
	msg := NewChannelMessageBuilder(ChannelSlack, "C1", "sql_db_schema(\"T\")").
		Metadata(map[string]any{"thread_ts": "1.2"}).
		Progress().
		Build()
	if !msg.IsProgress() {
		t.Fatal("expected progress message")
	}
	if msg.Metadata()["thread_ts"] != "1.2" {
		t.Errorf("thread_ts lost: %v", msg.Metadata())
	}
	if NewChannelMessage(ChannelSlack, "C1", "done").IsProgress() {
		t.Error("plain message reported as progress")
	}
}

func TestAgentBus_PublishContext(t *testing.T) {
	b := NewAgentBus(1)
	if err := b.PublishContext(context.Background(), NewAgentBusMessage(ChannelCLI, "u", "d", "a", "")); err != nil {
		t.Fatalf("first publish: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.PublishContext(ctx, NewAgentBusMessage(ChannelCLI, "u", "d", "b", "")); err == nil {
		t.Fatal("expected error on full bus")
	}

	got := <-b.Subscribe()
	if got.Content() != "a" {
		t.Errorf("got %q", got.Content())
	}
}
