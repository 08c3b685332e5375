// Package bus defines the message types that flow between channels and the agent.
package bus

import "time"

const SenderIdCLI string = "user"

// AgentBusMessage is a user utterance received from a channel.
type AgentBusMessage struct {
	channel    Channel
	chatId     string // chat / channel / DM identifier
	senderId   string // user identifier within the channel
	routingKey string // optional override; empty means derive from channel:chatId
	content    string
	timestamp  time.Time
	metadata   map[string]any // channel-specific extra data (thread_ts, message_id, …)
}

// NewAgentBusMessage creates a message with Timestamp set to now.
// routingKey overrides the default "channel:chatId" session key; pass "" to use the default.
func NewAgentBusMessage(channel Channel, senderId, chatId, content, routingKey string) AgentBusMessage {
	return AgentBusMessage{
		channel:    channel,
		senderId:   senderId,
		chatId:     chatId,
		content:    content,
		routingKey: routingKey,
		timestamp:  time.Now(),
	}
}

func (m AgentBusMessage) ChatId() string                 { return m.chatId }
func (m AgentBusMessage) SenderId() string               { return m.senderId }
func (m AgentBusMessage) Content() string                { return m.content }
func (m AgentBusMessage) Channel() Channel               { return m.channel }
func (m AgentBusMessage) Timestamp() time.Time           { return m.timestamp }
func (m AgentBusMessage) Metadata() map[string]any       { return m.metadata }
func (m *AgentBusMessage) SetMetadata(md map[string]any) { m.metadata = md }

// RoutingKey returns the key of the session this message belongs to.
func (m AgentBusMessage) RoutingKey() string {
	if m.routingKey != "" {
		return m.routingKey
	}
	return RoutingKey(m.channel, m.chatId)
}

// Preview returns a short snippet of the content for logging.
func (m AgentBusMessage) Preview() string {
	r := []rune(m.content)
	if len(r) > 80 {
		return string(r[:80]) + "..."
	}
	return m.content
}
