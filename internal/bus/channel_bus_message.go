package bus

// MetaProgress marks an outbound message as an intermediate step rather
// than the final reply of a turn.
const MetaProgress = "_progress"

// MetaConnectionLost is set on a reply whose turn failed because the
// warehouse session is gone; the terminal channel asks for credentials again.
const MetaConnectionLost = "_connection_lost"

// ChannelMessage is a reply or progress line to be sent through a channel.
type ChannelMessage struct {
	channel  Channel
	chatId   string
	content  string
	replyTo  string         // original message ID to quote/reply to (optional)
	metadata map[string]any // channel-specific hints (thread_ts, _progress, …)
}

func (m ChannelMessage) Channel() Channel         { return m.channel }
func (m ChannelMessage) ChatId() string           { return m.chatId }
func (m ChannelMessage) Content() string          { return m.content }
func (m ChannelMessage) ReplyTo() string          { return m.replyTo }
func (m ChannelMessage) Metadata() map[string]any { return m.metadata }

// IsProgress reports whether m is an intermediate step.
func (m ChannelMessage) IsProgress() bool {
	p, _ := m.metadata[MetaProgress].(bool)
	return p
}

// ConnectionLost reports whether the turn failed on a lost warehouse session.
func (m ChannelMessage) ConnectionLost() bool {
	v, _ := m.metadata[MetaConnectionLost].(bool)
	return v
}

func NewChannelMessage(channel Channel, chatId, content string) ChannelMessage {
	return ChannelMessage{
		channel: channel,
		chatId:  chatId,
		content: content,
	}
}

type ChannelMessageBuilder struct {
	channel  Channel
	chatId   string
	content  string
	replyTo  string
	metadata map[string]any
}

func NewChannelMessageBuilder(channel Channel, chatId, content string) *ChannelMessageBuilder {
	return &ChannelMessageBuilder{
		channel: channel,
		chatId:  chatId,
		content: content,
	}
}

func (b *ChannelMessageBuilder) ReplyTo(id string) *ChannelMessageBuilder {
	b.replyTo = id
	return b
}

// Metadata merges md into the message metadata.
func (b *ChannelMessageBuilder) Metadata(md map[string]any) *ChannelMessageBuilder {
	if b.metadata == nil {
		b.metadata = make(map[string]any, len(md))
	}
	for k, v := range md {
		b.metadata[k] = v
	}
	return b
}

// Progress marks the message as an intermediate step.
func (b *ChannelMessageBuilder) Progress() *ChannelMessageBuilder {
	return b.Metadata(map[string]any{MetaProgress: true})
}

func (b *ChannelMessageBuilder) Build() ChannelMessage {
	return ChannelMessage{
		channel:  b.channel,
		chatId:   b.chatId,
		content:  b.content,
		replyTo:  b.replyTo,
		metadata: b.metadata,
	}
}
