package bus

// ChannelBus carries replies and progress lines from the agent to the
// channel manager, which routes them to the right channel.
type ChannelBus struct {
	ch chan ChannelMessage
}

func NewChannelBus(bufSize int) *ChannelBus {
	return &ChannelBus{ch: make(chan ChannelMessage, bufSize)}
}

// Publish hands msg to the channel manager.
func (b *ChannelBus) Publish(msg ChannelMessage) {
	b.ch <- msg
}

// Subscribe returns a receive-only view of the outbound channel.
func (b *ChannelBus) Subscribe() <-chan ChannelMessage {
	return b.ch
}
