package bus

// ConsoleBus carries agent output to the terminal REPL. It is kept apart
// from ChannelBus so the channel manager never drains terminal output.
type ConsoleBus struct {
	ch chan ChannelMessage
}

func NewConsoleBus(bufSize int) *ConsoleBus {
	return &ConsoleBus{ch: make(chan ChannelMessage, bufSize)}
}

// Publish delivers a reply or progress line to the REPL.
func (b *ConsoleBus) Publish(msg ChannelMessage) {
	b.ch <- msg
}

// Subscribe returns a receive-only view of the console channel.
func (b *ConsoleBus) Subscribe() <-chan ChannelMessage {
	return b.ch
}
