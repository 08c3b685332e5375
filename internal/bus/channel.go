package bus

// Channel names a chat surface. Scheduled analyses publish under ChannelCron.
type Channel string

const (
	ChannelCLI       Channel = "cli"
	ChannelSlack     Channel = "slack"
	ChannelTelegram  Channel = "telegram"
	ChannelWebSocket Channel = "websocket"
	ChannelCron      Channel = "cron"
)

type ChatId string

const (
	ChatIdDirect ChatId = "direct"
)
