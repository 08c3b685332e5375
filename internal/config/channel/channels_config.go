package channel

type ChannelsConfig struct {
	// SendProgress forwards intermediate agent steps to chat channels.
	SendProgress bool            `yaml:"sendProgress"`
	Telegram     TelegramConfig  `yaml:"telegram"`
	Slack        SlackConfig     `yaml:"slack"`
	WebSocket    WebSocketConfig `yaml:"websocket"`
}

func DefaultChannelsConfig() ChannelsConfig {
	return ChannelsConfig{
		SendProgress: true,
		Telegram:     DefaultTelegramConfig(),
		Slack:        DefaultSlackConfig(),
		WebSocket:    DefaultWebSocketConfig(),
	}
}
