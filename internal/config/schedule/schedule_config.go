package schedule

// ScheduleConfig is one recurring analysis: Message is sent to the agent on
// every tick of Cron and the answer is delivered to Channel/ChatID.
type ScheduleConfig struct {
	Name    string `yaml:"name"`
	Cron    string `yaml:"cron"`
	TZ      string `yaml:"tz,omitempty"`
	Message string `yaml:"message"`
	Channel string `yaml:"channel"`
	ChatID  string `yaml:"chatId"`
}
