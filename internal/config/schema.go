// Package config defines the configuration schema for snowwise.
//
// The file lives at ~/.snowwise/config.yaml. Keys are camelCase; JSON is
// accepted as well since it is valid YAML.
package config

import (
	"github.com/snowwise/snowwise/internal/config/agent"
	"github.com/snowwise/snowwise/internal/config/channel"
	"github.com/snowwise/snowwise/internal/config/connection"
	"github.com/snowwise/snowwise/internal/config/gateway"
	"github.com/snowwise/snowwise/internal/config/schedule"
	"github.com/snowwise/snowwise/internal/config/tool"
)

// Config is the root configuration object.
type Config struct {
	Warehouse connection.ConnectionConfig `yaml:"warehouse"`
	Agents    agent.AgentsConfig          `yaml:"agents"`
	Tools     tool.ToolsConfig            `yaml:"tools"`
	Channels  channel.ChannelsConfig      `yaml:"channels"`
	Gateway   gateway.GatewayConfig       `yaml:"gateway"`
	Schedules []schedule.ScheduleConfig   `yaml:"schedules"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Warehouse: connection.DefaultConnectionConfig(),
		Agents:    agent.DefaultAgentsConfig(),
		Tools:     tool.DefaultToolConfigs(),
		Channels:  channel.DefaultChannelsConfig(),
		Gateway:   gateway.DefaultGatewayConfig(),
		Schedules: []schedule.ScheduleConfig{},
	}
}
