package gateway

import "time"

// GatewayConfig holds gateway server settings. The websocket channel is
// served on this address.
type GatewayConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Heartbeat is the warehouse ping interval; zero disables it.
	Heartbeat time.Duration `yaml:"heartbeat"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{Host: "127.0.0.1", Port: 18790, Heartbeat: 30 * time.Minute}
}
