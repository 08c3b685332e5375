package channel

// WebSocketConfig configures the browser chat endpoint served by the gateway.
type WebSocketConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// AllowOrigins lists accepted Origin headers; empty means same host only.
	AllowOrigins []string `yaml:"allowOrigins"`
	// Tokens maps an access token to the user it identifies. Clients present
	// it as "Authorization: Bearer <token>" or "?token=<token>".
	Tokens map[string]string `yaml:"tokens"`
	// AllowFrom restricts access to the users named in Tokens. It has no
	// effect on anonymous clients, which are refused when it is set.
	AllowFrom []string `yaml:"allowFrom"`
}

func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		Path:         "/ws",
		AllowOrigins: []string{},
		Tokens:       map[string]string{},
		AllowFrom:    []string{},
	}
}
