package tool

// ToolsConfig groups all tool-level settings.
type ToolsConfig struct {
	// ReadOnly rejects any statement that could modify the warehouse.
	ReadOnly bool `yaml:"readOnly"`
}

func DefaultToolConfigs() ToolsConfig {
	return ToolsConfig{ReadOnly: true}
}
