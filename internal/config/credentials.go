package config

import (
	"github.com/snowwise/snowwise/internal/schema"
	"github.com/snowwise/snowwise/internal/warehouse"
)

// Credentials returns the warehouse credentials described by the config.
func (c *Config) Credentials() warehouse.Credentials {
	w := c.Warehouse
	return warehouse.Credentials{
		Driver:       w.Driver,
		Account:      w.Account,
		User:         w.User,
		Password:     w.Password,
		Warehouse:    w.Warehouse,
		Role:         w.Role,
		Database:     w.Database,
		Schema:       w.Schema,
		Path:         w.Path,
		QueryTimeout: w.QueryTimeout,
	}
}

// AgentSettings returns the agent loop settings described by the config.
func (c *Config) AgentSettings() schema.AgentSettings {
	d := c.Agents.Defaults
	return schema.NewAgentSettings(d.Model, d.MaxSteps, d.MemoryWindow, c.Tools.ReadOnly, d.CompletionTimeout)
}

// Target is a short description of the configured warehouse for status output.
func (c *Config) Target() string {
	w := c.Warehouse
	if w.Driver == warehouse.DriverSQLite {
		return "sqlite:" + w.Path
	}
	if w.Account == "" {
		return "snowflake (account not configured)"
	}
	return "snowflake://" + w.User + "@" + w.Account + "/" + w.Database + "." + w.Schema + " warehouse=" + w.Warehouse + " role=" + w.Role
}
