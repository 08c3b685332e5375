package connection

import "time"

const (
	DriverSnowflake = "snowflake"
	DriverSQLite    = "sqlite"
)

// ConnectionConfig identifies the warehouse session. Empty credential
// fields are prompted for by the interactive shell.
type ConnectionConfig struct {
	Driver    string `yaml:"driver"`
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password,omitempty"`
	Warehouse string `yaml:"warehouse"`
	Role      string `yaml:"role"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	// Path is the database file for the sqlite driver.
	Path         string        `yaml:"path,omitempty"`
	QueryTimeout time.Duration `yaml:"queryTimeout"`
	CacheTTL     time.Duration `yaml:"cacheTTL"`
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Driver:       DriverSnowflake,
		Database:     "SNOWFLAKE",
		Schema:       "ACCOUNT_USAGE",
		QueryTimeout: 5 * time.Minute,
		CacheTTL:     5 * time.Hour,
	}
}
