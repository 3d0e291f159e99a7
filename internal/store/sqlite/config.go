package sqlite

import "fmt"

// SQLite configuration constants
const (
	busyTimeoutMS    = 5000 // 5 seconds in milliseconds
	foreignKeysParam = "_fk=1"
)

type Config struct {
	Path        string `mapstructure:"path" yaml:"path"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	TablePrefix string `mapstructure:"table_prefix" yaml:"table_prefix"`
}

// dsn prefers an explicit DSN, then a file path, then an in-memory database.
func (c Config) dsn() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Path != "" {
		return fmt.Sprintf("file:%s?_busy_timeout=%d&%s", c.Path, busyTimeoutMS, foreignKeysParam)
	}
	return ":memory:"
}
