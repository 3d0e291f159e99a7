package store

import (
	"time"

	"github.com/loykin/rnpdno/internal/retry"
	"github.com/loykin/rnpdno/internal/store/file"
	"github.com/loykin/rnpdno/internal/store/mongodb"
	"github.com/loykin/rnpdno/internal/store/postgresql"
	"github.com/loykin/rnpdno/internal/store/sqlite"
)

// Config selects and configures the template store driver.
// Only the section matching Driver is used.
type Config struct {
	Driver      string            `mapstructure:"driver" yaml:"driver"`
	TablePrefix string            `mapstructure:"table_prefix" yaml:"table_prefix"`
	Mongo       mongodb.Config    `mapstructure:"mongo" yaml:"mongo"`
	SQLite      sqlite.Config     `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres    postgresql.Config `mapstructure:"postgres" yaml:"postgres"`
	File        file.Config       `mapstructure:"file" yaml:"file"`
	// Timeout bounds every store operation; zero means DefaultStoreTimeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Retry overrides the read retry policy; nil means retry.DefaultRetryConfig.
	Retry *retry.Config `mapstructure:"-" yaml:"-"`
}
