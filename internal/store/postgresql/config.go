package postgresql

import (
	"fmt"
	"net/url"

	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/util"
)

type Config struct {
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	Host        string `mapstructure:"host" yaml:"host"`
	Port        int    `mapstructure:"port" yaml:"port"`
	User        string `mapstructure:"user" yaml:"user"`
	Password    string `mapstructure:"password" yaml:"password"`
	DBName      string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode     string `mapstructure:"sslmode" yaml:"sslmode"`
	TablePrefix string `mapstructure:"table_prefix" yaml:"table_prefix"`
}

// ToDSN prefers an explicit DSN; otherwise it builds one from components when host is provided.
func (p Config) ToDSN() string {
	dsn, hasDSN := util.TrimEmptyCheck(p.DSN)
	if hasDSN {
		return dsn
	}
	host, hasHost := util.TrimEmptyCheck(p.Host)
	if !hasHost {
		return ""
	}
	port := p.Port
	if port == 0 {
		port = constants.DefaultPostgresPort
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     "/" + util.TrimWithDefault(p.DBName, ""),
		RawQuery: "sslmode=" + util.TrimWithDefault(p.SSLMode, constants.DefaultPostgresSSLMode),
	}
	if user, ok := util.TrimEmptyCheck(p.User); ok {
		u.User = url.UserPassword(user, p.Password)
	}
	return u.String()
}
