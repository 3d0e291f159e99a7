package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/config"
	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/httpc"
	"github.com/loykin/rnpdno/internal/scraper"
	"github.com/loykin/rnpdno/internal/store"
	"github.com/loykin/rnpdno/internal/util"
	"github.com/spf13/viper"
)

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`                   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"`                 // text, json
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"` // enable/disable sensitive data masking
}

type ClientConfig struct {
	Insecure          bool    `mapstructure:"insecure" yaml:"insecure"`
	MinTLSVersion     string  `mapstructure:"min_tls_version" yaml:"min_tls_version"`
	MaxTLSVersion     string  `mapstructure:"max_tls_version" yaml:"max_tls_version"`
	UserAgent         string  `mapstructure:"user_agent" yaml:"user_agent"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
	// Timeout bounds every dashboard request, e.g. "30s".
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

type WaitConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Method   string `mapstructure:"method" yaml:"method"`
	Status   int    `mapstructure:"status" yaml:"status"`
	Timeout  string `mapstructure:"timeout" yaml:"timeout"`
	Interval string `mapstructure:"interval" yaml:"interval"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// ConfigDoc is the rnpdno configuration file. Store settings are optional:
// without store.driver the scraper reads SCRAPPER_* variables instead.
type ConfigDoc struct {
	Store   store.Config          `mapstructure:"store" yaml:"store"`
	Client  ClientConfig          `mapstructure:"client" yaml:"client"`
	Logging LoggingConfig         `mapstructure:"logging" yaml:"logging"`
	Wait    WaitConfig            `mapstructure:"wait" yaml:"wait"`
	Serve   ServeConfig           `mapstructure:"serve" yaml:"serve"`
	WarmUp  []scraper.TemplateRef `mapstructure:"warm_up" yaml:"warm_up"`
	// Env is exported as process variables, e.g. SCRAPPER_MONGO_HOST.
	Env map[string]string `mapstructure:"env" yaml:"env"`
}

func defaultConfigDoc() ConfigDoc {
	mask := true
	return ConfigDoc{
		Client: ClientConfig{
			UserAgent:         constants.DefaultUserAgent,
			RequestsPerSecond: constants.DefaultRequestsPerSecond,
			Burst:             constants.DefaultBurst,
			Timeout:           constants.DefaultRequestTimeout.String(),
		},
		Logging: LoggingConfig{Level: "info", Format: "text", MaskSensitive: &mask},
		Wait: WaitConfig{
			Method:   constants.DefaultWaitMethod,
			Status:   constants.DefaultWaitStatus,
			Timeout:  constants.DefaultWaitTimeout.String(),
			Interval: constants.DefaultWaitInterval.String(),
		},
		Serve: ServeConfig{Addr: ":8080"},
	}
}

// localPath returns "<name>.local.<ext>" for "<name>.<ext>".
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// LoadConfigDoc reads path through v, merges an optional "<name>.local.<ext>"
// override next to it and fills unset fields with defaults. An empty path
// yields the defaults.
func LoadConfigDoc(v *viper.Viper, path string) (ConfigDoc, error) {
	var doc ConfigDoc
	if p, ok := util.TrimEmptyCheck(path); ok {
		clean := filepath.Clean(p)
		if info, err := os.Stat(clean); err != nil {
			return doc, err
		} else if !info.Mode().IsRegular() {
			return doc, fmt.Errorf("not a regular file: %s", clean)
		}
		v.SetConfigFile(clean)
		if err := v.ReadInConfig(); err != nil {
			return doc, fmt.Errorf("read config %s: %w", clean, err)
		}
		if err := v.Unmarshal(&doc); err != nil {
			return doc, fmt.Errorf("decode config %s: %w", clean, err)
		}

		local := localPath(clean)
		if _, err := os.Stat(local); err == nil {
			lv := viper.New()
			lv.SetConfigFile(local)
			if err := lv.ReadInConfig(); err != nil {
				return doc, fmt.Errorf("read config %s: %w", local, err)
			}
			var override ConfigDoc
			if err := lv.Unmarshal(&override); err != nil {
				return doc, fmt.Errorf("decode config %s: %w", local, err)
			}
			if err := mergo.Merge(&doc, override, mergo.WithOverride); err != nil {
				return doc, err
			}
			slog.Info("merging config with local overrides", "local", local)
		}
	}
	if err := mergo.Merge(&doc, defaultConfigDoc()); err != nil {
		return doc, err
	}
	return doc, nil
}

// SetupLogging installs the default logger described by the logging section.
func (c *ConfigDoc) SetupLogging() error {
	level, ok := common.ParseLogLevel(util.TrimAndLower(c.Logging.Level))
	if !ok {
		return fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", c.Logging.Level)
	}
	if c.Logging.MaskSensitive != nil {
		common.EnableMasking(*c.Logging.MaskSensitive)
	}
	switch util.TrimAndLower(c.Logging.Format) {
	case "json":
		common.SetDefaultLogger(common.NewJSONLogger(level))
	case "text", "":
		common.SetDefaultLogger(common.NewLoggerTo(os.Stderr, level, false))
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json)", c.Logging.Format)
	}
	return nil
}

// ApplyEnv exports the env section as process variables so the scraper's
// SCRAPPER_* loading sees them. Variables already set in the process win.
func (c *ConfigDoc) ApplyEnv() error {
	for _, k := range util.SortedKeys(c.Env) {
		name := strings.ToUpper(strings.TrimSpace(k))
		if name == "" {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, c.Env[k]); err != nil {
			return err
		}
	}
	return nil
}

func parseTLSVersion(s string) uint16 {
	switch util.TrimAndLower(s) {
	case "1.0", "10", "tls1.0", "tls10":
		return tls.VersionTLS10
	case "1.1", "11", "tls1.1", "tls11":
		return tls.VersionTLS11
	case "1.2", "12", "tls1.2", "tls12":
		return tls.VersionTLS12
	case "1.3", "13", "tls1.3", "tls13":
		return tls.VersionTLS13
	}
	return 0
}

func parseDuration(s string, def time.Duration) time.Duration {
	if v, ok := util.TrimEmptyCheck(s); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// HTTP builds the dashboard client settings.
func (c *ClientConfig) HTTP() httpc.Httpc {
	h := httpc.Httpc{
		Timeout:           parseDuration(c.Timeout, constants.DefaultRequestTimeout),
		UserAgent:         c.UserAgent,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}
	minV, maxV := parseTLSVersion(c.MinTLSVersion), parseTLSVersion(c.MaxTLSVersion)
	if c.Insecure || minV != 0 || maxV != 0 {
		// #nosec G402 -- insecure mode is an explicit opt-in for test dashboards
		h.TlsConfig = &tls.Config{MinVersion: minV, MaxVersion: maxV, InsecureSkipVerify: c.Insecure}
	}
	return h
}

// ScraperOptions turns the document into scraper options.
func (c *ConfigDoc) ScraperOptions() []scraper.Option {
	var readerOpts []config.Option
	if _, ok := util.TrimEmptyCheck(c.Store.Driver); ok {
		readerOpts = append(readerOpts, config.WithStoreConfig(c.Store))
	}
	opts := []scraper.Option{
		scraper.WithHTTP(c.Client.HTTP()),
		scraper.WithRequestTimeout(parseDuration(c.Client.Timeout, constants.DefaultRequestTimeout)),
		scraper.WithReader(config.NewReader(readerOpts...)),
	}
	if len(c.WarmUp) > 0 {
		opts = append(opts, scraper.WithWarmUp(c.WarmUp...))
	}
	return opts
}
