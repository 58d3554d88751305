// Package config loads server settings from flags, MCW_* environment
// variables and an optional mcw.yaml file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "MCW"

type Config struct {
	Port             int
	DBPath           string
	LogLevel         string
	LogFormat        string
	Timezone         string
	IdentityHeader   string
	PortalOrigins    []string
	WebSocketOrigins []string
	Backup           Backup

	loc *time.Location
}

// Backup configures encrypted database snapshots. Interval zero disables
// scheduled backups in serve.
type Backup struct {
	Dir         string
	Passphrase  string
	Interval    time.Duration
	S3Endpoint  string
	S3Bucket    string
	S3Region    string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"port":       "port",
	"db-path":    "db_path",
	"log-level":  "log_level",
	"log-format": "log_format",
	"timezone":   "timezone",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("db-path", "mcw.db", "SQLite database path")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text, json)")
	fs.String("timezone", "UTC", "practice timezone for times sent without an offset")
}

// Load resolves the configuration. flags may be nil. An explicit file must
// exist; otherwise mcw.yaml in the working directory is read if present.
func Load(flags *pflag.FlagSet, file string) (*Config, error) {
	v := viper.New()
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "mcw.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("identity_header", "X-User-Id")
	v.SetDefault("portal_origins", []string{})
	v.SetDefault("ws_origins", []string{})
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.interval", "0s")
	v.SetDefault("backup.s3_region", "us-east-1")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// nested keys without a default are invisible to AutomaticEnv
	for _, key := range []string{"backup.passphrase", "backup.s3_endpoint", "backup.s3_bucket", "backup.s3_prefix", "backup.s3_access_key", "backup.s3_secret_key"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("mcw")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Port:             v.GetInt("port"),
		DBPath:           v.GetString("db_path"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
		Timezone:         v.GetString("timezone"),
		IdentityHeader:   v.GetString("identity_header"),
		PortalOrigins:    stringList(v, "portal_origins"),
		WebSocketOrigins: stringList(v, "ws_origins"),
		Backup: Backup{
			Dir:         v.GetString("backup.dir"),
			Passphrase:  v.GetString("backup.passphrase"),
			Interval:    v.GetDuration("backup.interval"),
			S3Endpoint:  v.GetString("backup.s3_endpoint"),
			S3Bucket:    v.GetString("backup.s3_bucket"),
			S3Region:    v.GetString("backup.s3_region"),
			S3Prefix:    v.GetString("backup.s3_prefix"),
			S3AccessKey: v.GetString("backup.s3_access_key"),
			S3SecretKey: v.GetString("backup.s3_secret_key"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path is required")
	}
	if c.Backup.Interval < 0 {
		return fmt.Errorf("invalid backup interval %s", c.Backup.Interval)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.loc = loc
	return nil
}

// Location returns the practice timezone.
func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// stringList reads a list from YAML or from a comma-separated env value.
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case string:
		raw = strings.Split(val, ",")
	default:
		raw = v.GetStringSlice(key)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
