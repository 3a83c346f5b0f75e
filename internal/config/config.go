// Package config loads JoinPilot's YAML configuration file and applies
// environment overrides. Every section mirrors the Config struct of the
// subsystem it configures; defaults come from each subsystem's
// DefaultConfig so the file only needs to state what differs.
package config

import (
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/JoinPilot/internal/database"
	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/filestore"
)

// Duration wraps time.Duration so YAML values like "30s" decode directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid duration "+s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration, or def when unset.
func (d Duration) Std(def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return time.Duration(d)
}

// Config is the root configuration document.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Server      ServerConfig      `yaml:"server"`
	Fetch       FetchConfig       `yaml:"fetch"`
	VirtualRefs VirtualRefsConfig `yaml:"virtual_refs"`
}

// LogConfig configures the zerolog wrapper.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DatabaseConfig configures the backing store connection.
type DatabaseConfig struct {
	Driver          string   `yaml:"driver"` // postgres (default) or mysql
	DSN             string   `yaml:"dsn"`
	DefaultSchema   string   `yaml:"default_schema"`
	MaxConns        int32    `yaml:"max_conns"`
	MinConns        int32    `yaml:"min_conns"`
	MaxConnLifetime Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  Duration `yaml:"connect_timeout"`
	QueryTimeout    Duration `yaml:"query_timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// FetchConfig bounds the row-sampling path.
type FetchConfig struct {
	MaxRows       int `yaml:"max_rows"`        // hard cap on rows per request
	MaxFieldBytes int `yaml:"max_field_bytes"` // truncation threshold for textual values
}

// VirtualRefsConfig locates the optional virtual-reference document.
type VirtualRefsConfig struct {
	// Source is "none" (default), "file", or "object".
	Source string `yaml:"source"`

	// Path is the local file path when Source is "file".
	Path string `yaml:"path"`

	// Object-store coordinates when Source is "object".
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info", Format: "json"},
		Database: DatabaseConfig{Driver: string(database.DriverPostgres)},
		Server:   ServerConfig{Addr: ":8080"},
		Fetch:    FetchConfig{MaxRows: 100, MaxFieldBytes: 2048},
		VirtualRefs: VirtualRefsConfig{
			Source: "none",
		},
	}
}

// Load reads the YAML file at path (when non-empty), applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errs.Wrap(errs.ErrKindNotFound, "config file not found", err)
			}
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "cannot read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "malformed config file", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets deployment environments override the secrets and endpoints
// that should not live in a checked-in file.
func (c *Config) applyEnv() {
	if v := os.Getenv("JOINPILOT_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("JOINPILOT_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("JOINPILOT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("JOINPILOT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("JOINPILOT_REFS_ACCESS_KEY"); v != "" {
		c.VirtualRefs.AccessKey = v
	}
	if v := os.Getenv("JOINPILOT_REFS_SECRET_KEY"); v != "" {
		c.VirtualRefs.SecretKey = v
	}
}

func (c *Config) validate() error {
	switch database.Driver(c.Database.Driver) {
	case database.DriverPostgres, database.DriverMySQL:
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errs.New(errs.ErrKindInvalidInput, "database.dsn is required (or set JOINPILOT_DSN)")
	}
	switch c.VirtualRefs.Source {
	case "", "none", "file", "object":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown virtual_refs.source %q", c.VirtualRefs.Source)
	}
	if c.VirtualRefs.Source == "file" && c.VirtualRefs.Path == "" {
		return errs.New(errs.ErrKindInvalidInput, "virtual_refs.path is required for source=file")
	}
	if c.VirtualRefs.Source == "object" &&
		(c.VirtualRefs.Endpoint == "" || c.VirtualRefs.Bucket == "" || c.VirtualRefs.Key == "") {
		return errs.New(errs.ErrKindInvalidInput,
			"virtual_refs.endpoint, bucket, and key are required for source=object")
	}
	return nil
}

// DatabaseConfig builds the database.Config the drivers consume.
func (c *Config) DatabaseConfig() *database.Config {
	d := database.DefaultConfig(c.Database.DSN)
	d.Driver = database.Driver(c.Database.Driver)
	d.DefaultSchema = c.Database.DefaultSchema
	if c.Database.MaxConns > 0 {
		d.MaxConns = c.Database.MaxConns
	}
	if c.Database.MinConns > 0 {
		d.MinConns = c.Database.MinConns
	}
	d.MaxConnLifetime = c.Database.MaxConnLifetime.Std(d.MaxConnLifetime)
	d.MaxConnIdleTime = c.Database.MaxConnIdleTime.Std(d.MaxConnIdleTime)
	d.ConnectTimeout = c.Database.ConnectTimeout.Std(d.ConnectTimeout)
	d.QueryTimeout = c.Database.QueryTimeout.Std(d.QueryTimeout)
	return d
}

// FilestoreConfig builds the filestore.Config for source=object.
func (c *Config) FilestoreConfig() *filestore.Config {
	fc := filestore.DefaultConfig(c.VirtualRefs.Endpoint, c.VirtualRefs.AccessKey, c.VirtualRefs.SecretKey)
	fc.UseSSL = c.VirtualRefs.UseSSL
	return fc
}
