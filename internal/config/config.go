package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/selsync/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file looked up when
	// no path is given.
	ConfigFileName = "selsync.json"

	// DefaultPort is the default HTTP server port.
	DefaultPort = 7070

	// DefaultHost is the default HTTP server host.
	DefaultHost = "localhost"

	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultSnapshotKey names the stored selection.
	DefaultSnapshotKey = "default"

	// DefaultCacheSize is the number of snapshot keys kept in memory.
	DefaultCacheSize = 64

	// DefaultS3Prefix is the object prefix for S3 snapshots.
	DefaultS3Prefix = "selections/"
)

// Environment variables that override file values.
const (
	EnvPort     = "SELSYNC_PORT"
	EnvLogLevel = "SELSYNC_LOG_LEVEL"
)

// Snapshot store kinds.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreS3     = "s3"
)

// Config represents the selsync configuration.
type Config struct {
	Server    ServerConfig    `json:"server" toml:"server" yaml:"server"`
	Metrics   MetricsConfig   `json:"metrics" toml:"metrics" yaml:"metrics"`
	Log       LogConfig       `json:"log" toml:"log" yaml:"log"`
	Selection SelectionConfig `json:"selection" toml:"selection" yaml:"selection"`
	Snapshot  SnapshotConfig  `json:"snapshot" toml:"snapshot" yaml:"snapshot"`
	Watch     WatchConfig     `json:"watch" toml:"watch" yaml:"watch"`

	// path is the file this configuration was loaded from.
	path string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string   `json:"host,omitempty" toml:"host,omitempty" yaml:"host,omitempty"`
	Port         int      `json:"port,omitempty" toml:"port,omitempty" yaml:"port,omitempty"`
	ReadTimeout  Duration `json:"readTimeout,omitempty" toml:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout Duration `json:"writeTimeout,omitempty" toml:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
}

// MetricsConfig controls the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" toml:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" toml:"path,omitempty" yaml:"path,omitempty"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level,omitempty" toml:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" toml:"format,omitempty" yaml:"format,omitempty"`
}

// SelectionConfig describes the served model selection.
type SelectionConfig struct {
	// Mode is "extended" or "single".
	Mode string `json:"mode,omitempty" toml:"mode,omitempty" yaml:"mode,omitempty"`

	// Options are the items clients may select. Empty means any item.
	Options []string `json:"options,omitempty" toml:"options,omitempty" yaml:"options,omitempty"`

	// Initial is applied at startup when no snapshot is restored.
	Initial []string `json:"initial,omitempty" toml:"initial,omitempty" yaml:"initial,omitempty"`
}

// SnapshotConfig configures selection persistence.
type SnapshotConfig struct {
	Store     string   `json:"store,omitempty" toml:"store,omitempty" yaml:"store,omitempty"`
	Key       string   `json:"key,omitempty" toml:"key,omitempty" yaml:"key,omitempty"`
	CacheSize int      `json:"cacheSize,omitempty" toml:"cacheSize,omitempty" yaml:"cacheSize,omitempty"`
	S3        S3Config `json:"s3" toml:"s3" yaml:"s3"`
}

// S3Config holds the S3 snapshot store settings.
type S3Config struct {
	Bucket       string `json:"bucket,omitempty" toml:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix       string `json:"prefix,omitempty" toml:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region       string `json:"region,omitempty" toml:"region,omitempty" yaml:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty" toml:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty" toml:"usePathStyle,omitempty" yaml:"usePathStyle,omitempty"`
}

// WatchConfig names a selection file mirrored into the model.
type WatchConfig struct {
	File string `json:"file,omitempty" toml:"file,omitempty" yaml:"file,omitempty"`
}

// Duration is a time.Duration written as a string such as "10s".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			ReadTimeout:  Duration(DefaultReadTimeout),
			WriteTimeout: Duration(DefaultWriteTimeout),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Selection: SelectionConfig{
			Mode: "extended",
		},
		Snapshot: SnapshotConfig{
			Store:     StoreNone,
			Key:       DefaultSnapshotKey,
			CacheSize: DefaultCacheSize,
			S3: S3Config{
				Prefix: DefaultS3Prefix,
			},
		},
	}
}

// Load reads the configuration at path. An empty path looks for
// ConfigFileName in the working directory and falls back to defaults
// when it does not exist. Environment overrides are applied and the
// result is validated.
func Load(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		if _, err := os.Stat(ConfigFileName); err != nil {
			cfg = New()
		} else {
			path = ConfigFileName
		}
	}
	if cfg == nil {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from a specific file path. The format is
// chosen by extension: .json, .toml, .yaml or .yml.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail(fmt.Sprintf("No configuration file at %s", path)).
				WithSuggestion("Run 'selsync serve' without --config to use defaults")
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}

	cfg.path = path
	cfg.applyDefaults()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
		var serr *json.SyntaxError
		if stderrors.As(err, &serr) {
			line, col := position(data, serr.Offset)
			return errors.New("E101").WithLocation(path, line, col).Wrap(err)
		}
	case ".toml":
		err = toml.Unmarshal(data, cfg)
		var derr *toml.DecodeError
		if stderrors.As(err, &derr) {
			line, col := derr.Position()
			return errors.New("E101").WithLocation(path, line, col).Wrap(err)
		}
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
		if line := yamlLine(err); line > 0 {
			return errors.New("E101").WithLocation(path, line, 0).Wrap(err)
		}
	default:
		return errors.New("E102").WithDetail(fmt.Sprintf("Cannot read %s", path))
	}
	if err != nil {
		return errors.New("E101").Wrap(err)
	}
	return nil
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	head := data[:offset]
	line := bytes.Count(head, []byte("\n")) + 1
	col := int(offset) - bytes.LastIndexByte(head, '\n')
	return line, col
}

// yamlLine extracts the line from "yaml: line N: ..." messages.
func yamlLine(err error) int {
	if err == nil {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr != nil {
		return 0
	}
	return line
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to path, using the format implied by its
// extension.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	case ".toml":
		data, err = toml.Marshal(c)
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.New("E102").WithDetail(fmt.Sprintf("Cannot write %s", path))
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	c.path = path
	return nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Selection.Mode == "" {
		c.Selection.Mode = "extended"
	}
	if c.Snapshot.Store == "" {
		c.Snapshot.Store = StoreNone
	}
	if c.Snapshot.Key == "" {
		c.Snapshot.Key = DefaultSnapshotKey
	}
	if c.Snapshot.S3.Prefix == "" {
		c.Snapshot.S3.Prefix = DefaultS3Prefix
	}
}

// ApplyEnv overrides values from the environment through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("E111").
				WithDetail(fmt.Sprintf("%s=%q is not a number", EnvPort, v)).
				Wrap(err)
		}
		c.Server.Port = port
	}
	if v := getenv(EnvLogLevel); v != "" {
		if _, ok := parseLevel(v); !ok {
			return errors.New("E111").
				WithDetail(fmt.Sprintf("%s=%q is not a log level", EnvLogLevel, v)).
				WithSuggestion("Use debug, info, warn or error")
		}
		c.Log.Level = v
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("E103").WithDetail(fmt.Sprintf("Port %d is out of range", c.Server.Port))
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E104").WithDetail(fmt.Sprintf("Got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E105").WithDetail(fmt.Sprintf("Got %q", c.Log.Format))
	}
	switch c.Selection.Mode {
	case "extended", "single":
	default:
		return errors.New("E106").WithDetail(fmt.Sprintf("Got %q", c.Selection.Mode))
	}
	switch c.Snapshot.Store {
	case StoreNone, StoreMemory:
	case StoreS3:
		if c.Snapshot.S3.Bucket == "" {
			return errors.New("E108").WithSuggestion("Set snapshot.s3.bucket")
		}
	default:
		return errors.New("E107").WithDetail(fmt.Sprintf("Got %q", c.Snapshot.Store))
	}
	if c.Snapshot.CacheSize < 0 {
		return errors.New("E109").WithDetail(fmt.Sprintf("Got %d", c.Snapshot.CacheSize))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("E110").WithDetail(fmt.Sprintf("Got %q", c.Metrics.Path))
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, false
	}
	return level, true
}
