// Package config provides configuration management for the dolly agent.
// Configuration starts from defaults, is overlaid by an optional TOML file and
// finally by environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// Default values
	DefaultPort          = 8797
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "auto"
	DefaultDataDir       = ".dolly-agent"
	DefaultOSCLocalPort  = 9999
	DefaultOSCRemoteHost = "127.0.0.1"
	DefaultOSCRemotePort = 9000
	DefaultWatchInterval = 2 // seconds
	DefaultSnapshotKeep  = 50

	// Environment variable names
	EnvPort          = "DOLLY_PORT"
	EnvLogLevel      = "DOLLY_LOG_LEVEL"
	EnvLogFormat     = "DOLLY_LOG_FORMAT"
	EnvDataDir       = "DOLLY_DATA_DIR"
	EnvOSCLocalPort  = "OSC_PORT"
	EnvOSCRemoteHost = "DOLLY_OSC_REMOTE_HOST"
	EnvOSCRemotePort = "DOLLY_OSC_REMOTE_PORT"
	EnvOSCListenPort = "DOLLY_OSC_LISTEN_PORT"
	EnvHeadless      = "DOLLY_HEADLESS"
	EnvWatchDir      = "DOLLY_WATCH_DIR"
	EnvWatchInterval = "DOLLY_WATCH_INTERVAL"
	EnvSnapshotKeep  = "DOLLY_SNAPSHOT_KEEP"

	// File names inside the data directory
	DBFilename     = "dolly.db"
	ConfigFilename = "config.toml"
	LockFilename   = "agent.lock"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	LogFormat() string
	DataDir() string
	DBPath() string
	LockPath() string
	OSCLocalPort() int
	OSCRemoteHost() string
	OSCRemotePort() int
	OSCListenPort() int
	Headless() bool
	WatchDir() string
	WatchInterval() time.Duration
	SnapshotKeep() int
}

// fileConfig mirrors config.toml. Zero values mean "not set".
type fileConfig struct {
	Port      int    `toml:"port"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	DataDir   string `toml:"data_dir"`
	Headless  *bool  `toml:"headless"`
	OSC       struct {
		LocalPort  int    `toml:"local_port"`
		RemoteHost string `toml:"remote_host"`
		RemotePort int    `toml:"remote_port"`
		ListenPort int    `toml:"listen_port"`
	} `toml:"osc"`
	Watch struct {
		Dir             string `toml:"dir"`
		IntervalSeconds int    `toml:"interval_seconds"`
	} `toml:"watch"`
	Snapshots struct {
		Keep int `toml:"keep"`
	} `toml:"snapshots"`
}

// EnvConfig holds the resolved configuration
type EnvConfig struct {
	port          int
	logLevel      string
	logFormat     string
	dataDir       string
	oscLocalPort  int
	oscRemoteHost string
	oscRemotePort int
	oscListenPort int
	headless      bool
	watchDir      string
	watchInterval int
	snapshotKeep  int
	configPath    string
}

// New loads configuration from the default config file location and the
// environment.
func New() (*EnvConfig, error) {
	return Load("")
}

// Load resolves configuration. An explicit path must exist; the default
// <data_dir>/config.toml is optional.
func Load(path string) (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:          DefaultPort,
		logLevel:      DefaultLogLevel,
		logFormat:     DefaultLogFormat,
		dataDir:       defaultDataDir(),
		oscLocalPort:  DefaultOSCLocalPort,
		oscRemoteHost: DefaultOSCRemoteHost,
		oscRemotePort: DefaultOSCRemotePort,
		watchInterval: DefaultWatchInterval,
		snapshotKeep:  DefaultSnapshotKeep,
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.dataDir, ConfigFilename)
	}
	if err := cfg.applyFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) applyFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.configPath = path

	if fc.Port != 0 {
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		c.logFormat = fc.LogFormat
	}
	if fc.DataDir != "" && os.Getenv(EnvDataDir) == "" {
		c.dataDir = fc.DataDir
	}
	if fc.Headless != nil {
		c.headless = *fc.Headless
	}
	if fc.OSC.LocalPort != 0 {
		c.oscLocalPort = fc.OSC.LocalPort
	}
	if fc.OSC.RemoteHost != "" {
		c.oscRemoteHost = fc.OSC.RemoteHost
	}
	if fc.OSC.RemotePort != 0 {
		c.oscRemotePort = fc.OSC.RemotePort
	}
	if fc.OSC.ListenPort != 0 {
		c.oscListenPort = fc.OSC.ListenPort
	}
	if fc.Watch.Dir != "" {
		c.watchDir = fc.Watch.Dir
	}
	if fc.Watch.IntervalSeconds != 0 {
		c.watchInterval = fc.Watch.IntervalSeconds
	}
	if fc.Snapshots.Keep != 0 {
		c.snapshotKeep = fc.Snapshots.Keep
	}
	return nil
}

func (c *EnvConfig) applyEnv() error {
	ints := []struct {
		env string
		dst *int
	}{
		{EnvPort, &c.port},
		{EnvOSCLocalPort, &c.oscLocalPort},
		{EnvOSCRemotePort, &c.oscRemotePort},
		{EnvOSCListenPort, &c.oscListenPort},
		{EnvWatchInterval, &c.watchInterval},
		{EnvSnapshotKeep, &c.snapshotKeep},
	}
	for _, v := range ints {
		raw := os.Getenv(v.env)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", v.env, err)
		}
		*v.dst = n
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.logLevel = ll
	}
	if lf := os.Getenv(EnvLogFormat); lf != "" {
		c.logFormat = lf
	}
	if host := os.Getenv(EnvOSCRemoteHost); host != "" {
		c.oscRemoteHost = host
	}
	if wd := os.Getenv(EnvWatchDir); wd != "" {
		c.watchDir = wd
	}
	if h := os.Getenv(EnvHeadless); h != "" {
		b, err := strconv.ParseBool(h)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		c.headless = b
	}
	return nil
}

func (c *EnvConfig) validate() error {
	ports := []struct {
		name      string
		value     int
		allowZero bool
	}{
		{"port", c.port, false},
		{"osc local port", c.oscLocalPort, false},
		{"osc remote port", c.oscRemotePort, false},
		{"osc listen port", c.oscListenPort, true},
	}
	for _, p := range ports {
		if p.allowZero && p.value == 0 {
			continue
		}
		if p.value < 1 || p.value > 65535 {
			return fmt.Errorf("invalid %s %d: port must be between 1 and 65535", p.name, p.value)
		}
	}
	if c.watchInterval <= 0 {
		return fmt.Errorf("invalid watch interval %d: must be positive", c.watchInterval)
	}
	if c.snapshotKeep < 1 {
		return fmt.Errorf("invalid snapshot retention %d: must be at least 1", c.snapshotKeep)
	}
	switch strings.ToLower(c.logFormat) {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("invalid log format %q: want auto, json or text", c.logFormat)
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

func (c *EnvConfig) LogFormat() string {
	return c.logFormat
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// LockPath returns the single-instance lock file path
func (c *EnvConfig) LockPath() string {
	return filepath.Join(c.dataDir, LockFilename)
}

// ConfigPath returns the config file that was loaded, or empty.
func (c *EnvConfig) ConfigPath() string {
	return c.configPath
}

func (c *EnvConfig) OSCLocalPort() int {
	return c.oscLocalPort
}

func (c *EnvConfig) OSCRemoteHost() string {
	return c.oscRemoteHost
}

func (c *EnvConfig) OSCRemotePort() int {
	return c.oscRemotePort
}

// OSCListenPort returns the inbound OSC port, 0 when disabled
func (c *EnvConfig) OSCListenPort() int {
	return c.oscListenPort
}

func (c *EnvConfig) Headless() bool {
	return c.headless
}

// WatchDir returns the directory polled for exported path files, empty when disabled
func (c *EnvConfig) WatchDir() string {
	return c.watchDir
}

func (c *EnvConfig) WatchInterval() time.Duration {
	return time.Duration(c.watchInterval) * time.Second
}

func (c *EnvConfig) SnapshotKeep() int {
	return c.snapshotKeep
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
