// Package config loads the server configuration from config.yaml,
// INKBOARD_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every environment override, e.g. INKBOARD_SERVER_PORT.
const EnvPrefix = "INKBOARD"

// AppConfig is the top-level configuration structure.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Scene   SceneConfig   `mapstructure:"scene"`
	Session SessionConfig `mapstructure:"session"`
	Board   BoardConfig   `mapstructure:"board"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port                 int    `mapstructure:"port"`
	BindAddress          string `mapstructure:"bind_address"`
	ReadTimeout          int    `mapstructure:"read_timeout_seconds"`
	WriteTimeout         int    `mapstructure:"write_timeout_seconds"`
	IdleTimeout          int    `mapstructure:"idle_timeout_seconds"`
	BodyLimit            string `mapstructure:"body_limit"`
	EnableCORS           bool   `mapstructure:"enable_cors"`
	AllowOrigins         string `mapstructure:"allow_origins"`
	Development          bool   `mapstructure:"development"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`
	EnableCompression    bool   `mapstructure:"enable_compression"`
	CompressionLevel     int    `mapstructure:"compression_level"`
}

// StorageConfig contains drawing asset storage settings.
type StorageConfig struct {
	DataDirectory    string `mapstructure:"data_directory"`
	PresetsDirectory string `mapstructure:"presets_directory"`
	// AllowWrites exposes upload and delete of drawing assets over HTTP.
	AllowWrites bool `mapstructure:"allow_writes"`
}

// SceneConfig points at the scene definition.
type SceneConfig struct {
	File string `mapstructure:"file"`
}

// SessionConfig contains board session limits.
type SessionConfig struct {
	MaxSessions            int `mapstructure:"max_sessions"`
	TimeoutMinutes         int `mapstructure:"timeout_minutes"`
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes"`
	FrameIntervalMs        int `mapstructure:"frame_interval_ms"`
}

// BoardConfig contains whiteboard geometry settings.
type BoardConfig struct {
	MobileBreakpointPx  float64 `mapstructure:"mobile_breakpoint_px"`
	LayoutAspectRatio   float64 `mapstructure:"layout_aspect_ratio"`
	MinStrokeDistancePx float64 `mapstructure:"min_stroke_distance_px"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Directory  string `mapstructure:"directory"`
	FileOutput bool   `mapstructure:"file_output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8089)
	v.SetDefault("server.bind_address", "0.0.0.0")
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 120)
	v.SetDefault("server.body_limit", "16M")
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("server.development", false)
	v.SetDefault("server.enable_request_logging", true)
	v.SetDefault("server.enable_compression", true)
	v.SetDefault("server.compression_level", 5)

	// Storage defaults
	v.SetDefault("storage.data_directory", "./data")
	v.SetDefault("storage.presets_directory", "./data/presets")
	v.SetDefault("storage.allow_writes", true)

	// Scene defaults
	v.SetDefault("scene.file", "./data/scene.yaml")

	// Session defaults
	v.SetDefault("session.max_sessions", 64)
	v.SetDefault("session.timeout_minutes", 30)
	v.SetDefault("session.cleanup_interval_minutes", 5)
	v.SetDefault("session.frame_interval_ms", 16)

	// Board defaults
	v.SetDefault("board.mobile_breakpoint_px", 768.0)
	v.SetDefault("board.layout_aspect_ratio", 1.6)
	v.SetDefault("board.min_stroke_distance_px", 2.0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.file_output", true)
	v.SetDefault("logging.max_size", 10)   // MB
	v.SetDefault("logging.max_backups", 3) // files
	v.SetDefault("logging.max_age", 7)     // days
	v.SetDefault("logging.compress", true)
}

// Loader reads and re-reads the configuration.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader. An explicit configPath wins over the search
// path of ./config and the working directory. Flags, if given, are bound
// under their own names, e.g. --server.port.
func NewLoader(configPath string, flags *pflag.FlagSet) (*Loader, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}
	return &Loader{v: v}, nil
}

// Load reads the configuration file, if any. A missing file is not an
// error; defaults and environment variables are used instead.
func (l *Loader) Load() (*AppConfig, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*AppConfig, error) {
	var cfg AppConfig
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.applyFloors()
	return &cfg, nil
}

// ConfigFile returns the file in use, or "" when running on defaults.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the configuration whenever the file changes and hands the
// new value to fn.
func (l *Loader) Watch(log *zap.Logger, fn func(*AppConfig)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading", zap.String("file", e.Name))
		cfg, err := l.decode()
		if err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		fn(cfg)
	})
	l.v.WatchConfig()
}

// Load is a shortcut for NewLoader(configPath, nil).Load().
func Load(configPath string) (*AppConfig, error) {
	l, err := NewLoader(configPath, nil)
	if err != nil {
		return nil, err
	}
	return l.Load()
}

// applyFloors replaces nonsensical values with defaults.
func (c *AppConfig) applyFloors() {
	if c.Session.FrameIntervalMs <= 0 {
		c.Session.FrameIntervalMs = 16
	}
	if c.Session.CleanupIntervalMinutes <= 0 {
		c.Session.CleanupIntervalMinutes = 5
	}
	if c.Session.TimeoutMinutes <= 0 {
		c.Session.TimeoutMinutes = 30
	}
	if c.Board.LayoutAspectRatio <= 0 {
		c.Board.LayoutAspectRatio = 1.6
	}
}

// GetServerAddr returns the server bind address.
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories.
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.PresetsDirectory,
	}
	if c.Logging.FileOutput {
		dirs = append(dirs, c.Logging.Directory)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ResolvePath makes p absolute relative to the directory of the config
// file in use, leaving absolute paths alone.
func (l *Loader) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || l.ConfigFile() == "" {
		return p
	}
	return filepath.Join(filepath.Dir(l.ConfigFile()), p)
}
