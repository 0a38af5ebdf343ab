package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds storage, encoder and serving settings.
// Precedence: defaults < YAML file < CLIPGEN_* environment < command flags.
type Config struct {
	// Paths
	StorageRoot string `yaml:"storage_root"` // e.g. ~/.cache/clipgen
	JournalPath string `yaml:"journal_path"` // sqlite run journal; "" = disabled
	MountPoint  string `yaml:"mount_point"`  // FUSE mount for `clipgen mount`

	// Encoder
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFmpegCodec string `yaml:"ffmpeg_codec"` // default libx264

	// Serve
	ListenAddr       string        `yaml:"listen_addr"`
	MaxConns         int           `yaml:"max_conns"`         // 0 = unlimited
	GenerateInterval time.Duration `yaml:"generate_interval"` // minimum spacing of POST /generate
	GenerateOnStart  bool          `yaml:"generate_on_start"` // serve/mount: generate when content is not ready
	Watch            bool          `yaml:"watch"`             // regenerate when a clip disappears from the storage root
	WatchDebounce    time.Duration `yaml:"watch_debounce"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // console | json
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		StorageRoot:      defaultStorageRoot(),
		FFmpegPath:       "ffmpeg",
		FFmpegCodec:      "libx264",
		ListenAddr:       ":8089",
		MaxConns:         64,
		MountPoint:       "/mnt/clipgen",
		GenerateInterval: 5 * time.Second,
		GenerateOnStart:  true,
		WatchDebounce:    2 * time.Second,
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// defaultStorageRoot mirrors an app cache directory: $XDG_CACHE_HOME/clipgen or ~/.cache/clipgen.
func defaultStorageRoot() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "clipgen")
	}
	return filepath.Join(os.TempDir(), "clipgen")
}

// Load builds the config from defaults, the YAML file at path (if any; falls
// back to CLIPGEN_CONFIG) and the environment. Call LoadEnvFile(".env") first
// to use a .env file.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		path = os.Getenv("CLIPGEN_CONFIG")
	}
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.StorageRoot = getEnv("CLIPGEN_STORAGE", c.StorageRoot)
	c.JournalPath = getEnv("CLIPGEN_JOURNAL", c.JournalPath)
	c.MountPoint = getEnv("CLIPGEN_MOUNT", c.MountPoint)
	c.FFmpegPath = getEnv("CLIPGEN_FFMPEG", c.FFmpegPath)
	c.FFmpegCodec = getEnv("CLIPGEN_FFMPEG_CODEC", c.FFmpegCodec)
	c.ListenAddr = getEnv("CLIPGEN_ADDR", c.ListenAddr)
	c.MaxConns = getEnvInt("CLIPGEN_MAX_CONNS", c.MaxConns)
	c.GenerateInterval = getEnvDuration("CLIPGEN_GENERATE_INTERVAL", c.GenerateInterval)
	c.GenerateOnStart = getEnvBool("CLIPGEN_GENERATE_ON_START", c.GenerateOnStart)
	c.Watch = getEnvBool("CLIPGEN_WATCH", c.Watch)
	c.WatchDebounce = getEnvDuration("CLIPGEN_WATCH_DEBOUNCE", c.WatchDebounce)
	c.LogLevel = getEnv("CLIPGEN_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("CLIPGEN_LOG_FORMAT", c.LogFormat)
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StorageRoot) == "" {
		return fmt.Errorf("storage_root required")
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("max_conns must be >= 0")
	}
	if c.GenerateInterval < 0 || c.WatchDebounce < 0 {
		return fmt.Errorf("durations must be >= 0")
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
