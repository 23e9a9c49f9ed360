// Package config loads launcher settings from defaults, an optional YAML file
// and ARVIS_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// History backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds application configuration.
type Config struct {
	ExtensionsDir string        `mapstructure:"extensions_dir"`
	DataDir       string        `mapstructure:"data_dir"`
	CacheDir      string        `mapstructure:"cache_dir"`
	Script        ScriptConfig  `mapstructure:"script"`
	History       HistoryConfig `mapstructure:"history"`
	Log           LogConfig     `mapstructure:"log"`
	HTTP          HTTPConfig    `mapstructure:"http"`

	// Variables overrides extension variables, by bundle id then variable name.
	// Read from the config file only, with keys kept as written.
	Variables map[string]map[string]string `mapstructure:"-"`
}

// ScriptConfig holds script runner settings.
type ScriptConfig struct {
	Shell      string        `mapstructure:"shell"`
	ShellsFile string        `mapstructure:"shells_file"`
	Timeout    time.Duration `mapstructure:"timeout"`
	KillGrace  time.Duration `mapstructure:"kill_grace"`
	PrintOut   bool          `mapstructure:"print_output"`
}

// HistoryConfig selects and configures the history store.
type HistoryConfig struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
	Max           int           `mapstructure:"max"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// HTTPConfig holds the HTTP adapter settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Loader builds a Config. Flags bound with BindFlags take precedence over
// everything else.
type Loader struct {
	v    *viper.Viper
	file string
}

// NewLoader creates a loader with the launcher defaults rooted at home.
func NewLoader(home string) *Loader {
	v := viper.New()
	base := filepath.Join(home, ".config", "arvis")

	v.SetDefault("extensions_dir", filepath.Join(base, "extensions"))
	v.SetDefault("data_dir", filepath.Join(base, "data"))
	v.SetDefault("cache_dir", filepath.Join(home, ".cache", "arvis"))
	v.SetDefault("script.shell", "")
	v.SetDefault("script.shells_file", filepath.Join(base, "shells.yaml"))
	v.SetDefault("script.timeout", "0s")
	v.SetDefault("script.kill_grace", "200ms")
	v.SetDefault("script.print_output", false)
	v.SetDefault("history.backend", BackendMemory)
	v.SetDefault("history.redis_addr", "localhost:6379")
	v.SetDefault("history.redis_password", "")
	v.SetDefault("history.redis_db", 0)
	v.SetDefault("history.ttl", "0s")
	v.SetDefault("history.max", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("http.addr", "127.0.0.1:8680")

	v.SetConfigType("yaml")
	v.AddConfigPath(base)
	v.SetConfigName("config")

	v.SetEnvPrefix("ARVIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// SetFile reads configuration from path instead of the default location.
// A missing explicit file is an error.
func (l *Loader) SetFile(path string) {
	l.file = path
	if path != "" {
		l.v.SetConfigFile(path)
	}
}

// BindFlags binds command line flags to config keys, e.g. "http.addr" -> --addr.
func (l *Loader) BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q for config key %q", name, key)
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file (if any) and the environment.
func (l *Loader) Load() (Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && (l.file != "" || !os.IsNotExist(err)) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := l.v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	c.History.Backend = strings.ToLower(c.History.Backend)
	switch c.History.Backend {
	case BackendMemory, BackendRedis:
	default:
		return Config{}, fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	if c.Script.Timeout < 0 {
		return Config{}, fmt.Errorf("script.timeout must not be negative, got %s", c.Script.Timeout)
	}

	vars, err := readVariables(l.v.ConfigFileUsed())
	if err != nil {
		return Config{}, err
	}
	c.Variables = vars
	return c, nil
}

// readVariables reads the variables section without viper, which would
// lowercase bundle ids and split them on dots.
func readVariables(path string) (map[string]map[string]string, error) {
	out := map[string]map[string]string{}
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("read config variables: %w", err)
	}

	var doc struct {
		Variables map[string]map[string]any `yaml:"variables"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config variables: %w", err)
	}
	for bundle, vars := range doc.Variables {
		m := make(map[string]string, len(vars))
		for k, v := range vars {
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, fmt.Errorf("variable %s of %s: %w", k, bundle, err)
			}
			m[k] = s
		}
		out[bundle] = m
	}
	return out, nil
}
