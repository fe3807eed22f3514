package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the metasearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	Cache     CacheConfig     `yaml:"cache"`
	Providers ProvidersConfig `yaml:"providers"`
	Bangs     BangsConfig     `yaml:"bangs"`
	Ratings   RatingsConfig   `yaml:"ratings"`
	APIs      []APIConfig     `yaml:"apis"`
	SearXNG   SearXNGConfig   `yaml:"searxng"`
	Currency  CurrencyConfig  `yaml:"currency"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds cache tier settings. Remote replaces the local tier
// when addrs are set.
type CacheConfig struct {
	DefaultTTL time.Duration     `yaml:"default_ttl"`
	Local      LocalCacheConfig  `yaml:"local"`
	Remote     RemoteCacheConfig `yaml:"remote"`
}

// LocalCacheConfig bounds the in-process tier.
type LocalCacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// RemoteCacheConfig holds Redis connection and encoding settings.
type RemoteCacheConfig struct {
	Addrs     []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	KeyPrefix string   `yaml:"key_prefix"`
	HashKeys  bool     `yaml:"hash_keys"`
	Compress  bool     `yaml:"compress"`
	Codec     string   `yaml:"codec"` // brotli (default), zstd
}

// Enabled reports whether the remote tier is configured.
func (r RemoteCacheConfig) Enabled() bool { return len(r.Addrs) > 0 }

// ProvidersConfig lists backends by name. Order of Search and Suggestions
// is the order backends run in.
type ProvidersConfig struct {
	Search         []string      `yaml:"search"`
	Suggestions    []string      `yaml:"suggestions"`
	Preview        []string      `yaml:"preview"`
	Disable        []string      `yaml:"disable"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`
}

// EnabledSearch returns Search without disabled names.
func (p ProvidersConfig) EnabledSearch() []string { return p.without(p.Search) }

// EnabledSuggestions returns Suggestions without disabled names.
func (p ProvidersConfig) EnabledSuggestions() []string { return p.without(p.Suggestions) }

// EnabledPreview returns Preview without disabled names.
func (p ProvidersConfig) EnabledPreview() []string { return p.without(p.Preview) }

// Uses reports whether name runs for search or suggestions.
func (p ProvidersConfig) Uses(name string) bool {
	return slices.Contains(p.EnabledSearch(), name) || slices.Contains(p.EnabledSuggestions(), name)
}

func (p ProvidersConfig) without(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !slices.Contains(p.Disable, n) {
			out = append(out, n)
		}
	}
	return out
}

// BangsConfig selects bang shortcuts.
type BangsConfig struct {
	Enable  bool                  `yaml:"enable"`
	Dataset string                `yaml:"dataset"`
	Allow   []string              `yaml:"allow"`
	Deny    []string              `yaml:"deny"`
	Add     map[string]BangConfig `yaml:"add"`
}

// BangConfig is a custom bang.
type BangConfig struct {
	Label    string `yaml:"label"`
	Priority int    `yaml:"priority"`
	URL      string `yaml:"url"`
}

// RatingsConfig points at the trust-rating dataset.
type RatingsConfig struct {
	Dataset string `yaml:"dataset"`
	Watch   bool   `yaml:"watch"`
}

// APIConfig is an external API whose commands are discovered at startup.
type APIConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SearXNGConfig holds the SearXNG backend settings.
type SearXNGConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	Categories []string      `yaml:"categories"`
	RPM        int           `yaml:"rpm"` // 0 = unlimited
	RetryDelay time.Duration `yaml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

// CurrencyConfig points at the ECB reference-rate feed.
type CurrencyConfig struct {
	Dataset string `yaml:"dataset"`
	Watch   bool   `yaml:"watch"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = time.Hour
	}
	if c.Cache.Local.MaxEntries <= 0 {
		c.Cache.Local.MaxEntries = 10000
	}
	if c.Cache.Remote.KeyPrefix == "" {
		c.Cache.Remote.KeyPrefix = "metasearch:"
	}
	if c.Cache.Remote.Compress && c.Cache.Remote.Codec == "" {
		c.Cache.Remote.Codec = "brotli"
	}
	if c.Providers.BackendTimeout <= 0 {
		c.Providers.BackendTimeout = 10 * time.Second
	}
	if c.SearXNG.RetryDelay <= 0 {
		c.SearXNG.RetryDelay = time.Second
	}
	if c.SearXNG.Timeout <= 0 {
		c.SearXNG.Timeout = 8 * time.Second
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Cache.Remote.Codec {
	case "", "brotli", "zstd":
		// ok
	default:
		return fmt.Errorf("cache.remote.codec must be \"brotli\" or \"zstd\", got %q", c.Cache.Remote.Codec)
	}
	if len(c.Providers.EnabledSearch()) == 0 {
		return fmt.Errorf("providers.search must list at least one enabled backend")
	}
	if c.Providers.Uses("searxng") && c.SearXNG.Endpoint == "" {
		return fmt.Errorf("searxng.endpoint is required when searxng is enabled")
	}
	if c.Providers.Uses("currency") && c.Currency.Dataset == "" {
		return fmt.Errorf("currency.dataset is required when currency is enabled")
	}
	if c.SearXNG.RPM < 0 {
		return fmt.Errorf("searxng.rpm must not be negative, got %d", c.SearXNG.RPM)
	}
	seen := make(map[string]struct{}, len(c.APIs))
	for i, api := range c.APIs {
		if api.Name == "" || api.URL == "" {
			return fmt.Errorf("apis[%d]: name and url are required", i)
		}
		if _, dup := seen[api.Name]; dup {
			return fmt.Errorf("apis[%d]: duplicate name %q", i, api.Name)
		}
		seen[api.Name] = struct{}{}
	}
	for key, b := range c.Bangs.Add {
		if b.URL == "" {
			return fmt.Errorf("bangs.add.%s.url is required", key)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
