package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/Digital-Shane/metamerge/internal/provider"
)

// ProviderConfig holds the settings of one metadata provider.
type ProviderConfig struct {
	Enabled      bool   `json:"enabled"`
	APIKey       string `json:"api_key,omitempty"`
	CacheEnabled bool   `json:"cache_enabled"`
}

// Config is the on-disk configuration of metamerge.
type Config struct {
	// Aggregation settings
	Enabled  bool              `json:"enabled"`
	Language string            `json:"language"`
	Country  string            `json:"country"`
	Fields   map[string]string `json:"fields"`
	Fallback []string          `json:"fallback"`
	Search   string            `json:"search"`
	Episodes string            `json:"episodes"`
	Bridge   string            `json:"bridge"`

	// Worker pool bounds
	MinWorkers int `json:"min_workers"`
	MaxWorkers int `json:"max_workers"`

	Providers map[string]ProviderConfig `json:"providers"`

	// Logging
	EnableLogging    bool   `json:"enable_logging"`
	LogLevel         string `json:"log_level"`
	LogRetentionDays int    `json:"log_retention_days"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:  true,
		Language: "en-US",
		Country:  "US",
		Fields: map[string]string{
			string(provider.FieldTitle):          "tmdb",
			string(provider.FieldOriginalTitle):  "tmdb",
			string(provider.FieldTagline):        "tmdb",
			string(provider.FieldYear):           "tmdb",
			string(provider.FieldReleaseDate):    "tmdb",
			string(provider.FieldPlot):           "tmdb",
			string(provider.FieldRuntime):        "tmdb",
			string(provider.FieldRatings):        "omdb",
			string(provider.FieldGenres):         "tmdb",
			string(provider.FieldCertifications): "tmdb",
			string(provider.FieldCastMembers):    "tmdb",
			string(provider.FieldCollectionName): "tmdb",
		},
		Fallback:   []string{"tmdb", "tvdb", "omdb", "ffprobe"},
		Search:     "tmdb",
		Episodes:   "tmdb",
		Bridge:     "tmdb",
		MinWorkers: 4,
		MaxWorkers: 8,
		Providers: map[string]ProviderConfig{
			"tmdb":    {Enabled: true, CacheEnabled: true},
			"omdb":    {Enabled: false},
			"tvdb":    {Enabled: false},
			"ffprobe": {Enabled: true},
		},
		EnableLogging:    true,
		LogLevel:         "info",
		LogRetentionDays: 30,
	}
}

// ConfigDir returns the directory holding the config file and logs
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".metamerge"), nil
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration from the default path
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration at path. A missing file yields the defaults.
// The file is decoded over DefaultConfig, so absent keys keep their default
// and the fields and providers maps only override the entries they name.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Blank values written to the file fall back to the defaults
	defaults := DefaultConfig()
	if cfg.Language == "" {
		cfg.Language = defaults.Language
	}
	if cfg.Country == "" {
		cfg.Country = defaults.Country
	}
	if cfg.Fields == nil {
		cfg.Fields = make(map[string]string)
	}
	if cfg.Bridge == "" {
		cfg.Bridge = defaults.Bridge
	}
	if cfg.MinWorkers == 0 {
		cfg.MinWorkers = defaults.MinWorkers
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = defaults.MaxWorkers
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.LogRetentionDays == 0 {
		cfg.LogRetentionDays = defaults.LogRetentionDays
	}

	return cfg, nil
}

// Save writes the configuration to the default path
func (cfg *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return cfg.SaveTo(path)
}

// SaveTo writes the configuration to path, creating its directory.
func (cfg *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold API keys
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Settings renders the flat settings map read by the aggregator: one key per
// configured field plus "search", "episodes", "bridge" and a comma separated
// "fallback".
func (cfg *Config) Settings() map[string]string {
	settings := make(map[string]string, len(cfg.Fields)+4)
	for field, id := range cfg.Fields {
		settings[field] = id
	}
	settings["search"] = cfg.Search
	settings["episodes"] = cfg.Episodes
	settings["bridge"] = cfg.Bridge
	settings["fallback"] = strings.Join(cfg.Fallback, ",")
	return settings
}

// Provider returns the settings of the named provider.
func (cfg *Config) Provider(name string) (ProviderConfig, bool) {
	pc, ok := cfg.Providers[name]
	return pc, ok
}

// ProviderSettings converts a provider entry into the map passed to
// provider.Provider.Configure.
func (cfg *Config) ProviderSettings(name string) map[string]interface{} {
	pc := cfg.Providers[name]
	settings := map[string]interface{}{
		"language":      cfg.Language,
		"cache_enabled": pc.CacheEnabled,
	}
	if pc.APIKey != "" {
		settings["api_key"] = pc.APIKey
	}
	return settings
}

// Validate reports configuration mistakes: unknown field keys, blank fallback
// entries and inverted worker bounds.
func (cfg *Config) Validate() error {
	var errs []error

	unknown := make([]string, 0)
	for key := range cfg.Fields {
		if _, ok := provider.LookupField(key); !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs = append(errs, fmt.Errorf("unknown field keys: %s", strings.Join(unknown, ", ")))
	}

	if slices.ContainsFunc(cfg.Fallback, func(id string) bool { return strings.TrimSpace(id) == "" }) {
		errs = append(errs, errors.New("fallback contains a blank provider id"))
	}

	if cfg.MinWorkers < 0 || cfg.MaxWorkers < 0 {
		errs = append(errs, errors.New("worker bounds must not be negative"))
	} else if cfg.MaxWorkers > 0 && cfg.MinWorkers > cfg.MaxWorkers {
		errs = append(errs, fmt.Errorf("min_workers (%d) exceeds max_workers (%d)", cfg.MinWorkers, cfg.MaxWorkers))
	}

	return errors.Join(errs...)
}
