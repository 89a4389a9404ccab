package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rshade/footprint/internal/estimator"
)

// Output formats accepted by the CLI.
const (
	OutputFormatTable  = "table"
	OutputFormatJSON   = "json"
	OutputFormatNDJSON = "ndjson"
)

// Storage backends.
const (
	StorageBackendJSON   = "json"
	StorageBackendSQLite = "sqlite"
)

const (
	defaultPrecision   = 2
	maxPrecision       = 10
	defaultTTLSeconds  = 3600
	defaultServerAddr  = "127.0.0.1:8080"
	defaultUser        = "default"
	configFileName     = "config.yaml"
	outputTypeFile     = "file"
	jsonStoreFileName  = "logs.json"
	sqliteStoreName    = "footprint.db"
	cacheDirName       = "cache"
	logFileName        = "footprint.log"
	factorsTransportPf = "factors.transport."
)

// Configuration errors.
var (
	ErrUnknownKey           = errors.New("unknown configuration key")
	ErrInvalidValue         = errors.New("invalid configuration value")
	ErrInvalidOutputFormat  = errors.New("output format must be table, json or ndjson")
	ErrInvalidPrecision     = errors.New("output precision must be between 0 and 10")
	ErrInvalidLogLevel      = errors.New("invalid log level")
	ErrInvalidStorage       = errors.New("storage backend must be json or sqlite")
	ErrInvalidCacheTTL      = errors.New("cache ttl_seconds cannot be negative")
	ErrServerAddrRequired   = errors.New("server address is required")
	ErrUserRequired         = errors.New("user is required")
	ErrNilConfigPath        = errors.New("config has no file path")
	ErrInvalidFactorsConfig = errors.New("invalid factors configuration")
)

// Config is the full footprint configuration.
type Config struct {
	Output  OutputConfig  `yaml:"output"            json:"output"`
	Logging LoggingConfig `yaml:"logging"           json:"logging"`
	Storage StorageConfig `yaml:"storage"           json:"storage"`
	Cache   CacheConfig   `yaml:"cache"             json:"cache"`
	Factors FactorsConfig `yaml:"factors,omitempty" json:"factors,omitempty"`
	Budget  BudgetConfig  `yaml:"budget,omitempty"  json:"budget,omitempty"`
	Server  ServerConfig  `yaml:"server"            json:"server"`
	User    string        `yaml:"user"              json:"user"`

	configPath string
}

// OutputConfig controls rendering defaults.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Precision     int    `yaml:"precision"      json:"precision"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level  string      `yaml:"level"           json:"level"`
	Format string      `yaml:"format"          json:"format"`
	File   string      `yaml:"file,omitempty"  json:"file,omitempty"`
	Audit  AuditConfig `yaml:"audit,omitempty" json:"audit,omitempty"`
}

// AuditConfig enables the append-only record of data-changing commands.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"        json:"enabled"`
	File    string `yaml:"file,omitempty" json:"file,omitempty"`
}

// StorageConfig selects where daily logs are persisted.
type StorageConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	// Path is the JSON document or SQLite database file. Empty means the
	// backend default under the config directory.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// CacheConfig defines caching behavior for history reports.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"             json:"enabled"`
	TTLSeconds int    `yaml:"ttl_seconds"         json:"ttl_seconds"`
	Directory  string `yaml:"directory,omitempty" json:"directory,omitempty"`
}

// FactorsConfig overrides entries of the built-in emission factor table.
// Unset fields keep the defaults.
type FactorsConfig struct {
	Transport         map[string]float64 `yaml:"transport,omitempty"           json:"transport,omitempty"`
	ElectricityPerKwh *float64           `yaml:"electricity_per_kwh,omitempty" json:"electricity_per_kwh,omitempty"`
	FoodPerServing    *float64           `yaml:"food_per_serving,omitempty"    json:"food_per_serving,omitempty"`
}

// ServerConfig configures `footprint serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// New returns the configuration loaded from the global config file with
// environment overrides applied. A missing or unreadable file yields defaults.
func New() *Config {
	cfg := Default()

	if path, err := ConfigFilePath(); err == nil {
		cfg.configPath = path
		if loadErr := cfg.Load(); loadErr != nil {
			bootstrapLogger().Warn().
				Err(loadErr).
				Str("path", path).
				Msg("failed to load config file, using defaults")
		}
	}

	cfg.ApplyEnvOverrides()
	return cfg
}

// Default returns the built-in defaults without touching the filesystem.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			DefaultFormat: OutputFormatTable,
			Precision:     defaultPrecision,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Backend: StorageBackendJSON,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: defaultTTLSeconds,
		},
		Server: ServerConfig{Addr: defaultServerAddr},
		User:   defaultUser,
	}
}

// Path returns the file the config was loaded from and is saved to.
func (c *Config) Path() string {
	return c.configPath
}

// SetPath overrides the file used by Load and Save.
func (c *Config) SetPath(path string) {
	c.configPath = path
}

// Load reads the config file on top of the current values. A missing file is
// not an error.
func (c *Config) Load() error {
	if c.configPath == "" {
		return ErrNilConfigPath
	}
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", c.configPath, err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", c.configPath, err)
	}
	return nil
}

// Save writes the config file atomically with 0600 permissions.
func (c *Config) Save() error {
	if c.configPath == "" {
		return ErrNilConfigPath
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	tmp := c.configPath + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err = os.Rename(tmp, c.configPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies FOOTPRINT_* environment variables. Unparseable
// values are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FOOTPRINT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FOOTPRINT_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("FOOTPRINT_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("FOOTPRINT_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.TTLSeconds = n
		}
	}
	if v := os.Getenv("FOOTPRINT_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = b
		}
	}
	if v := os.Getenv("FOOTPRINT_USER"); v != "" {
		c.User = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	switch c.Output.DefaultFormat {
	case OutputFormatTable, OutputFormatJSON, OutputFormatNDJSON:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidOutputFormat, c.Output.DefaultFormat)
	}
	if c.Output.Precision < 0 || c.Output.Precision > maxPrecision {
		return fmt.Errorf("%w: got %d", ErrInvalidPrecision, c.Output.Precision)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil || c.Logging.Level == "" {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	switch c.Storage.Backend {
	case StorageBackendJSON, StorageBackendSQLite:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidStorage, c.Storage.Backend)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCacheTTL, c.Cache.TTLSeconds)
	}
	if _, err := c.EmissionFactors(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFactorsConfig, err)
	}
	if err := c.Budget.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return ErrServerAddrRequired
	}
	if strings.TrimSpace(c.User) == "" {
		return ErrUserRequired
	}
	return nil
}

// EmissionFactors returns the default factor table with the configured
// overrides applied.
func (c *Config) EmissionFactors() (estimator.Factors, error) {
	return estimator.DefaultFactors().WithOverrides(
		c.Factors.Transport,
		c.Factors.ElectricityPerKwh,
		c.Factors.FoodPerServing,
	)
}

// StoragePath returns the configured store location, or the backend default
// under the config directory.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == StorageBackendSQLite {
		return filepath.Join(dir, sqliteStoreName), nil
	}
	return filepath.Join(dir, jsonStoreFileName), nil
}

// CacheDir returns the report cache directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Directory != "" {
		return c.Cache.Directory, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheDirName), nil
}

// Keys lists every dotted key accepted by Get and Set, sorted.
func (c *Config) Keys() []string {
	keys := []string{
		"output.default_format",
		"output.precision",
		"logging.level",
		"logging.format",
		"logging.file",
		"logging.audit.enabled",
		"logging.audit.file",
		"storage.backend",
		"storage.path",
		"cache.enabled",
		"cache.ttl_seconds",
		"cache.directory",
		"factors.electricity_per_kwh",
		"factors.food_per_serving",
		"budget.daily_kg",
		"budget.exit_on_threshold",
		"budget.exit_code",
		"server.addr",
		"user",
	}
	for mode := range c.Factors.Transport {
		keys = append(keys, factorsTransportPf+mode)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a dotted key as text.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "output.default_format":
		return c.Output.DefaultFormat, nil
	case "output.precision":
		return strconv.Itoa(c.Output.Precision), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "logging.file":
		return c.Logging.File, nil
	case "logging.audit.enabled":
		return strconv.FormatBool(c.Logging.Audit.Enabled), nil
	case "logging.audit.file":
		return c.Logging.Audit.File, nil
	case "storage.backend":
		return c.Storage.Backend, nil
	case "storage.path":
		return c.Storage.Path, nil
	case "cache.enabled":
		return strconv.FormatBool(c.Cache.Enabled), nil
	case "cache.ttl_seconds":
		return strconv.Itoa(c.Cache.TTLSeconds), nil
	case "cache.directory":
		return c.Cache.Directory, nil
	case "factors.electricity_per_kwh":
		return formatOptional(c.Factors.ElectricityPerKwh, estimator.ElectricityFactorKgPerKwh), nil
	case "factors.food_per_serving":
		return formatOptional(c.Factors.FoodPerServing, estimator.FoodFactorKgPerServing), nil
	case "budget.daily_kg":
		return strconv.FormatFloat(c.Budget.DailyKg, 'f', -1, 64), nil
	case "budget.exit_on_threshold":
		return strconv.FormatBool(c.Budget.ExitOnThreshold), nil
	case "budget.exit_code":
		return strconv.Itoa(c.Budget.ExitCode), nil
	case "server.addr":
		return c.Server.Addr, nil
	case "user":
		return c.User, nil
	}
	if mode, ok := strings.CutPrefix(key, factorsTransportPf); ok {
		if v, set := c.Factors.Transport[mode]; set {
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
		factors := estimator.DefaultFactors()
		for m, v := range factors.Transport {
			if string(m) == mode {
				return strconv.FormatFloat(v, 'f', -1, 64), nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set assigns a dotted key from text. The result is not validated; callers
// run Validate before saving.
//
//nolint:gocognit,cyclop // flat key switch
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "output.default_format":
		c.Output.DefaultFormat = value
	case "output.precision":
		c.Output.Precision, err = strconv.Atoi(value)
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "logging.file":
		c.Logging.File = value
	case "logging.audit.enabled":
		c.Logging.Audit.Enabled, err = strconv.ParseBool(value)
	case "logging.audit.file":
		c.Logging.Audit.File = value
	case "storage.backend":
		c.Storage.Backend = strings.ToLower(value)
	case "storage.path":
		c.Storage.Path = value
	case "cache.enabled":
		c.Cache.Enabled, err = strconv.ParseBool(value)
	case "cache.ttl_seconds":
		c.Cache.TTLSeconds, err = strconv.Atoi(value)
	case "cache.directory":
		c.Cache.Directory = value
	case "factors.electricity_per_kwh":
		c.Factors.ElectricityPerKwh, err = parseOptional(value)
	case "factors.food_per_serving":
		c.Factors.FoodPerServing, err = parseOptional(value)
	case "budget.daily_kg":
		c.Budget.DailyKg, err = strconv.ParseFloat(value, 64)
	case "budget.exit_on_threshold":
		c.Budget.ExitOnThreshold, err = strconv.ParseBool(value)
	case "budget.exit_code":
		c.Budget.ExitCode, err = strconv.Atoi(value)
	case "server.addr":
		c.Server.Addr = value
	case "user":
		c.User = value
	default:
		mode, ok := strings.CutPrefix(key, factorsTransportPf)
		if !ok || mode == "" {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		v, parseErr := strconv.ParseFloat(value, 64)
		if parseErr != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidValue, key, value, parseErr)
		}
		if c.Factors.Transport == nil {
			c.Factors.Transport = make(map[string]float64)
		}
		c.Factors.Transport[mode] = v
	}
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %w", ErrInvalidValue, key, value, err)
	}
	return nil
}

func formatOptional(v *float64, def float64) string {
	if v == nil {
		return strconv.FormatFloat(def, 'f', -1, 64)
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseOptional(value string) (*float64, error) {
	if value == "" {
		return nil, nil //nolint:nilnil // empty clears the override
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ConfigFilePath returns the global config file location.
func ConfigFilePath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// DefaultLogFile returns the log file path used when logging to file is
// enabled without an explicit path.
func DefaultLogFile() string {
	dir, err := GetConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), logFileName)
	}
	return filepath.Join(dir, "logs", logFileName)
}
