package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the igsrindex configuration.
type Config struct {
	Source      SourceConfig           `yaml:"source"`
	Store       StoreConfig            `yaml:"store"`
	Indices     map[string]IndexConfig `yaml:"indices"`
	Descriptors DescriptorsConfig      `yaml:"descriptors"`
	Metrics     MetricsConfig          `yaml:"metrics"`
	Logging     LoggingConfig          `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// SourceConfig holds relational source settings.
type SourceConfig struct {
	Driver           string `yaml:"driver"` // mysql, postgres, sqlite (default: mysql)
	DSN              string `yaml:"dsn"`    // overrides the discrete fields below
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	Name             string `yaml:"name"`
	PreloadBatchSize int    `yaml:"preload_batch_size"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // elasticsearch, redis (default: elasticsearch)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	BulkBatchSize    int      `yaml:"bulk_batch_size"`
	Refresh          string   `yaml:"refresh"`    // elasticsearch only: "", true, false, wait_for
	KeyPrefix        string   `yaml:"key_prefix"` // redis only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig overrides the destination of one entity kind.
type IndexConfig struct {
	Name       string `yaml:"name"`
	Descriptor string `yaml:"descriptor"` // path or s3://bucket/key
}

// DescriptorsConfig holds index descriptor lookup settings.
type DescriptorsConfig struct {
	Dir string   `yaml:"dir"` // path or s3://bucket/prefix (default: mappings)
	S3  S3Config `yaml:"s3"`
}

// S3Config holds object storage settings for s3:// descriptors.
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// MetricsConfig holds run metrics settings. An empty PushgatewayURL disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

var (
	sourceDrivers = []string{"mysql", "postgres", "sqlite"}
	storeDrivers  = []string{"elasticsearch", "redis"}
	refreshValues = []string{"", "true", "false", "wait_for"}
)

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates raw YAML.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Source.Driver == "" {
		c.Source.Driver = "mysql"
	}
	if c.Source.PreloadBatchSize <= 0 {
		c.Source.PreloadBatchSize = 1000
	}
	if c.Source.ReadinessTimeout <= 0 {
		c.Source.ReadinessTimeout = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "elasticsearch"
	}
	if c.Store.BulkBatchSize <= 0 {
		c.Store.BulkBatchSize = 500
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "igsr:"
	}
	if c.Descriptors.Dir == "" {
		c.Descriptors.Dir = "mappings"
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "igsrindex"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if !oneOf(c.Source.Driver, sourceDrivers) {
		return fmt.Errorf("source.driver must be one of %s, got %q", strings.Join(sourceDrivers, ", "), c.Source.Driver)
	}
	if c.Source.DSN == "" && c.Source.Name == "" {
		return fmt.Errorf("source.dsn or source.name is required")
	}
	if !oneOf(c.Store.Driver, storeDrivers) {
		return fmt.Errorf("store.driver must be one of %s, got %q", strings.Join(storeDrivers, ", "), c.Store.Driver)
	}
	if len(c.Store.Addrs) == 0 {
		return fmt.Errorf("store.addrs is required")
	}
	if !oneOf(c.Store.Refresh, refreshValues) {
		return fmt.Errorf("store.refresh must be true, false or wait_for, got %q", c.Store.Refresh)
	}
	for kind, idx := range c.Indices {
		if idx.Name != "" && strings.ToLower(idx.Name) != idx.Name {
			return fmt.Errorf("indices.%s.name must be lowercase, got %q", kind, idx.Name)
		}
	}
	return nil
}

// Index returns the override for kind, if any.
func (c *Config) Index(kind string) IndexConfig {
	return c.Indices[kind]
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
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
