package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"radarview/internal/convert"
)

const (
	defaultPort              = 8080
	defaultCheckInterval     = 30
	defaultRequestTimeout    = 30
	defaultRequestsPerSecond = 4.0
	defaultBurst             = 2
	defaultThumbnailWidth    = 256
	defaultCacheTTL          = 60
	defaultMetricsPort       = 9091
)

// CommandConfig represents a generic command configuration
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

// ProductConfig describes one radar product: where its HDF5 composites are
// published and how they are rendered.
type ProductConfig struct {
	Name          string          `yaml:"name"`
	SourceURL     string          `yaml:"sourceUrl"`
	Renderer      string          `yaml:"renderer"`
	VisibleMinRaw *int            `yaml:"visibleMinRaw"`
	Commands      []CommandConfig `yaml:"commands"`
}

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type CacheConfig struct {
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`
	TTLSeconds    int    `yaml:"ttlSeconds"`
}

type NotifierConfig struct {
	DiscordWebhookURL string `yaml:"discordWebhookUrl"`
}

type FetchConfig struct {
	CheckIntervalSeconds  int     `yaml:"checkIntervalSeconds"`
	RequestTimeoutSeconds int     `yaml:"requestTimeoutSeconds"`
	RequestsPerSecond     float64 `yaml:"requestsPerSecond"`
	Burst                 int     `yaml:"burst"`
	RetentionHours        int     `yaml:"retentionHours"`
	MetricsPort           int     `yaml:"metricsPort"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServiceConfig struct {
	Port           int             `yaml:"port"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	DataDir        string          `yaml:"dataDir"`
	ThumbnailWidth int             `yaml:"thumbnailWidth"`
	Database       Database        `yaml:"database"`
	Cache          CacheConfig     `yaml:"cache"`
	Notifier       NotifierConfig  `yaml:"notifier"`
	Fetch          FetchConfig     `yaml:"fetch"`
	Logging        LoggingConfig   `yaml:"logging"`
	Products       []ProductConfig `yaml:"products"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ThumbnailWidth == 0 {
		c.ThumbnailWidth = defaultThumbnailWidth
	}
	if c.Fetch.CheckIntervalSeconds == 0 {
		c.Fetch.CheckIntervalSeconds = defaultCheckInterval
	}
	if c.Fetch.RequestTimeoutSeconds == 0 {
		c.Fetch.RequestTimeoutSeconds = defaultRequestTimeout
	}
	if c.Fetch.RequestsPerSecond == 0 {
		c.Fetch.RequestsPerSecond = defaultRequestsPerSecond
	}
	if c.Fetch.Burst == 0 {
		c.Fetch.Burst = defaultBurst
	}
	if c.Fetch.MetricsPort == 0 {
		c.Fetch.MetricsPort = defaultMetricsPort
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = defaultCacheTTL
	}
}

func (c *ServiceConfig) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("dataDir must be set")
	}
	if c.Database.Type == "" {
		return fmt.Errorf("database.type must be set")
	}
	if len(c.Products) == 0 {
		return fmt.Errorf("at least one product must be configured")
	}

	seenNames := make(map[string]bool)
	for i, product := range c.Products {
		if product.Name == "" {
			return fmt.Errorf("product at index %d has empty name", i)
		}
		if seenNames[product.Name] {
			return fmt.Errorf("duplicate product name: %s", product.Name)
		}
		seenNames[product.Name] = true

		if product.SourceURL == "" {
			return fmt.Errorf("product %s has empty sourceUrl", product.Name)
		}
		if _, err := convert.NewRenderer(product.Renderer, product.VisibleMinRaw); err != nil {
			return fmt.Errorf("product %s: %w", product.Name, err)
		}
		if err := validateCommands(product.Commands); err != nil {
			return fmt.Errorf("product %s: invalid command configuration: %w", product.Name, err)
		}
	}

	return nil
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		// Validate name is not empty
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}

		// Validate name is unique
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true

		if !convert.DefaultRegistry.IsRegistered(cmd.Name) {
			return fmt.Errorf("unknown command: %s", cmd.Name)
		}
	}

	return nil
}

// RawDir returns the directory holding downloaded HDF5 files for a product.
func (c *ServiceConfig) RawDir(product string) string {
	return filepath.Join(c.DataDir, product)
}

// PNGDir returns the directory holding converted PNG files for a product.
func (c *ServiceConfig) PNGDir(product string) string {
	return filepath.Join(c.DataDir, product+"_png")
}

// CheckInterval returns the poll interval as a duration.
func (c *ServiceConfig) CheckInterval() time.Duration {
	return time.Duration(c.Fetch.CheckIntervalSeconds) * time.Second
}

// RequestTimeout returns the per-request HTTP timeout as a duration.
func (c *ServiceConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Fetch.RequestTimeoutSeconds) * time.Second
}

// Retention returns how long products are kept, 0 meaning forever.
func (c *ServiceConfig) Retention() time.Duration {
	return time.Duration(c.Fetch.RetentionHours) * time.Hour
}

// CacheTTL returns the API response cache TTL as a duration.
func (c *ServiceConfig) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// CommandConfigs converts the YAML command configuration into the form the
// command registry consumes.
func (p *ProductConfig) CommandConfigs() []convert.CommandConfig {
	configs := make([]convert.CommandConfig, 0, len(p.Commands))
	for _, cmd := range p.Commands {
		configs = append(configs, convert.CommandConfig{
			Name:   cmd.Name,
			Params: cmd.Params,
		})
	}
	return configs
}
