package config

import (
	"fmt"
	"strings"

	"catalog/sync/internal/catalog"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Source    SourceConfig    `mapstructure:"source"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Output    OutputConfig    `mapstructure:"output"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SourceConfig describes where the store exports are read from
type SourceConfig struct {
	// Kind is "dropbox" or "local"
	Kind           string `mapstructure:"kind"`
	LocalDir       string `mapstructure:"local_dir"`
	CategoriesPath string `mapstructure:"categories_path"`
	ProductsPath   string `mapstructure:"products_path"`
	URLsPath       string `mapstructure:"urls_path"`

	Dropbox DropboxConfig `mapstructure:"dropbox"`
}

// DropboxConfig holds the app credentials used for the refresh-token grant
type DropboxConfig struct {
	TokenURL             string `mapstructure:"token_url"`
	ContentURL           string `mapstructure:"content_url"`
	AppKey               string `mapstructure:"app_key"`
	AppSecret            string `mapstructure:"app_secret"`
	RefreshToken         string `mapstructure:"refresh_token"`
	Timeout              int    `mapstructure:"timeout"`
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
}

type CatalogConfig struct {
	BaseURL       string                 `mapstructure:"base_url"`
	PriceBrackets []catalog.PriceBracket `mapstructure:"price_brackets"`
}

type OutputConfig struct {
	Dir            string `mapstructure:"dir"`
	CatalogJSON    string `mapstructure:"catalog_json"`
	CatalogCompact string `mapstructure:"catalog_compact"`
	CatalogTOON    string `mapstructure:"catalog_toon"`
	ProductsJSON   string `mapstructure:"products_json"`
}

type SyncConfig struct {
	// Interval between scheduled runs in minutes, 0 runs once and exits
	Interval int `mapstructure:"interval"`
	// LockTTL bounds how long a crashed run keeps others out, in seconds
	LockTTL        int  `mapstructure:"lock_ttl"`
	Publish        bool `mapstructure:"publish"`
	PublishWorkers int  `mapstructure:"publish_workers"`
	// PublishRetries caps retries of a failed publish, 0 retries forever
	PublishRetries int `mapstructure:"publish_retries"`
	// PublishRetryDelay is the base backoff between retries, in seconds
	PublishRetryDelay int `mapstructure:"publish_retry_delay"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// KnowledgeConfig points at the vector store the public product list is pushed to
type KnowledgeConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	VectorStoreID string `mapstructure:"vector_store_id"`
	FileName      string `mapstructure:"file_name"`
	// ExtraFiles are static documents published with every catalog, under their base name
	ExtraFiles []string `mapstructure:"extra_files"`
	Timeout    int      `mapstructure:"timeout"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings a run cannot start without
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case "local":
		if c.Source.LocalDir == "" {
			return fmt.Errorf("source.local_dir is required for a local source")
		}
	case "dropbox":
		if c.Source.Dropbox.RefreshToken == "" || c.Source.Dropbox.AppKey == "" {
			return fmt.Errorf("source.dropbox.app_key and source.dropbox.refresh_token are required")
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}

	if c.Source.CategoriesPath == "" || c.Source.ProductsPath == "" {
		return fmt.Errorf("source.categories_path and source.products_path are required")
	}

	if c.Sync.Publish && c.Knowledge.VectorStoreID == "" {
		return fmt.Errorf("knowledge.vector_store_id is required when sync.publish is on")
	}
	// scheduled runs publish through the queue
	if c.Sync.Publish && c.Sync.Interval > 0 && !c.Redis.Enabled {
		return fmt.Errorf("sync.publish needs redis.enabled for the publish queue")
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")

	viper.SetDefault("source.kind", "dropbox")
	viper.SetDefault("source.local_dir", "")
	viper.SetDefault("source.categories_path", "/catalogo/categorias.xlsx")
	viper.SetDefault("source.products_path", "/catalogo/productos.xlsx")
	viper.SetDefault("source.urls_path", "/catalogo/urls.xlsx")
	viper.SetDefault("source.dropbox.token_url", "https://api.dropboxapi.com/oauth2/token")
	viper.SetDefault("source.dropbox.content_url", "https://content.dropboxapi.com")
	viper.SetDefault("source.dropbox.app_key", "")
	viper.SetDefault("source.dropbox.app_secret", "")
	viper.SetDefault("source.dropbox.refresh_token", "")
	viper.SetDefault("source.dropbox.timeout", 60)
	viper.SetDefault("source.dropbox.max_retries", 3)
	viper.SetDefault("source.dropbox.max_requests_per_second", 5)

	viper.SetDefault("catalog.base_url", "https://www.nimat.com.ar/")

	viper.SetDefault("output.dir", "./data")
	viper.SetDefault("output.catalog_json", "catalogo.json")
	viper.SetDefault("output.catalog_compact", "catalogo.yaml")
	viper.SetDefault("output.products_json", "productos.json")
	viper.SetDefault("output.catalog_toon", "catalogo.toon")

	viper.SetDefault("sync.interval", 120)
	viper.SetDefault("sync.lock_ttl", 900)
	viper.SetDefault("sync.publish", false)
	viper.SetDefault("sync.publish_workers", 1)
	viper.SetDefault("sync.publish_retries", 5)
	viper.SetDefault("sync.publish_retry_delay", 30)

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "catalog")
	viper.SetDefault("database.user", "catalog_user")
	viper.SetDefault("database.password", "catalog_pass")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.consumer_group", "catalog_publisher")
	viper.SetDefault("redis.min_idle_time", 120)

	viper.SetDefault("knowledge.base_url", "https://api.openai.com/v1")
	viper.SetDefault("knowledge.api_key", "")
	viper.SetDefault("knowledge.vector_store_id", "")
	viper.SetDefault("knowledge.file_name", "productos.json")
	viper.SetDefault("knowledge.extra_files", []string{})
	viper.SetDefault("knowledge.timeout", 120)
}
