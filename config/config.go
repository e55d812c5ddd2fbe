package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the pipeline service
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Pricing PricingConfig `mapstructure:"pricing"`
	Publish PublishConfig `mapstructure:"publish"`
	Storage StorageConfig `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address  string `mapstructure:"address"`
	APIToken string `mapstructure:"api_token"` // optional shared bearer token for the /api group
}

// LLMConfig contains the generative search provider configuration
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"` // gemini
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	SearchModel  string        `mapstructure:"search_model"`
	ReportModel  string        `mapstructure:"report_model"`
	ImageModel   string        `mapstructure:"image_model"`
	ContactModel string        `mapstructure:"contact_model"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if strings.TrimSpace(l.SearchModel) == "" {
		return fmt.Errorf("llm.search_model is required")
	}
	return nil
}

// PricingConfig drives the cost ledger: per-million token prices in USD, a
// flat surcharge per search-grounded call, and the USD conversion rate into
// the display currency.
type PricingConfig struct {
	InputPerMillion  float64 `mapstructure:"input_per_million"`
	OutputPerMillion float64 `mapstructure:"output_per_million"`
	SearchSurcharge  float64 `mapstructure:"search_surcharge"`
	ExchangeRate     float64 `mapstructure:"exchange_rate"`
	Currency         string  `mapstructure:"currency"`
}

func (p PricingConfig) Validate() error {
	if p.InputPerMillion < 0 || p.OutputPerMillion < 0 || p.SearchSurcharge < 0 {
		return fmt.Errorf("pricing values cannot be negative")
	}
	if p.ExchangeRate <= 0 {
		return fmt.Errorf("pricing.exchange_rate must be > 0")
	}
	return nil
}

// PublishConfig holds defaults for the remote content repository. The token is
// never configured here; it is supplied per approval and cached separately.
type PublishConfig struct {
	Owner    string `mapstructure:"owner"`
	Repo     string `mapstructure:"repo"`
	BasePath string `mapstructure:"base_path"`
}

// StorageConfig contains storage settings
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings. An empty host disables the
// redis credential cache and falls back to in-memory.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Host) != ""
}

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required when host is set")
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", 90*time.Second)
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.search_model", "gemini-3-flash-preview")
	viper.SetDefault("llm.report_model", "gemini-3-flash-preview")
	viper.SetDefault("llm.image_model", "gemini-2.5-flash-image")
	viper.SetDefault("llm.contact_model", "gemini-3-flash-preview")
	viper.SetDefault("llm.timeout", 2*time.Minute)
	viper.SetDefault("pricing.input_per_million", 0.075)
	viper.SetDefault("pricing.output_per_million", 0.30)
	viper.SetDefault("pricing.search_surcharge", 0.035)
	viper.SetDefault("pricing.exchange_rate", 0.90)
	viper.SetDefault("pricing.currency", "CHF")
	viper.SetDefault("storage.redis.timeout", 5*time.Second)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("ECOPULSE")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	// Config file is optional; env vars and defaults can carry the whole setup.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Pricing.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	return &config
}
