package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for DeepScience
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	OpenAlex OpenAlexConfig `mapstructure:"openalex"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Suggest  SuggestConfig  `mapstructure:"suggest"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenAlexConfig holds bibliographic provider configuration. Mailto opts the
// client into the OpenAlex polite pool.
type OpenAlexConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Mailto         string `mapstructure:"mailto"`
	PerPage        int    `mapstructure:"per_page"`
	TimeoutSecs    int    `mapstructure:"timeout_secs"`
	RequestsPerSec int    `mapstructure:"requests_per_sec"`
}

// LLMConfig holds completion provider configuration
type LLMConfig struct {
	BaseURL             string  `mapstructure:"base_url"`
	APIKey              string  `mapstructure:"api_key"`
	Model               string  `mapstructure:"model"`
	AnswerMaxTokens     int     `mapstructure:"answer_max_tokens"`
	AnswerTemperature   float64 `mapstructure:"answer_temperature"`
	FollowUpMaxTokens   int     `mapstructure:"follow_up_max_tokens"`
	FollowUpTemperature float64 `mapstructure:"follow_up_temperature"`
	SuggestMaxTokens    int     `mapstructure:"suggest_max_tokens"`
	TimeoutSecs         int     `mapstructure:"timeout_secs"`
}

// SuggestConfig holds autocomplete suggestion configuration
type SuggestConfig struct {
	CacheTTLSecs int `mapstructure:"cache_ttl_secs"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DEEPSCIENCE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")

	v.SetDefault("openalex.base_url", "https://api.openalex.org")
	v.SetDefault("openalex.mailto", "")
	v.SetDefault("openalex.per_page", 10)
	v.SetDefault("openalex.timeout_secs", 15)
	v.SetDefault("openalex.requests_per_sec", 5)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.answer_max_tokens", 1500)
	v.SetDefault("llm.answer_temperature", 0.5)
	v.SetDefault("llm.follow_up_max_tokens", 500)
	v.SetDefault("llm.follow_up_temperature", 0.7)
	v.SetDefault("llm.suggest_max_tokens", 300)
	v.SetDefault("llm.timeout_secs", 120)

	v.SetDefault("suggest.cache_ttl_secs", 300)
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// OpenAlexTimeout returns the provider HTTP timeout as a duration.
func (c *Config) OpenAlexTimeout() time.Duration {
	return time.Duration(c.OpenAlex.TimeoutSecs) * time.Second
}

// LLMTimeout returns the completion HTTP timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSecs) * time.Second
}

// SuggestCacheTTL returns the suggestion cache TTL as a duration.
func (c *Config) SuggestCacheTTL() time.Duration {
	return time.Duration(c.Suggest.CacheTTLSecs) * time.Second
}
