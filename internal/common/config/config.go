package config

import "fmt"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
}

type ToolsConfig struct {
	TimeoutSeconds  float64     `mapstructure:"timeout_seconds"`
	MaxRetries      int         `mapstructure:"max_retries"`
	LogRedactedBody bool        `mapstructure:"log_redacted_body"`
	SerperAPIKey    string      `mapstructure:"serper_api_key"`
	YouTubeAPIKey   string      `mapstructure:"youtube_api_key"`
	Cache           CacheConfig `mapstructure:"cache"`
}

type CacheConfig struct {
	Backend    string `mapstructure:"backend"` // memory, redis, none
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type AgentConfig struct {
	MaxClarifyRounds int    `mapstructure:"max_clarify_rounds"`
	UserID           string `mapstructure:"user_id"`
}

type StorageConfig struct {
	Backend     string `mapstructure:"backend"` // file, redis, postgres
	DataDir     string `mapstructure:"data_dir"`
	ProfilePath string `mapstructure:"profile_path"`
	MemoryPath  string `mapstructure:"memory_path"`
}

type TelemetryConfig struct {
	IntentLogPath string `mapstructure:"intent_log_path"`
	MaxSizeMB     int    `mapstructure:"max_size_mb"`
	MaxBackups    int    `mapstructure:"max_backups"`
}

type DatabaseConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
