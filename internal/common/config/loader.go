package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional per-environment overlay

	return finish(v)
}

func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	applyDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "research-agent")
	v.SetDefault("app.environment", "development")

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4.1-mini")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 800)
	v.SetDefault("llm.timeout", 60000)

	v.SetDefault("tools.timeout_seconds", 12.0)
	v.SetDefault("tools.max_retries", 2)
	v.SetDefault("tools.log_redacted_body", false)
	v.SetDefault("tools.cache.backend", "memory")
	v.SetDefault("tools.cache.ttl_seconds", 600)

	v.SetDefault("agent.max_clarify_rounds", 2)
	v.SetDefault("agent.user_id", "default")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.profile_path", "data/user_profile.json")
	v.SetDefault("storage.memory_path", "data/user_memory.json")

	v.SetDefault("telemetry.intent_log_path", "data/intent_events.jsonl")
	v.SetDefault("telemetry.max_size_mb", 10)
	v.SetDefault("telemetry.max_backups", 3)

	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.max_connections", 5)
	v.SetDefault("database.postgres.max_idle", 2)
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9090")
}

// applyEnvOverrides honours the flat variable names documented for the
// agent. Values that do not parse are ignored so the configured value stands.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		cfg.LLM.APIKey = val
	}
	if val := os.Getenv("OPENAI_MODEL"); val != "" {
		cfg.LLM.Model = val
	}
	if f, ok := envFloat("LLM_TEMPERATURE"); ok {
		cfg.LLM.Temperature = f
	}
	if n, ok := envInt("LLM_MAX_TOKENS"); ok {
		cfg.LLM.MaxTokens = n
	}

	if val := os.Getenv("SERPER_API_KEY"); val != "" {
		cfg.Tools.SerperAPIKey = strings.TrimSpace(val)
	}
	if val := os.Getenv("YOUTUBE_API_KEY"); val != "" {
		cfg.Tools.YouTubeAPIKey = strings.TrimSpace(val)
	}
	if f, ok := envFloat("TOOL_TIMEOUT_SECONDS"); ok {
		cfg.Tools.TimeoutSeconds = f
	}
	if n, ok := envInt("TOOL_MAX_RETRIES"); ok {
		cfg.Tools.MaxRetries = n
	}
	if b, ok := envBool("LOG_HTTP_REDACTED_BODY"); ok {
		cfg.Tools.LogRedactedBody = b
	}
}

func envInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(name string) (float64, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envBool(name string) (bool, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	}
	return false, true
}

func validateConfig(cfg *Config) error {
	switch cfg.Storage.Backend {
	case "file", "redis", "postgres":
	default:
		return fmt.Errorf("storage.backend must be file, redis or postgres, got %q", cfg.Storage.Backend)
	}

	switch cfg.Tools.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("tools.cache.backend must be memory, redis or none, got %q", cfg.Tools.Cache.Backend)
	}

	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", cfg.Logging.Format)
	}

	if cfg.Tools.TimeoutSeconds <= 0 {
		return fmt.Errorf("tools.timeout_seconds must be positive")
	}
	if cfg.Tools.MaxRetries < 0 {
		return fmt.Errorf("tools.max_retries must not be negative")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2]")
	}
	if cfg.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive")
	}
	if cfg.Agent.MaxClarifyRounds < 0 {
		return fmt.Errorf("agent.max_clarify_rounds must not be negative")
	}

	usesRedis := cfg.Storage.Backend == "redis" || cfg.Tools.Cache.Backend == "redis"
	if usesRedis && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Storage.Backend == "postgres" {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// ToolTimeout converts the fractional seconds setting to a duration.
func (t ToolsConfig) ToolTimeout() time.Duration {
	return time.Duration(t.TimeoutSeconds * float64(time.Second))
}
