package enrichwebsearch

import (
	"time"

	"research-agent/internal/common/config"
)

const (
	DefaultSerperURL  = "https://google.serper.dev/search"
	DefaultDDGURL     = "https://api.duckduckgo.com/"
	DefaultYouTubeURL = "https://www.googleapis.com/youtube/v3/search"
)

type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	LogRedactedBody bool
	SerperAPIKey    string
	YouTubeAPIKey   string
	SerperURL       string
	DDGURL          string
	YouTubeURL      string
	CacheBackend    string
	CacheTTL        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      12 * time.Second,
		MaxRetries:   2,
		SerperURL:    DefaultSerperURL,
		DDGURL:       DefaultDDGURL,
		YouTubeURL:   DefaultYouTubeURL,
		CacheBackend: "memory",
		CacheTTL:     10 * time.Minute,
	}
}

// ConfigFromTools maps the tools section of the application config.
func ConfigFromTools(tc config.ToolsConfig) *Config {
	cfg := LoadConfig()
	if d := tc.ToolTimeout(); d > 0 {
		cfg.Timeout = d
	}
	if tc.MaxRetries >= 0 {
		cfg.MaxRetries = tc.MaxRetries
	}
	cfg.LogRedactedBody = tc.LogRedactedBody
	cfg.SerperAPIKey = tc.SerperAPIKey
	cfg.YouTubeAPIKey = tc.YouTubeAPIKey
	if tc.Cache.Backend != "" {
		cfg.CacheBackend = tc.Cache.Backend
	}
	if tc.Cache.TTLSeconds > 0 {
		cfg.CacheTTL = time.Duration(tc.Cache.TTLSeconds) * time.Second
	}
	return cfg
}
