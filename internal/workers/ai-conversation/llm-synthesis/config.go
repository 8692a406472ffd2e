// internal/workers/ai-conversation/llm-synthesis/config.go
package llmsynthesis

const DefaultModelName = "gpt-4.1-mini"

type Config struct {
	ModelName          string
	MaxEvidencePerTool int
	MaxSources         int
}

func LoadConfig() *Config {
	return &Config{
		ModelName:          DefaultModelName,
		MaxEvidencePerTool: 5,
		MaxSources:         5,
	}
}
