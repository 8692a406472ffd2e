package updatememory

type Config struct {
	MaxHistory   int
	MaxTopics    int
	QueryLimit   int
	SummaryLimit int
	TopicLimit   int
	PromptTopics int
}

func LoadConfig() *Config {
	return &Config{
		MaxHistory:   50,
		MaxTopics:    10,
		QueryLimit:   200,
		SummaryLimit: 300,
		TopicLimit:   80,
		PromptTopics: 5,
	}
}
