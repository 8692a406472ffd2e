package createplan

type Config struct {
	DefaultTopK int
}

func LoadConfig() *Config {
	return &Config{DefaultTopK: 5}
}
