package config

type AIConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

func loadAIConfig() *AIConfig {
	return &AIConfig{
		Provider:    getEnv("AI_PROVIDER", "gemini"),
		APIKey:      getEnv("GEMINI_API_KEY", ""),
		Model:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		Temperature: getEnvAsFloat64("GEMINI_TEMPERATURE", 0.4),
	}
}
