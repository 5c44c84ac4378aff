package config

import (
	"os"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Pipeline: PipelineConfig{
			AcceptanceThreshold: 0.7,
			StrictMode:          true,
		},
		Providers: ProvidersConfig{
			Order:          []string{"anthropic", "openai", "gemini"},
			TimeoutSeconds: 30,
			RatePerSecond:  1,
		},
	}
}

// WriteDefault writes the default global configuration to a file
func WriteDefault(path string) error {
	content := `# nfaudit Global Configuration
version: "1"

# Decision policy
pipeline:
  # Approvals with lower confidence are downgraded to rejection
  acceptance_threshold: 0.7
  # Skip contextual analysis when deterministic rules already reject
  strict_mode: true

# Model provider chain; the first provider with a credential is primary.
# Credentials come from the environment:
#   ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY
providers:
  order: [anthropic, openai, gemini]
  timeout_seconds: 30
  rate_per_second: 1
  # anthropic_model: claude-sonnet-4-20250514
  # openai_model: gpt-4-turbo
  # gemini_model: gemini-1.5-pro

# Optional YAML override for the built-in rate/CFOP tables
# tables:
#   path: ~/.nfaudit/tables.yaml
`
	return os.WriteFile(path, []byte(content), 0644)
}
