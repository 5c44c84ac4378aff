package config

// Config represents the full audit-pipeline configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Pipeline decision policy
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`

	// Model provider chain
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`

	// Tax-rate and operation-code tables
	Tables TablesConfig `yaml:"tables" mapstructure:"tables"`
}

// PipelineConfig configures the coordinator's decision policy
type PipelineConfig struct {
	// AcceptanceThreshold is the confidence below which an approval is
	// downgraded to rejection.
	AcceptanceThreshold float64 `yaml:"acceptance_threshold" mapstructure:"acceptance_threshold"`

	// StrictMode enables the critical-violation short circuit, skipping the
	// contextual analysis when a deterministic rejection is already certain.
	StrictMode bool `yaml:"strict_mode" mapstructure:"strict_mode"`
}

// ProvidersConfig configures the model fallback chain
type ProvidersConfig struct {
	// Order lists provider IDs; the first configured one is primary.
	Order []string `yaml:"order" mapstructure:"order"`

	// TimeoutSeconds bounds a single provider call.
	TimeoutSeconds int `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`

	// RatePerSecond throttles outbound provider calls (0 disables).
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`

	AnthropicModel string `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	OpenAIModel    string `yaml:"openai_model" mapstructure:"openai_model"`
	GeminiModel    string `yaml:"gemini_model" mapstructure:"gemini_model"`
}

// TablesConfig points at an optional YAML override for the built-in
// rate/compatibility tables
type TablesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}
