package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ErrNoCredentials means no provider can be built at all; the pipeline cannot
// function, so this is fatal at startup rather than per request.
var ErrNoCredentials = errors.New("no model provider credential configured (set ANTHROPIC_API_KEY, OPENAI_API_KEY or GOOGLE_API_KEY)")

// Credentials holds the provider API keys read from the environment.
type Credentials struct {
	Anthropic string
	OpenAI    string
	Google    string
}

// LoadCredentials reads provider keys from the environment. At least one must
// be present.
func LoadCredentials() (Credentials, error) {
	creds := Credentials{
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Google:    os.Getenv("GOOGLE_API_KEY"),
	}
	if creds.Google == "" {
		creds.Google = os.Getenv("GEMINI_API_KEY")
	}
	if creds.Anthropic == "" && creds.OpenAI == "" && creds.Google == "" {
		return creds, ErrNoCredentials
	}
	return creds, nil
}

// Load loads and merges configuration from global and project sources
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil // Return defaults if no home dir
	}

	cwd, err := os.Getwd()
	if err != nil {
		return cfg, nil // Return defaults if no cwd
	}

	// Load global config first
	globalPath := filepath.Join(home, ".nfaudit", "config.yaml")
	if err := loadFile(globalPath, cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	// Load project config (overrides global)
	projectPath := filepath.Join(cwd, ".nfaudit", "config.yaml")
	if err := loadFile(projectPath, cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads configuration from an explicit path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nfaudit", "config.yaml")
}

// ProjectConfigPath returns the path to the project config file
func ProjectConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".nfaudit", "config.yaml")
}
