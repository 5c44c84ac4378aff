package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfaudit/nfaudit/internal/config"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show the configured model provider chain",
	Long: `List the provider fallback order and which providers have a
credential available in the current environment.`,
	RunE: runProviders,
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	creds, credsErr := config.LoadCredentials()

	available := map[string]bool{
		"anthropic": creds.Anthropic != "",
		"openai":    creds.OpenAI != "",
		"gemini":    creds.Google != "",
	}

	fmt.Printf("fallback order (timeout %ds):\n", cfg.Providers.TimeoutSeconds)
	position := 1
	for _, id := range cfg.Providers.Order {
		status := "no credential"
		if available[id] {
			status = fmt.Sprintf("ready (#%d in chain)", position)
			position++
		}
		fmt.Printf("  %-10s %s\n", id, status)
	}

	if credsErr != nil {
		fmt.Println()
		return credsErr
	}
	return nil
}
