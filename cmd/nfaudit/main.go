package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nfaudit/nfaudit/internal/config"
)

var Version = "dev"

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:     "nfaudit",
	Short:   "nfaudit - Fiscal audit pipeline for Brazilian electronic invoices (NF-e)",
	Version: Version,
}

func main() {
	// .env is optional; real deployments configure the environment directly
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "explicit config file (defaults to ~/.nfaudit/config.yaml merged with ./.nfaudit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(providersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	return config.Load()
}
