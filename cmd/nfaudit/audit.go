package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/nfaudit/nfaudit/internal/auditor"
	"github.com/nfaudit/nfaudit/internal/config"
	"github.com/nfaudit/nfaudit/internal/gateway"
	"github.com/nfaudit/nfaudit/internal/pipeline"
	"github.com/nfaudit/nfaudit/internal/rules"
	"github.com/nfaudit/nfaudit/internal/validation"
)

var (
	auditContext string
	auditJSON    bool
)

var auditCmd = &cobra.Command{
	Use:   "audit [invoice.json]",
	Short: "Run the full audit pipeline over an invoice record",
	Long: `Run structural validation, deterministic rule checks and contextual
model analysis over a canonical invoice record, producing an
approve/reject verdict with confidence and justification.

Provider credentials come from the environment (ANTHROPIC_API_KEY,
OPENAI_API_KEY, GOOGLE_API_KEY); at least one must be set.

Examples:
  nfaudit audit invoice.json
  nfaudit audit invoice.json --context "recurring supplier, prior flags"
  cat invoice.json | nfaudit audit - --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVarP(&auditContext, "context", "c", "", "free-form case context passed to the contextual auditor")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "output the verdict as JSON")
}

func runAudit(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	inv, err := loadInvoice(args[0])
	if err != nil {
		return err
	}

	tables, err := loadTables(cfg)
	if err != nil {
		return err
	}

	chain, err := buildChain(cfg, creds, log)
	if err != nil {
		return err
	}

	coord := pipeline.NewCoordinator(
		validation.NewValidator(),
		rules.NewEngine(tables),
		auditor.New(chain, log),
		cfg.Pipeline.AcceptanceThreshold,
		cfg.Pipeline.StrictMode,
		log,
	)

	verdict := coord.Audit(cmd.Context(), inv, auditContext)

	if auditJSON {
		return printJSON(verdict)
	}

	decision := "REJECTED"
	if verdict.Approved {
		decision = "APPROVED"
	}
	fmt.Printf("%s  confidence=%.2f  stage=%s  elapsed=%s\n", decision, verdict.Confidence, verdict.Stage, verdict.Elapsed.Round(time.Millisecond))
	fmt.Printf("audit id: %s\n", verdict.AuditID)
	if len(verdict.Violations) > 0 {
		fmt.Println("\nViolations:")
		for i, v := range verdict.Violations {
			fmt.Printf("  [%d] %-8s %-18s %s\n", i+1, v.Severity, v.Kind, v.Message)
		}
	}
	if len(verdict.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range verdict.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	fmt.Printf("\n%s\n", verdict.Justification)
	return nil
}

func loadTables(cfg *config.Config) (*rules.Tables, error) {
	if cfg.Tables.Path == "" {
		return rules.DefaultTables(), nil
	}
	return rules.LoadTables(cfg.Tables.Path)
}

// buildChain assembles the provider fallback chain from whichever credentials
// are configured, honoring the configured order.
func buildChain(cfg *config.Config, creds config.Credentials, log zerolog.Logger) (*gateway.Chain, error) {
	var providers []gateway.Provider
	for _, id := range cfg.Providers.Order {
		switch id {
		case "anthropic":
			if creds.Anthropic != "" {
				providers = append(providers, gateway.NewAnthropicProvider(creds.Anthropic, cfg.Providers.AnthropicModel))
			}
		case "openai":
			if creds.OpenAI != "" {
				providers = append(providers, gateway.NewOpenAIProvider(creds.OpenAI, cfg.Providers.OpenAIModel))
			}
		case "gemini":
			if creds.Google != "" {
				providers = append(providers, gateway.NewGeminiProvider(creds.Google, cfg.Providers.GeminiModel))
			}
		default:
			return nil, fmt.Errorf("unknown provider %q in providers.order", id)
		}
	}
	if len(providers) == 0 {
		return nil, config.ErrNoCredentials
	}

	var limiter *rate.Limiter
	if cfg.Providers.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Providers.RatePerSecond), 1)
	}
	timeout := time.Duration(cfg.Providers.TimeoutSeconds) * time.Second

	return gateway.NewChain(providers, timeout, limiter, log), nil
}
