package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfaudit/nfaudit/internal/rules"
)

var rulesJSON bool

var rulesCmd = &cobra.Command{
	Use:   "rules [invoice.json]",
	Short: "Run the deterministic rule checks only",
	Long: `Evaluate the invoice against checksum, operation-code, tax and
consistency rules without calling any model provider.

Examples:
  nfaudit rules invoice.json
  nfaudit rules invoice.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "output violations as JSON")
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	inv, err := loadInvoice(args[0])
	if err != nil {
		return err
	}

	tables, err := loadTables(cfg)
	if err != nil {
		return err
	}

	violations := rules.NewEngine(tables).Evaluate(inv)

	if rulesJSON {
		return printJSON(violations)
	}

	if len(violations) == 0 {
		fmt.Println("no violations")
		return nil
	}
	for i, v := range violations {
		fmt.Printf("[%d] %-8s %-18s %s\n", i+1, v.Severity, v.Kind, v.Message)
	}
	return nil
}
