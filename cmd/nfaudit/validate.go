package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfaudit/nfaudit/internal/validation"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate [invoice.json]",
	Short: "Run structural validation only",
	Long: `Check required fields, company-identifier format and the access-key
check digit without invoking rule checks or model providers.

Examples:
  nfaudit validate invoice.json
  nfaudit validate invoice.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output the result as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	inv, err := loadInvoice(args[0])
	if err != nil {
		return err
	}

	res := validation.NewValidator().Validate(inv)

	if validateJSON {
		return printJSON(res)
	}

	if res.Valid {
		fmt.Println("VALID")
	} else {
		fmt.Println("INVALID")
	}
	for _, e := range res.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	for _, w := range res.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}
