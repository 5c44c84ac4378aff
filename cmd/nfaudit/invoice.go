package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nfaudit/nfaudit/internal/nfe"
)

// loadInvoice reads a canonical invoice record from a JSON file, or from
// stdin when path is "-".
func loadInvoice(path string) (nfe.Invoice, error) {
	var inv nfe.Invoice

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return inv, fmt.Errorf("read invoice: %w", err)
	}

	if err := json.Unmarshal(data, &inv); err != nil {
		return inv, fmt.Errorf("parse invoice JSON: %w", err)
	}
	return inv, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
