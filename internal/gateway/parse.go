package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseStructured extracts the model verdict from raw output, tolerating
// markdown code fences around the JSON body.
func parseStructured(text string) (Structured, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned, "\n"); idx >= 0 {
			cleaned = cleaned[idx+1:]
		}
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	var s Structured
	if err := json.Unmarshal([]byte(cleaned), &s); err != nil {
		return Structured{}, fmt.Errorf("parse model verdict: %w", err)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return Structured{}, fmt.Errorf("confidence %.2f outside [0,1]", s.Confidence)
	}
	return s, nil
}
