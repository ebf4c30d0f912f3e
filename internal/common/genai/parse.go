// internal/common/genai/parse.go
package genai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON parses the first JSON object found in model output into v.
// Model responses routinely wrap JSON in prose or markdown fences, so this is
// best-effort by design: strip fences, then take the outermost brace pair.
func ExtractJSON(text string, v interface{}) error {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), v); err != nil {
		return fmt.Errorf("malformed JSON in response: %w", err)
	}
	return nil
}
