// internal/workers/retrieval/fuse-evidence/policymatrix.go
package fuseevidence

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"planning-workers/internal/models"
)

const snippetMaxLen = 240

// Two code-pattern families cover the plan styles seen in practice: bare
// prefixed codes (NPPF11, DM12, CS 4) and hyphenated ones (DM-H2, SP-3).
var policyCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z]{2,6} ?\d{1,3}\b`),
	regexp.MustCompile(`\b[A-Z]{1,4}-[A-Z]{0,3}\d{1,3}\b`),
}

// buildPolicyMatrix extracts distinct policy codes from the policy-tagged
// items of the budgeted context. Scanning stops after scanCap items or
// codeCap distinct codes, whichever comes first.
func buildPolicyMatrix(items []models.RetrievalResult, scanCap, codeCap int) models.PolicyMatrix {
	matrix := models.PolicyMatrix{Policies: []models.PolicyEntry{}}
	seen := make(map[string]bool)
	scanned := 0

	for _, item := range items {
		if item.Role != models.RolePolicy {
			continue
		}
		if scanned >= scanCap {
			break
		}
		scanned++

		for _, pattern := range policyCodePatterns {
			for _, loc := range pattern.FindAllStringIndex(item.Content, -1) {
				code := normalizeCode(item.Content[loc[0]:loc[1]])
				if seen[code] {
					continue
				}
				seen[code] = true
				matrix.Policies = append(matrix.Policies, models.PolicyEntry{
					Code:    code,
					Snippet: snippetAround(item.Content, loc[0], loc[1]),
				})
				if len(matrix.Policies) >= codeCap {
					matrix.Count = len(matrix.Policies)
					return matrix
				}
			}
		}
	}

	matrix.Count = len(matrix.Policies)
	return matrix
}

func normalizeCode(raw string) string {
	return strings.ToUpper(strings.ReplaceAll(raw, " ", ""))
}

// snippetAround returns up to snippetMaxLen bytes of context centred on the
// matched code. Both cut points back off to a rune boundary so non-ASCII
// policy text never yields a snippet with a split rune.
func snippetAround(content string, start, end int) string {
	pad := (snippetMaxLen - (end - start)) / 2
	if pad < 0 {
		pad = 0
	}
	from := start - pad
	if from < 0 {
		from = 0
	}
	for from > 0 && !utf8.RuneStart(content[from]) {
		from--
	}
	to := end + pad
	if to > len(content) {
		to = len(content)
	}
	for to < len(content) && !utf8.RuneStart(content[to]) {
		to++
	}
	return strings.TrimSpace(content[from:to])
}
