package codegen

import (
	"strings"

	"github.com/nextlevelbuilder/bk25/internal/executor"
)

// Validation is the result of the static checklist applied to a script.
type Validation struct {
	IsValid bool     `json:"is_valid"`
	Issues  []string `json:"issues"`
	Score   int      `json:"score"`
}

// errorHandlingMarkers lists constructs that count as error handling.
var errorHandlingMarkers = map[string][]string{
	PlatformPowerShell:  {"try", "trap", "-erroraction"},
	PlatformAppleScript: {"on error"},
	PlatformBash:        {"set -e", "trap"},
}

// validateScript runs the deterministic checklist: empty script, missing
// error handling, dangerous command presence. Score starts at 10 and
// loses 3 per issue.
func validateScript(script, platform string) Validation {
	v := Validation{IsValid: true, Score: 10}

	if strings.TrimSpace(script) == "" {
		return Validation{Issues: []string{"script is empty"}, Score: 0}
	}

	lower := strings.ToLower(script)
	handled := false
	for _, marker := range errorHandlingMarkers[platform] {
		if strings.Contains(lower, marker) {
			handled = true
			break
		}
	}
	if !handled {
		v.Issues = append(v.Issues, "missing error handling for "+platform)
	}

	for _, token := range executor.DangerousTokens(script, platform) {
		v.Issues = append(v.Issues, "contains potentially dangerous command: "+token)
	}

	if len(v.Issues) > 0 {
		v.IsValid = false
		v.Score -= 3 * len(v.Issues)
		if v.Score < 1 {
			v.Score = 1
		}
	}
	return v
}
