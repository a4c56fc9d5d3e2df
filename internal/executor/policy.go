// Package executor runs generated scripts under supervision: admission
// control, a priority queue with a bounded worker pool, subprocess launch
// with timeout, resource sampling, and task retention.
package executor

import (
	"fmt"
	"strings"
)

// Policy is the admission mode for a script run.
type Policy string

const (
	PolicySafe       Policy = "safe"
	PolicyRestricted Policy = "restricted"
	PolicyStandard   Policy = "standard"
	PolicyElevated   Policy = "elevated"
)

// MaxTimeoutSeconds is the hard ceiling on a single run's wall clock.
const MaxTimeoutSeconds = 3600

// KnownPolicy reports whether p names a defined admission mode.
func KnownPolicy(p Policy) bool {
	switch p {
	case PolicySafe, PolicyRestricted, PolicyStandard, PolicyElevated:
		return true
	}
	return false
}

// denylists holds per-platform tokens that always reject a script.
var denylists = map[string][]string{
	"powershell":  {"Remove-Item", "Delete", "Format-Volume", "Clear-Content", "Stop-Process", "Restart-Computer", "Shutdown-Computer"},
	"applescript": {"delete", "move", "duplicate", "eject", "restart", "shut down"},
	"bash":        {"rm", "rmdir", "del", "format", "mkfs", "dd", "shutdown", "reboot", "halt", "poweroff"},
}

// allowlists holds per-platform read-only tokens required under the safe
// policy.
var allowlists = map[string][]string{
	"powershell":  {"Get-Process", "Get-Service", "Get-ComputerInfo", "Get-Date", "Get-Location", "Get-ChildItem", "Get-Content", "Measure-Object", "Select-Object", "Where-Object", "Sort-Object", "Format-Table"},
	"applescript": {"get", "display notification", "display dialog", "current date", "name of", "count of", "exists", "properties of"},
	"bash":        {"ls", "pwd", "date", "whoami", "uname", "ps", "df", "du", "cat", "head", "tail", "grep", "wc", "sort", "uniq"},
}

// DangerousTokens returns the denylisted tokens the script contains for
// the platform. Matching is case-insensitive substring.
func DangerousTokens(script, platform string) []string {
	lower := strings.ToLower(script)
	var found []string
	for _, tok := range denylists[platform] {
		if strings.Contains(lower, strings.ToLower(tok)) {
			found = append(found, tok)
		}
	}
	return found
}

// hasAllowedToken reports whether the script mentions at least one
// allowlisted token for the platform.
func hasAllowedToken(script, platform string) bool {
	lower := strings.ToLower(script)
	for _, tok := range allowlists[platform] {
		if strings.Contains(lower, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

// knownPlatform reports whether platform names one of the three shells.
func knownPlatform(platform string) bool {
	switch platform {
	case "powershell", "applescript", "bash":
		return true
	}
	return false
}

// Admit applies the policy check to a script before it may run. The
// returned error carries the rejection reason, including the offending
// tokens when the denylist fires.
func Admit(script, platform string, policy Policy, timeoutSeconds int) error {
	if !knownPlatform(platform) {
		return fmt.Errorf("unsupported platform: %s", platform)
	}
	if !KnownPolicy(policy) {
		return fmt.Errorf("unknown policy: %s", policy)
	}
	if timeoutSeconds > MaxTimeoutSeconds {
		return fmt.Errorf("timeout %ds exceeds maximum %ds", timeoutSeconds, MaxTimeoutSeconds)
	}
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("empty script")
	}
	if tokens := DangerousTokens(script, platform); len(tokens) > 0 {
		return fmt.Errorf("script contains dangerous commands: %s", strings.Join(tokens, ", "))
	}
	if policy == PolicySafe && !hasAllowedToken(script, platform) {
		return fmt.Errorf("safe policy requires at least one read-only command for %s", platform)
	}
	return nil
}
