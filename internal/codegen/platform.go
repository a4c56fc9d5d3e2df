// Package codegen turns natural-language automation requests into
// PowerShell, AppleScript or Bash scripts. Generation prefers the LLM and
// falls back to templates, then to a basic skeleton.
package codegen

import "strings"

// Supported platforms and their script extensions.
const (
	PlatformPowerShell  = "powershell"
	PlatformAppleScript = "applescript"
	PlatformBash        = "bash"
	PlatformAuto        = "auto"
)

var fileExtensions = map[string]string{
	PlatformPowerShell:  ".ps1",
	PlatformAppleScript: ".scpt",
	PlatformBash:        ".sh",
}

var platformKeywords = []struct {
	platform string
	keywords []string
}{
	{PlatformPowerShell, []string{"windows", "active directory", "powershell", "exchange", "office 365"}},
	{PlatformAppleScript, []string{"mac", "macos", "finder", "safari", "system preferences"}},
	{PlatformBash, []string{"linux", "unix", "bash", "systemctl", "apt", "yum"}},
}

// automationPatterns maps a named pattern to its platform preference order.
var automationPatterns = []struct {
	name      string
	platforms []string
}{
	{"file_processing", []string{PlatformPowerShell, PlatformBash, PlatformAppleScript}},
	{"system_monitoring", []string{PlatformBash, PlatformPowerShell}},
	{"backup_automation", []string{PlatformBash, PlatformPowerShell}},
	{"email_automation", []string{PlatformPowerShell, PlatformBash}},
	{"active_directory", []string{PlatformPowerShell}},
	{"mac_automation", []string{PlatformAppleScript}},
	{"linux_admin", []string{PlatformBash}},
	{"cross_platform", []string{PlatformBash, PlatformPowerShell}},
}

// SupportedPlatforms lists the generatable platforms.
func SupportedPlatforms() []string {
	return []string{PlatformPowerShell, PlatformAppleScript, PlatformBash}
}

// IsSupported reports whether platform names a known script target.
func IsSupported(platform string) bool {
	_, ok := fileExtensions[platform]
	return ok
}

// DetectPlatform resolves "auto" to a concrete platform by keyword
// precedence, then automation patterns, then the bash default. Concrete
// platforms pass through unchanged.
func DetectPlatform(description, platform string) string {
	if platform != PlatformAuto {
		return platform
	}

	lower := strings.ToLower(description)
	for _, pk := range platformKeywords {
		for _, kw := range pk.keywords {
			if strings.Contains(lower, kw) {
				return pk.platform
			}
		}
	}

	for _, p := range automationPatterns {
		if strings.Contains(lower, strings.ReplaceAll(p.name, "_", " ")) {
			return p.platforms[0]
		}
	}

	return PlatformBash
}

// Suggestion recommends a platform for a detected automation pattern.
type Suggestion struct {
	Pattern             string   `json:"pattern"`
	Platforms           []string `json:"platforms"`
	Description         string   `json:"description"`
	RecommendedPlatform string   `json:"recommended_platform"`
}

// Suggestions surveys the description for automation patterns and
// platform-specific hints.
func Suggestions(description string) []Suggestion {
	lower := strings.ToLower(description)
	var out []Suggestion

	for _, p := range automationPatterns {
		readable := strings.ReplaceAll(p.name, "_", " ")
		if strings.Contains(lower, readable) {
			out = append(out, Suggestion{
				Pattern:             p.name,
				Platforms:           p.platforms,
				Description:         "Detected " + readable + " pattern",
				RecommendedPlatform: p.platforms[0],
			})
		}
	}

	if strings.Contains(lower, "windows") || strings.Contains(lower, "active directory") {
		out = append(out, Suggestion{
			Pattern:             "windows_enterprise",
			Platforms:           []string{PlatformPowerShell},
			Description:         "Windows enterprise environment detected",
			RecommendedPlatform: PlatformPowerShell,
		})
	}
	if strings.Contains(lower, "mac") || strings.Contains(lower, "macos") {
		out = append(out, Suggestion{
			Pattern:             "mac_automation",
			Platforms:           []string{PlatformAppleScript},
			Description:         "macOS automation detected",
			RecommendedPlatform: PlatformAppleScript,
		})
	}
	if strings.Contains(lower, "linux") || strings.Contains(lower, "unix") {
		out = append(out, Suggestion{
			Pattern:             "linux_unix",
			Platforms:           []string{PlatformBash},
			Description:         "Linux/Unix environment detected",
			RecommendedPlatform: PlatformBash,
		})
	}
	return out
}

// PlatformInfo describes one platform's generation capabilities.
type PlatformInfo struct {
	Platform      string   `json:"platform"`
	FileExtension string   `json:"file_extension"`
	Templates     []string `json:"templates"`
}

// InfoFor returns capabilities for a platform, or nil for unknown ones.
func InfoFor(platform string) *PlatformInfo {
	ext, ok := fileExtensions[platform]
	if !ok {
		return nil
	}
	var names []string
	for _, t := range templatesFor(platform) {
		names = append(names, t.Name)
	}
	return &PlatformInfo{Platform: platform, FileExtension: ext, Templates: names}
}
