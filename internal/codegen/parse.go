package codegen

import (
	"regexp"
	"strings"
)

var (
	fenceRe    = regexp.MustCompile("(?is)```(?:\\w+)?\\s*(.*?)```")
	nameLineRe = regexp.MustCompile(`(?i)(?:script name|name|title):\s*([^#\n]+)`)
	slugRe     = regexp.MustCompile(`[^\w\s-]`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// parsed is the post-processed form of raw generator output.
type parsed struct {
	Script        string
	Filename      string
	Documentation string
}

// parseScript strips markdown fencing, normalizes line endings, extracts
// the leading comment block as documentation and infers a filename.
func parseScript(raw, platform string) parsed {
	script := extractCodeBlock(raw)
	script = strings.ReplaceAll(script, "\r\n", "\n")
	script = strings.ReplaceAll(script, "\r", "\n")
	script = strings.TrimSpace(script)

	return parsed{
		Script:        script,
		Filename:      inferFilename(script, platform),
		Documentation: extractDocumentation(script, platform),
	}
}

// extractCodeBlock pulls the first fenced block out of markdown-ish text,
// or returns the text unchanged when there is no fence.
func extractCodeBlock(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// extractDocumentation collects the leading comment block, skipping any
// shebang line.
func extractDocumentation(script, platform string) string {
	prefix := "#"
	if platform == PlatformAppleScript {
		prefix = "--"
	}

	var doc []string
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#!") {
			continue
		}
		if trimmed == "" {
			if len(doc) > 0 {
				break
			}
			continue
		}
		if !strings.HasPrefix(trimmed, prefix) {
			break
		}
		doc = append(doc, strings.TrimSpace(strings.TrimPrefix(trimmed, prefix)))
	}
	return strings.Join(doc, "\n")
}

// inferFilename derives a filename from a name/title comment near the top
// of the script, falling back to "<platform>_automation".
func inferFilename(script, platform string) string {
	ext := fileExtensions[platform]
	lines := strings.Split(script, "\n")
	limit := len(lines)
	if limit > 10 {
		limit = 10
	}
	for _, line := range lines[:limit] {
		lower := strings.ToLower(strings.TrimSpace(line))
		if !strings.Contains(lower, "script name:") && !strings.Contains(lower, "name:") && !strings.Contains(lower, "title:") {
			continue
		}
		if m := nameLineRe.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			name = slugRe.ReplaceAllString(name, "")
			name = spaceRe.ReplaceAllString(strings.TrimSpace(name), "_")
			if name != "" {
				return strings.ToLower(name) + ext
			}
		}
	}
	return platform + "_automation" + ext
}
