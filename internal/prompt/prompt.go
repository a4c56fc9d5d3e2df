// Package prompt composes persona- and platform-aware prompts for script
// generation, improvement and review.
package prompt

import (
	"fmt"
	"strings"
)

// Context carries everything the composer knows about the conversation.
type Context struct {
	PersonaID           string
	PersonaName         string
	PersonaDescription  string
	PersonaCapabilities []string
	ChannelID           string
	ChannelName         string
	History             []HistoryMessage
	UserPreferences     map[string]bool
	SystemContext       string
}

// HistoryMessage is one prior conversation turn.
type HistoryMessage struct {
	Role    string
	Content string
}

// GenerationPrompt is the structured prompt handed to the LLM dispatcher.
type GenerationPrompt struct {
	SystemMessage string
	UserPrompt    string
	Context       string
	Examples      []string
	Constraints   []string
	OutputFormat  string
}

// Render flattens the structured prompt into one completion string.
func (p *GenerationPrompt) Render() string {
	var b strings.Builder
	b.WriteString(p.SystemMessage)
	if p.Context != "" {
		b.WriteString("\n\n")
		b.WriteString(p.Context)
	}
	if len(p.Constraints) > 0 {
		b.WriteString("\n\nConstraints:\n")
		for _, c := range p.Constraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	b.WriteString("\n")
	b.WriteString(p.UserPrompt)
	if p.OutputFormat != "" {
		b.WriteString("\n\n")
		b.WriteString(p.OutputFormat)
	}
	return b.String()
}

var systemMessages = map[string]string{
	"powershell": `You are an expert PowerShell automation engineer. You create production-ready, enterprise-grade PowerShell scripts that follow Microsoft best practices.

Key Requirements:
- Always include proper error handling with try/catch blocks
- Use parameter validation and help documentation
- Follow PowerShell naming conventions and style guidelines
- Include Write-Host for user feedback and progress indication
- Make scripts robust and suitable for production environments
- Handle edge cases and provide meaningful error messages
- Use approved PowerShell cmdlets and avoid deprecated commands`,

	"applescript": `You are an expert AppleScript automation engineer. You create production-ready, user-friendly AppleScripts that follow Apple's best practices.

Key Requirements:
- Always include proper error handling with try/on error blocks
- Use display notification and display dialog for user feedback
- Check application availability before controlling them
- Follow AppleScript naming conventions and style guidelines
- Make scripts robust and suitable for production use
- Handle edge cases gracefully with user-friendly messages
- Use modern AppleScript syntax and avoid deprecated commands`,

	"bash": `You are an expert Bash automation engineer. You create production-ready, portable Bash scripts that follow Unix/Linux best practices.

Key Requirements:
- Always include proper error handling with set -e and trap
- Use parameter validation and help functions
- Follow Bash naming conventions and style guidelines
- Include echo statements for user feedback and progress
- Make scripts robust and suitable for production use
- Handle edge cases and provide meaningful error messages
- Use portable commands and avoid system-specific features`,
}

var qualityConstraints = map[string][]string{
	"powershell": {
		"Must include parameter validation",
		"Must use try/catch error handling",
		"Must include Write-Host for user feedback",
		"Must follow PowerShell naming conventions",
		"Must be suitable for enterprise environments",
	},
	"applescript": {
		"Must include error handling with try/on error",
		"Must check application availability",
		"Must use display notification for feedback",
		"Must follow AppleScript conventions",
		"Must be user-friendly and robust",
	},
	"bash": {
		"Must include set -e and trap for error handling",
		"Must validate parameters and provide help",
		"Must use echo for user feedback",
		"Must follow Bash conventions",
		"Must be portable and robust",
	},
}

var outputFormats = map[string]string{
	"powershell": "Generate only the PowerShell script code. Do not include markdown formatting, explanations, or additional text. The output should be a complete, executable PowerShell script that can be saved directly to a .ps1 file.",
	"applescript": "Generate only the AppleScript code. Do not include markdown formatting, explanations, or additional text. The output should be a complete, executable AppleScript that can be saved directly to a .scpt file.",
	"bash":        "Generate only the Bash script code. Do not include markdown formatting, explanations, or additional text. The output should be a complete, executable Bash script that can be saved directly to a .sh file.",
}

// Options toggle extra requirements appended to the user prompt. The
// json names are the API's option keys.
type Options struct {
	IncludeTests               bool `json:"include_tests,omitempty"`
	IncludeDocumentation       bool `json:"include_documentation,omitempty"`
	IncludeLogging             bool `json:"include_logging,omitempty"`
	IncludeErrorHandling       bool `json:"include_error_handling,omitempty"`
	IncludeParameterValidation bool `json:"include_parameter_validation,omitempty"`
	IncludeHelp                bool `json:"include_help,omitempty"`
	IncludeExamples            bool `json:"include_examples,omitempty"`

	// MaxTokens overrides the configured completion budget when positive.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Preferences are style flags (verbose, minimal, enterprise) folded
	// into the prompt context.
	Preferences map[string]bool `json:"preferences,omitempty"`
}

// ForGeneration builds the full script generation prompt. Unknown platforms
// fall back to the bash profile.
func ForGeneration(description, platform string, ctx Context, opts *Options) *GenerationPrompt {
	system, ok := systemMessages[platform]
	if !ok {
		system = systemMessages["bash"]
	}
	if opts != nil && len(opts.Preferences) > 0 {
		merged := make(map[string]bool, len(ctx.UserPreferences)+len(opts.Preferences))
		for k, v := range ctx.UserPreferences {
			merged[k] = v
		}
		for k, v := range opts.Preferences {
			merged[k] = v
		}
		ctx.UserPreferences = merged
	}
	format, ok := outputFormats[platform]
	if !ok {
		format = outputFormats["bash"]
	}

	return &GenerationPrompt{
		SystemMessage: enhanceSystemMessage(system, ctx),
		UserPrompt:    buildUserPrompt(description, platform, opts),
		Context:       buildContextInfo(ctx),
		Examples:      relevantExamples(description),
		Constraints:   qualityConstraints[platform],
		OutputFormat:  format,
	}
}

// ForImprovement builds a prompt that revises an existing script against
// user feedback.
func ForImprovement(original, feedback, platform string, ctx Context) *GenerationPrompt {
	system := fmt.Sprintf(`You are an expert %s automation engineer tasked with improving an existing script based on user feedback.

Your task is to:
1. Analyze the existing script
2. Understand the user's feedback and requirements
3. Improve the script while maintaining its core functionality
4. Ensure all improvements follow %s best practices
5. Provide a complete, improved version of the script

Focus on addressing the specific feedback while maintaining or improving code quality.`, platform, platform)

	user := fmt.Sprintf(`Improve the following %s script based on this feedback:

FEEDBACK: %s

ORIGINAL SCRIPT:
%s

Please provide an improved version that addresses the feedback while maintaining the script's core functionality.`, platform, feedback, original)

	format, ok := outputFormats[platform]
	if !ok {
		format = outputFormats["bash"]
	}
	return &GenerationPrompt{
		SystemMessage: system,
		UserPrompt:    user,
		Context:       buildContextInfo(ctx),
		Constraints:   qualityConstraints[platform],
		OutputFormat:  format,
	}
}

// ForValidation builds a prompt asking for a structured script review.
func ForValidation(script, platform string, ctx Context) *GenerationPrompt {
	system := fmt.Sprintf(`You are an expert %s code reviewer and automation engineer. Your task is to analyze the provided script and provide:

1. A validation score (1-10)
2. Specific issues found
3. Improvement suggestions
4. Security considerations
5. Best practice recommendations

Be thorough but constructive in your feedback.`, platform)

	user := fmt.Sprintf(`Please review and validate this %s script:

%s

Provide a comprehensive analysis including validation score, issues, improvements, and recommendations.`, platform, script)

	return &GenerationPrompt{
		SystemMessage: system,
		UserPrompt:    user,
		Context:       buildContextInfo(ctx),
		OutputFormat:  "Provide your analysis in a structured format with clear sections for each aspect of the review.",
	}
}

func enhanceSystemMessage(base string, ctx Context) string {
	var enhancements []string

	if len(ctx.PersonaCapabilities) > 0 {
		enhancements = append(enhancements,
			fmt.Sprintf("Persona: %s - %s", ctx.PersonaName, ctx.PersonaDescription),
			fmt.Sprintf("Capabilities: %s", strings.Join(ctx.PersonaCapabilities, ", ")))
	}

	if ctx.ChannelID != "" && ctx.ChannelID != "web" {
		enhancements = append(enhancements,
			fmt.Sprintf("Channel: %s - Adapt output for %s communication", ctx.ChannelName, ctx.ChannelID))
	}

	if len(ctx.History) > 0 {
		recent := ctx.History
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		if summary := summarizeHistory(recent); summary != "" {
			enhancements = append(enhancements, fmt.Sprintf("Conversation Context: %s", summary))
		}
	}

	if prefs := preferenceNotes(ctx.UserPreferences); len(prefs) > 0 {
		enhancements = append(enhancements,
			fmt.Sprintf("User Preferences: %s", strings.Join(prefs, ", ")))
	}

	if len(enhancements) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nAdditional Context:\n")
	for _, e := range enhancements {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	return strings.TrimRight(b.String(), "\n")
}

func preferenceNotes(prefs map[string]bool) []string {
	var out []string
	if prefs["verbose"] {
		out = append(out, "prefer verbose output with detailed comments")
	}
	if prefs["minimal"] {
		out = append(out, "prefer minimal, concise code")
	}
	if prefs["enterprise"] {
		out = append(out, "focus on enterprise-grade security and compliance")
	}
	return out
}

func buildUserPrompt(description, platform string, opts *Options) string {
	parts := []string{fmt.Sprintf("Create a %s script for: %s", platform, description)}

	if opts != nil {
		if opts.IncludeTests {
			parts = append(parts, "Include unit tests or validation checks")
		}
		if opts.IncludeDocumentation {
			parts = append(parts, "Include comprehensive inline documentation")
		}
		if opts.IncludeLogging {
			parts = append(parts, "Include logging and audit trail functionality")
		}
		if opts.IncludeErrorHandling {
			parts = append(parts, "Include robust error handling and recovery")
		}
		if opts.IncludeParameterValidation {
			parts = append(parts, "Include comprehensive parameter validation")
		}
		if opts.IncludeHelp {
			parts = append(parts, "Include detailed help and usage information")
		}
		if opts.IncludeExamples {
			parts = append(parts, "Include usage examples in comments")
		}
	}

	switch platform {
	case "powershell":
		parts = append(parts, "Ensure the script follows PowerShell execution policy best practices")
	case "applescript":
		parts = append(parts, "Ensure the script provides clear user feedback and handles errors gracefully")
	case "bash":
		parts = append(parts, "Ensure the script is portable and handles different Unix/Linux environments")
	}

	return strings.Join(parts, "\n")
}

func buildContextInfo(ctx Context) string {
	parts := []string{
		fmt.Sprintf("Persona: %s", ctx.PersonaName),
		fmt.Sprintf("Description: %s", ctx.PersonaDescription),
		fmt.Sprintf("Channel: %s", ctx.ChannelName),
	}
	if ctx.SystemContext != "" {
		parts = append(parts, fmt.Sprintf("System Context: %s", ctx.SystemContext))
	}
	if len(ctx.History) > 0 {
		parts = append(parts, fmt.Sprintf("Recent Conversation: %d messages available", len(ctx.History)))
	}
	return strings.Join(parts, "\n")
}

func relevantExamples(description string) []string {
	var examples []string
	lower := strings.ToLower(description)

	if strings.Contains(lower, "file") && strings.Contains(lower, "process") {
		examples = append(examples, "File processing examples available for reference")
	}
	if strings.Contains(lower, "system") && strings.Contains(lower, "monitor") {
		examples = append(examples, "System monitoring examples available for reference")
	}
	if strings.Contains(lower, "backup") {
		examples = append(examples, "Backup automation examples available for reference")
	}
	if strings.Contains(lower, "email") {
		examples = append(examples, "Email automation examples available for reference")
	}
	return examples
}

func summarizeHistory(messages []HistoryMessage) string {
	var parts []string
	for _, m := range messages {
		content := m.Content
		if len(content) > 100 {
			content = content[:100]
		}
		switch m.Role {
		case "user":
			parts = append(parts, fmt.Sprintf("User requested: %s...", content))
		case "assistant":
			parts = append(parts, fmt.Sprintf("Assistant provided: %s...", content))
		}
	}
	return strings.Join(parts, " | ")
}
