package prompt

import (
	"encoding/json"
	"strings"
	"testing"
)

func baseContext() Context {
	return Context{
		PersonaID:          "vanilla",
		PersonaName:        "Vanilla",
		PersonaDescription: "Plain assistant",
		ChannelID:          "web",
		ChannelName:        "Web Interface",
	}
}

func TestForGenerationPlatformProfiles(t *testing.T) {
	tests := []struct {
		platform   string
		systemHint string
		formatHint string
	}{
		{"powershell", "PowerShell automation engineer", ".ps1 file"},
		{"applescript", "AppleScript automation engineer", ".scpt file"},
		{"bash", "Bash automation engineer", ".sh file"},
	}
	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			p := ForGeneration("list files", tt.platform, baseContext(), nil)
			if !strings.Contains(p.SystemMessage, tt.systemHint) {
				t.Errorf("system message missing %q", tt.systemHint)
			}
			if !strings.Contains(p.OutputFormat, tt.formatHint) {
				t.Errorf("output format missing %q", tt.formatHint)
			}
			if len(p.Constraints) != 5 {
				t.Errorf("constraints = %d, want 5", len(p.Constraints))
			}
		})
	}
}

func TestForGenerationUnknownPlatformFallsBackToBash(t *testing.T) {
	p := ForGeneration("do things", "cobol", baseContext(), nil)
	if !strings.Contains(p.SystemMessage, "Bash automation engineer") {
		t.Error("unknown platform did not fall back to bash system message")
	}
	if !strings.Contains(p.OutputFormat, ".sh file") {
		t.Error("unknown platform did not fall back to bash output format")
	}
}

func TestPersonaEnhancement(t *testing.T) {
	ctx := baseContext()
	ctx.PersonaCapabilities = []string{"automation", "scripting"}

	p := ForGeneration("list files", "bash", ctx, nil)
	if !strings.Contains(p.SystemMessage, "Additional Context:") {
		t.Fatal("missing enhancement block")
	}
	if !strings.Contains(p.SystemMessage, "Persona: Vanilla - Plain assistant") {
		t.Error("missing persona line")
	}
	if !strings.Contains(p.SystemMessage, "Capabilities: automation, scripting") {
		t.Error("missing capabilities line")
	}
}

func TestChannelEnhancementSkipsWeb(t *testing.T) {
	p := ForGeneration("list files", "bash", baseContext(), nil)
	if strings.Contains(p.SystemMessage, "Adapt output for") {
		t.Error("web channel should not add a channel enhancement")
	}

	ctx := baseContext()
	ctx.ChannelID = "slack"
	ctx.ChannelName = "Slack"
	p = ForGeneration("list files", "bash", ctx, nil)
	if !strings.Contains(p.SystemMessage, "Channel: Slack - Adapt output for slack communication") {
		t.Error("missing channel enhancement")
	}
}

func TestHistorySummaryUsesLastThree(t *testing.T) {
	ctx := baseContext()
	ctx.History = []HistoryMessage{
		{Role: "user", Content: "old message"},
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: "third"},
	}

	p := ForGeneration("list files", "bash", ctx, nil)
	if strings.Contains(p.SystemMessage, "old message") {
		t.Error("summary included messages beyond the last three")
	}
	if !strings.Contains(p.SystemMessage, "User requested: first...") {
		t.Error("summary missing user turn")
	}
	if !strings.Contains(p.SystemMessage, "Assistant provided: second...") {
		t.Error("summary missing assistant turn")
	}
	if !strings.Contains(p.Context, "Recent Conversation: 4 messages available") {
		t.Errorf("context = %q", p.Context)
	}
}

func TestUserPreferences(t *testing.T) {
	ctx := baseContext()
	ctx.PersonaCapabilities = []string{"x"}
	ctx.UserPreferences = map[string]bool{"verbose": true, "enterprise": true}

	p := ForGeneration("list files", "bash", ctx, nil)
	if !strings.Contains(p.SystemMessage, "prefer verbose output with detailed comments") {
		t.Error("missing verbose preference")
	}
	if !strings.Contains(p.SystemMessage, "enterprise-grade security and compliance") {
		t.Error("missing enterprise preference")
	}
}

func TestUserPromptOptions(t *testing.T) {
	p := ForGeneration("rotate logs", "bash", baseContext(), &Options{
		IncludeTests:   true,
		IncludeLogging: true,
		IncludeHelp:    true,
	})
	for _, want := range []string{
		"Create a bash script for: rotate logs",
		"Include unit tests or validation checks",
		"Include logging and audit trail functionality",
		"Include detailed help and usage information",
		"portable and handles different Unix/Linux environments",
	} {
		if !strings.Contains(p.UserPrompt, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	if strings.Contains(p.UserPrompt, "inline documentation") {
		t.Error("user prompt includes option that was not requested")
	}
}

func TestOptionsBindSnakeCase(t *testing.T) {
	var opts Options
	body := `{
		"include_tests": true,
		"include_error_handling": true,
		"include_parameter_validation": true,
		"max_tokens": 4096,
		"preferences": {"minimal": true}
	}`
	if err := json.Unmarshal([]byte(body), &opts); err != nil {
		t.Fatal(err)
	}
	if !opts.IncludeTests || !opts.IncludeErrorHandling || !opts.IncludeParameterValidation {
		t.Errorf("toggles did not bind: %+v", opts)
	}
	if opts.MaxTokens != 4096 {
		t.Errorf("max_tokens = %d", opts.MaxTokens)
	}
	if !opts.Preferences["minimal"] {
		t.Errorf("preferences = %v", opts.Preferences)
	}
}

func TestOptionPreferencesReachSystemMessage(t *testing.T) {
	p := ForGeneration("list files", "bash", baseContext(), &Options{
		Preferences: map[string]bool{"minimal": true},
	})
	if !strings.Contains(p.SystemMessage, "prefer minimal, concise code") {
		t.Error("option preferences did not reach the system message")
	}

	ctx := baseContext()
	ctx.UserPreferences = map[string]bool{"verbose": true}
	p = ForGeneration("list files", "bash", ctx, &Options{
		Preferences: map[string]bool{"enterprise": true},
	})
	if !strings.Contains(p.SystemMessage, "prefer verbose output") ||
		!strings.Contains(p.SystemMessage, "enterprise-grade security") {
		t.Error("context and option preferences were not merged")
	}
}

func TestRelevantExamples(t *testing.T) {
	p := ForGeneration("backup my files and process them", "bash", baseContext(), nil)
	joined := strings.Join(p.Examples, "\n")
	if !strings.Contains(joined, "Backup automation examples") {
		t.Error("missing backup example hint")
	}
	if !strings.Contains(joined, "File processing examples") {
		t.Error("missing file processing example hint")
	}
}

func TestForImprovement(t *testing.T) {
	p := ForImprovement("echo hi", "add error handling", "bash", baseContext())
	if !strings.Contains(p.UserPrompt, "FEEDBACK: add error handling") {
		t.Error("missing feedback section")
	}
	if !strings.Contains(p.UserPrompt, "ORIGINAL SCRIPT:\necho hi") {
		t.Error("missing original script")
	}
	if len(p.Constraints) == 0 {
		t.Error("improvement prompt should carry quality constraints")
	}
}

func TestForValidation(t *testing.T) {
	p := ForValidation("echo hi", "bash", baseContext())
	if !strings.Contains(p.SystemMessage, "validation score (1-10)") {
		t.Error("missing scoring instruction")
	}
	if !strings.Contains(p.UserPrompt, "echo hi") {
		t.Error("missing script body")
	}
	if len(p.Constraints) != 0 {
		t.Error("validation prompt should not carry generation constraints")
	}
}

func TestRenderOrder(t *testing.T) {
	p := &GenerationPrompt{
		SystemMessage: "SYSTEM",
		UserPrompt:    "USER",
		Context:       "CONTEXT",
		Constraints:   []string{"c1"},
		OutputFormat:  "FORMAT",
	}
	out := p.Render()
	sys := strings.Index(out, "SYSTEM")
	ctx := strings.Index(out, "CONTEXT")
	con := strings.Index(out, "- c1")
	usr := strings.Index(out, "USER")
	fmtIdx := strings.Index(out, "FORMAT")
	if !(sys < ctx && ctx < con && con < usr && usr < fmtIdx) {
		t.Errorf("render order wrong:\n%s", out)
	}
}
