package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDescriptor(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

const vanillaJSON = `{
	"id": "vanilla",
	"name": "Vanilla",
	"description": "Plain assistant",
	"greeting": "Hi there.",
	"systemPrompt": "You are a plain assistant.",
	"capabilities": ["chat"],
	"examples": ["say hi"]
}`

const pirateJSON = `{
	"id": "pirate",
	"name": "Pirate",
	"description": "Talks like a pirate",
	"greeting": "Ahoy!",
	"systemPrompt": "You are a pirate.",
	"channels": ["slack"]
}`

func newTestRegistry(t *testing.T, files map[string]string) *Registry {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		writeDescriptor(t, dir, name, body)
	}
	r := NewRegistry(dir)
	if err := r.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	return r
}

func TestLoadAllSkipsInvalidFiles(t *testing.T) {
	r := newTestRegistry(t, map[string]string{
		"vanilla.json": vanillaJSON,
		"broken.json":  `{"id": "broken"`,
		"nofield.json": `{"id": "x", "name": "X"}`,
	})

	if got := len(r.List()); got != 1 {
		t.Fatalf("expected 1 persona, got %d", got)
	}
	if r.Current().ID != "vanilla" {
		t.Errorf("current = %q, want vanilla", r.Current().ID)
	}
}

func TestLoadAllEmptyDirSynthesizesFallback(t *testing.T) {
	r := newTestRegistry(t, nil)

	cur := r.Current()
	if cur == nil {
		t.Fatal("current is nil after LoadAll")
	}
	if cur.ID != "fallback" {
		t.Errorf("current = %q, want fallback", cur.ID)
	}
	if cur.SystemPrompt == "" || cur.Greeting == "" {
		t.Error("fallback persona missing prompt or greeting")
	}
}

func TestDefaultCurrentOrder(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name: "vanilla wins",
			files: map[string]string{
				"a.json":       strings.Replace(pirateJSON, `"pirate"`, `"aaa"`, 1),
				"vanilla.json": vanillaJSON,
			},
			want: "vanilla",
		},
		{
			name: "default when no vanilla",
			files: map[string]string{
				"a.json": strings.Replace(pirateJSON, `"pirate"`, `"aaa"`, 1),
				"d.json": strings.Replace(pirateJSON, `"pirate"`, `"default"`, 1),
			},
			want: "default",
		},
		{
			name: "first loaded otherwise",
			files: map[string]string{
				"z.json": pirateJSON,
				"a.json": strings.Replace(pirateJSON, `"pirate"`, `"aaa"`, 1),
			},
			want: "aaa",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(t, tt.files)
			if got := r.Current().ID; got != tt.want {
				t.Errorf("current = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSwitchUnknownIDKeepsCurrent(t *testing.T) {
	r := newTestRegistry(t, map[string]string{
		"vanilla.json": vanillaJSON,
		"pirate.json":  pirateJSON,
	})

	if p := r.Switch("nope"); p != nil {
		t.Errorf("Switch(unknown) = %v, want nil", p)
	}
	if r.Current().ID != "vanilla" {
		t.Errorf("current changed to %q after failed switch", r.Current().ID)
	}

	if p := r.Switch("pirate"); p == nil || p.ID != "pirate" {
		t.Fatalf("Switch(pirate) = %v", p)
	}
	if r.Current().ID != "pirate" {
		t.Errorf("current = %q, want pirate", r.Current().ID)
	}
}

func TestListForChannel(t *testing.T) {
	r := newTestRegistry(t, map[string]string{
		"vanilla.json": vanillaJSON,
		"pirate.json":  pirateJSON,
	})

	slack := r.ListForChannel("slack")
	if len(slack) != 2 {
		t.Fatalf("slack personas = %d, want 2", len(slack))
	}
	web := r.ListForChannel("web")
	if len(web) != 1 || web[0].ID != "vanilla" {
		t.Fatalf("web personas = %v, want [vanilla]", web)
	}
}

func TestAddCustomSurvivesReload(t *testing.T) {
	r := newTestRegistry(t, map[string]string{"vanilla.json": vanillaJSON})

	_, err := r.AddCustom(&Persona{
		ID:           "custom1",
		Name:         "Custom",
		Description:  "Runtime persona",
		Greeting:     "Hey.",
		SystemPrompt: "Custom prompt.",
	})
	if err != nil {
		t.Fatalf("AddCustom: %v", err)
	}

	if _, err := r.AddCustom(&Persona{ID: "custom1", Name: "n", Description: "d", Greeting: "g", SystemPrompt: "s"}); err == nil {
		t.Error("duplicate AddCustom succeeded")
	}

	r.Switch("custom1")
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if r.Get("custom1") == nil {
		t.Fatal("custom persona lost on reload")
	}
	if r.Current().ID != "custom1" {
		t.Errorf("current = %q, want custom1 preserved across reload", r.Current().ID)
	}
}

func TestAddCustomRejectsIncomplete(t *testing.T) {
	r := newTestRegistry(t, map[string]string{"vanilla.json": vanillaJSON})
	_, err := r.AddCustom(&Persona{ID: "x", Name: "X"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildPrompt(t *testing.T) {
	r := newTestRegistry(t, map[string]string{"vanilla.json": vanillaJSON})

	got := r.BuildPrompt("do the thing", []HistoryMessage{
		{Role: "User", Content: "hello"},
		{Role: "Assistant", Content: "hi"},
	})

	want := "You are a plain assistant.\n\nConversation history:\nUser: hello\nAssistant: hi\n\nUser: do the thing\nAssistant:"
	if got != want {
		t.Errorf("BuildPrompt mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestBuildPromptEmptyHistory(t *testing.T) {
	r := newTestRegistry(t, map[string]string{"vanilla.json": vanillaJSON})

	got := r.BuildPrompt("hi", nil)
	if !strings.HasPrefix(got, "You are a plain assistant.\n\nConversation history:\n") {
		t.Errorf("missing system prompt prefix: %q", got)
	}
	if !strings.HasSuffix(got, "\nUser: hi\nAssistant:") {
		t.Errorf("missing user/assistant suffix: %q", got)
	}
}

func TestLoadFileRetainsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "x.json", `{
		"id": "x", "name": "X", "description": "d", "greeting": "g",
		"systemPrompt": "s",
		"voice": {"provider": "elevenlabs"}
	}`)

	p, err := loadFile(filepath.Join(dir, "x.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Extra["voice"]; !ok {
		t.Error("unknown field not retained in Extra")
	}
}

func TestPersonalityDefaults(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "x.json", `{
		"id": "x", "name": "X", "description": "d", "greeting": "g",
		"systemPrompt": "s",
		"personality": {"tone": "snarky"}
	}`)

	p, err := loadFile(filepath.Join(dir, "x.json"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Personality.Tone != "snarky" {
		t.Errorf("tone = %q", p.Personality.Tone)
	}
	if p.Personality.Approach != "helpful" {
		t.Errorf("approach default = %q", p.Personality.Approach)
	}
}
