package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nextlevelbuilder/bk25/internal/channel/artifact"
	"github.com/nextlevelbuilder/bk25/internal/config"
	"github.com/nextlevelbuilder/bk25/internal/executor"
)

const testPersona = `{
	"id": "vanilla",
	"name": "Vanilla Assistant",
	"description": "A plain assistant",
	"greeting": "Hi, how can I help?",
	"systemPrompt": "You are a plain assistant."
}`

// fakeOllama serves the Ollama generate and tags endpoints with a fixed
// completion, capturing the last prompt.
func fakeOllama(t *testing.T, completion string) (*httptest.Server, *string) {
	t.Helper()
	var lastPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/generate":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			lastPrompt, _ = body["prompt"].(string)
			json.NewEncoder(w).Encode(map[string]any{"response": completion})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &lastPrompt
}

func newTestCore(t *testing.T, ollamaURL string) *Core {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vanilla.json"), []byte(testPersona), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Personas.Path = dir
	cfg.LLM.OllamaURL = ollamaURL
	cfg.Execution.MaxConcurrentTasks = 2

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewSurvivesMissingPersonaDir(t *testing.T) {
	cfg := config.Default()
	cfg.Personas.Path = filepath.Join(t.TempDir(), "does-not-exist")
	cfg.LLM.OllamaURL = "http://127.0.0.1:1"

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cur := c.CurrentPersona()
	if cur == nil || cur.SystemPrompt == "" {
		t.Fatalf("current persona = %+v", cur)
	}
	if cur.ID != "fallback" {
		t.Errorf("current = %q, want fallback", cur.ID)
	}
}

func TestChatExtractsCode(t *testing.T) {
	srv, lastPrompt := fakeOllama(t, "Sure, here you go:\n```bash\necho hi\n```\nRun it when ready.")
	c := newTestCore(t, srv.URL)

	resp, err := c.Chat(context.Background(), ChatRequest{Message: "write me a greeting script"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if strings.Contains(resp.Response, "```") {
		t.Errorf("visible response still contains fence: %q", resp.Response)
	}
	if !strings.Contains(resp.Response, codePlaceholder) {
		t.Errorf("placeholder missing: %q", resp.Response)
	}
	ec := resp.ExtractedCode
	if ec == nil || ec.Language != "bash" || ec.Code != "echo hi" {
		t.Fatalf("extracted = %+v", ec)
	}
	if !strings.HasPrefix(ec.Filename, "Generated Bash") || !strings.HasSuffix(ec.Filename, ".sh") {
		t.Errorf("filename = %q", ec.Filename)
	}

	if resp.Persona.ID != "vanilla" || resp.Channel.ID != "web" {
		t.Errorf("context = %+v %+v", resp.Persona, resp.Channel)
	}
	if !strings.Contains(*lastPrompt, "You are a plain assistant.") {
		t.Errorf("prompt not persona-conditioned: %q", *lastPrompt)
	}

	history := c.Conversations().History(resp.ConversationID, 0)
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("history = %+v", history)
	}
	if strings.Contains(history[1].Content, "```") {
		t.Error("stored assistant message should be the visible text")
	}
}

func TestChatValidation(t *testing.T) {
	srv, _ := fakeOllama(t, "hello")
	c := newTestCore(t, srv.URL)

	_, err := c.Chat(context.Background(), ChatRequest{Message: "   "})
	if err == nil || CodeOf(err) != CodeInvalidInput {
		t.Errorf("empty message: %v", err)
	}
	_, err = c.Chat(context.Background(), ChatRequest{Message: "hi", PersonaID: "ghost"})
	if err == nil || CodeOf(err) != CodeInvalidInput {
		t.Errorf("unknown persona: %v", err)
	}
	_, err = c.Chat(context.Background(), ChatRequest{Message: "hi", ChannelID: "fax"})
	if err == nil || CodeOf(err) != CodeInvalidInput {
		t.Errorf("unknown channel: %v", err)
	}
}

func TestChatLLMUnavailable(t *testing.T) {
	c := newTestCore(t, "http://127.0.0.1:1")
	_, err := c.Chat(context.Background(), ChatRequest{Message: "hello"})
	if err == nil || CodeOf(err) != CodeLLMUnavailable {
		t.Errorf("err = %v", err)
	}
}

func TestExtractFirstCodeBlock(t *testing.T) {
	visible, ec := extractFirstCodeBlock("plain answer, no code")
	if ec != nil || visible != "plain answer, no code" {
		t.Errorf("no-fence case: %q %+v", visible, ec)
	}

	_, ec = extractFirstCodeBlock("```\nmystery\n```")
	if ec == nil || ec.Language != "script" || ec.Filename != "Generated Script.txt" {
		t.Errorf("bare fence: %+v", ec)
	}

	visible, ec = extractFirstCodeBlock("first:\n```bash\necho one\n```\nsecond:\n```bash\necho two\n```")
	if ec == nil || ec.Code != "echo one" {
		t.Fatalf("first block not extracted: %+v", ec)
	}
	if !strings.Contains(visible, "echo two") {
		t.Errorf("second block should remain: %q", visible)
	}
}

func TestCodeFilename(t *testing.T) {
	for lang, want := range map[string]string{
		"bash":        "Generated Bash Script.sh",
		"powershell":  "Generated Powershell Script.ps1",
		"applescript": "Generated Applescript Script.scpt",
		"ruby":        "Generated Ruby Script.txt",
	} {
		if got := codeFilename(lang); got != want {
			t.Errorf("codeFilename(%q) = %q, want %q", lang, got, want)
		}
	}
}

func TestPersonaOperations(t *testing.T) {
	srv, _ := fakeOllama(t, "ok")
	c := newTestCore(t, srv.URL)

	if got := c.CurrentPersona(); got.ID != "vanilla" {
		t.Fatalf("current = %+v", got)
	}
	if _, err := c.SwitchPersona("nope"); CodeOf(err) != CodeNotFound {
		t.Errorf("switch unknown: %v", err)
	}
	if len(c.ListPersonas("")) != 1 {
		t.Errorf("list = %+v", c.ListPersonas(""))
	}
}

func TestChannelOperations(t *testing.T) {
	srv, _ := fakeOllama(t, "ok")
	c := newTestCore(t, srv.URL)

	if got := c.CurrentChannel(); got.ID != "web" {
		t.Fatalf("current = %+v", got)
	}
	sum, err := c.SwitchChannel("slack")
	if err != nil || sum.ID != "slack" {
		t.Fatalf("switch: %v %+v", err, sum)
	}
	if len(sum.ArtifactTypes) == 0 {
		t.Error("summary missing artifact types")
	}
	if _, err := c.SwitchChannel("fax"); CodeOf(err) != CodeNotFound {
		t.Errorf("switch unknown: %v", err)
	}
	if len(c.ListChannels()) != 7 {
		t.Errorf("channels = %d", len(c.ListChannels()))
	}
}

func TestGenerateArtifact(t *testing.T) {
	srv, _ := fakeOllama(t, "ok")
	c := newTestCore(t, srv.URL)

	result, err := c.GenerateArtifact(artifact.Request{
		ChannelID: "slack",
		Type:      "blocks",
		Content:   map[string]any{"title": "Report", "text": "done"},
	})
	if err != nil || !result.Success {
		t.Fatalf("artifact: %v %+v", err, result)
	}

	if _, err := c.GenerateArtifact(artifact.Request{ChannelID: "slack", Type: "adaptive_card"}); CodeOf(err) != CodeInvalidInput {
		t.Errorf("unsupported kind: %v", err)
	}
}

func TestGenerateScriptFallback(t *testing.T) {
	// No reachable LLM: the pipeline must still produce a script.
	c := newTestCore(t, "http://127.0.0.1:1")
	result := c.GenerateScript(context.Background(), "Get system information", "powershell", nil)
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	method := result.Metadata["generation_method"]
	if method != "template" && method != "basic_skeleton" {
		t.Errorf("method = %v", method)
	}
	if !strings.Contains(result.Script, "Write-Host") || !strings.Contains(result.Script, "try") {
		t.Errorf("script = %q", result.Script)
	}
}

func TestPlatforms(t *testing.T) {
	srv, _ := fakeOllama(t, "ok")
	c := newTestCore(t, srv.URL)
	platforms := c.Platforms()
	if len(platforms) != 3 {
		t.Fatalf("platforms = %+v", platforms)
	}
}

func TestTaskFacade(t *testing.T) {
	srv, _ := fakeOllama(t, "ok")
	c := newTestCore(t, srv.URL)
	c.Start()
	defer c.Shutdown(context.Background())

	if _, err := c.SubmitTask(executor.TaskDescriptor{Name: "bad", Script: "rm -rf /", Platform: "bash"}); CodeOf(err) != CodePolicyViolation {
		t.Errorf("dangerous submit: %v", err)
	}

	id, err := c.SubmitTask(executor.TaskDescriptor{Name: "ok", Script: "echo done", Platform: "bash"})
	if err != nil {
		t.Fatalf("SubmitTask: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		snap, err := c.TaskStatus(id)
		if err != nil {
			t.Fatalf("TaskStatus: %v", err)
		}
		if snap.Status.IsTerminal() {
			if snap.Status != executor.StatusCompleted {
				t.Fatalf("status = %s", snap.Status)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("task never finished")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := c.TaskStatus("ghost"); CodeOf(err) != CodeNotFound {
		t.Errorf("unknown task: %v", err)
	}
	if stats := c.TaskStatistics(); stats.TotalCompleted != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestExecuteThroughFacade(t *testing.T) {
	srv, _ := fakeOllama(t, "ok")
	c := newTestCore(t, srv.URL)

	result := c.Execute(context.Background(), executor.ExecutionRequest{
		Script:         "ls -la",
		Platform:       "bash",
		Policy:         executor.PolicySafe,
		TimeoutSeconds: 10,
	})
	if !result.Success || !strings.Contains(result.Output, "total ") {
		t.Fatalf("result = %+v", result)
	}
}
