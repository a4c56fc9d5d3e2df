package sqlitestore

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, maxConvs, maxMsgs int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "bk25.db"), maxConvs, maxMsgs)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t, 10, 10)

	conv := s.Create("c1", "vanilla", "web")
	if conv == nil || conv.ID != "c1" {
		t.Fatalf("create = %+v", conv)
	}

	got := s.Get("c1")
	if got == nil || got.PersonaID != "vanilla" || got.Channel != "web" {
		t.Fatalf("get = %+v", got)
	}
	if s.Get("missing") != nil {
		t.Error("get missing should be nil")
	}
}

func TestCreateExistingReturnsOriginal(t *testing.T) {
	s := newTestStore(t, 10, 10)
	s.Create("c1", "vanilla", "web")

	again := s.Create("c1", "pirate", "slack")
	if again.PersonaID != "vanilla" {
		t.Errorf("re-create changed persona: %q", again.PersonaID)
	}
}

func TestMessageTrim(t *testing.T) {
	s := newTestStore(t, 10, 3)
	s.Create("c", "vanilla", "web")

	for i := 0; i < 5; i++ {
		if !s.AddMessage("c", "user", fmt.Sprintf("m%d", i), nil) {
			t.Fatalf("AddMessage m%d failed", i)
		}
	}

	msgs := s.History("c", 0)
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	if msgs[0].Content != "m2" {
		t.Errorf("oldest surviving = %q, want m2", msgs[0].Content)
	}
}

func TestConversationEviction(t *testing.T) {
	s := newTestStore(t, 2, 10)
	s.Create("a", "vanilla", "web")
	s.Create("b", "vanilla", "web")
	s.AddMessage("a", "user", "touch", nil)
	s.Create("c", "vanilla", "web")

	if s.Get("b") != nil {
		t.Error("least recently updated conversation survived")
	}
	if s.Get("a") == nil || s.Get("c") == nil {
		t.Error("wrong conversation evicted")
	}
}

func TestSwitchPersona(t *testing.T) {
	s := newTestStore(t, 10, 10)
	s.Create("c", "vanilla", "web")

	if !s.SwitchPersona("c", "pirate") {
		t.Fatal("switch failed")
	}
	conv := s.Get("c")
	if conv.PersonaID != "pirate" {
		t.Errorf("persona = %q", conv.PersonaID)
	}
	last := conv.Messages[len(conv.Messages)-1]
	if last.Role != "system" || !strings.Contains(last.Content, "vanilla to pirate") {
		t.Errorf("system message = %+v", last)
	}
}

func TestContextHeader(t *testing.T) {
	s := newTestStore(t, 10, 10)
	s.Create("c7", "pirate", "discord")
	s.AddMessage("c7", "user", "ahoy", nil)

	ctx := s.Context("c7")
	if !strings.HasPrefix(ctx, "Conversation ID: c7\nPersona: pirate\nChannel: discord\n\n") {
		t.Errorf("context header:\n%s", ctx)
	}
	if !strings.Contains(ctx, "User: ahoy\n") {
		t.Errorf("context body:\n%s", ctx)
	}
}

func TestDeleteCascadesMessages(t *testing.T) {
	s := newTestStore(t, 10, 10)
	s.Create("c", "vanilla", "web")
	s.AddMessage("c", "user", "hi", nil)

	if !s.Delete("c") {
		t.Fatal("delete failed")
	}
	if s.Delete("c") {
		t.Error("double delete returned true")
	}
	st := s.Stats()
	if st.TotalConversations != 0 || st.TotalMessages != 0 {
		t.Errorf("stats after delete = %+v", st)
	}
}

func TestStatsAndSummaries(t *testing.T) {
	s := newTestStore(t, 4, 10)
	s.Create("a", "vanilla", "web")
	s.AddMessage("a", "user", "hello", nil)
	s.AddMessage("a", "assistant", "hi there", nil)

	sum := s.Summarize("a")
	if sum == nil || sum.MessageCount != 2 || sum.LastMessage != "hi there" {
		t.Fatalf("summary = %+v", sum)
	}
	if got := len(s.SummarizeAll()); got != 1 {
		t.Errorf("SummarizeAll = %d", got)
	}
	st := s.Stats()
	if st.TotalConversations != 1 || st.MemoryUsagePercent != 25 {
		t.Errorf("stats = %+v", st)
	}
}
