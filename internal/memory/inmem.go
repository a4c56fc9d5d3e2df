package memory

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// contextWindow limits how many recent messages Context renders.
const contextWindow = 10

// InMemoryStore keeps conversations in process memory with LRU eviction.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	maxConvs      int
	maxMessages   int
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a store with the given caps. Non-positive caps
// fall back to the defaults of 100 conversations and 50 messages.
func NewInMemoryStore(maxConversations, maxMessagesPerConversation int) *InMemoryStore {
	if maxConversations <= 0 {
		maxConversations = 100
	}
	if maxMessagesPerConversation <= 0 {
		maxMessagesPerConversation = 50
	}
	return &InMemoryStore{
		conversations: make(map[string]*Conversation),
		maxConvs:      maxConversations,
		maxMessages:   maxMessagesPerConversation,
	}
}

func (s *InMemoryStore) Create(id, personaID, channel string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.conversations[id]; ok {
		slog.Warn("memory.conversation_exists", "id", id)
		return snapshot(existing)
	}

	if channel == "" {
		channel = "web"
	}
	now := time.Now()
	conv := &Conversation{
		ID:        id,
		PersonaID: personaID,
		Channel:   channel,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  map[string]any{},
	}
	s.conversations[id] = conv
	s.evictLocked()

	slog.Info("memory.conversation_created", "id", id, "persona", personaID, "channel", channel)
	return snapshot(conv)
}

func (s *InMemoryStore) AddMessage(conversationID, role, content string, metadata map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMessageLocked(conversationID, role, content, metadata)
}

func (s *InMemoryStore) addMessageLocked(conversationID, role, content string, metadata map[string]any) bool {
	conv, ok := s.conversations[conversationID]
	if !ok {
		slog.Warn("memory.conversation_not_found", "id", conversationID)
		return false
	}

	if len(conv.Messages) >= s.maxMessages {
		conv.Messages = conv.Messages[1:]
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	conv.Messages = append(conv.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	conv.UpdatedAt = time.Now()
	return true
}

func (s *InMemoryStore) Get(conversationID string) *Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if conv, ok := s.conversations[conversationID]; ok {
		return snapshot(conv)
	}
	return nil
}

func (s *InMemoryStore) History(conversationID string, limit int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}
	msgs := conv.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]Message(nil), msgs...)
}

func (s *InMemoryStore) Context(conversationID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Conversation ID: %s\n", conv.ID)
	fmt.Fprintf(&b, "Persona: %s\n", conv.PersonaID)
	fmt.Fprintf(&b, "Channel: %s\n\n", conv.Channel)

	msgs := conv.Messages
	if len(msgs) > contextWindow {
		msgs = msgs[len(msgs)-contextWindow:]
	}
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", capitalize(m.Role), m.Content)
	}
	return b.String()
}

func (s *InMemoryStore) SwitchPersona(conversationID, newPersonaID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return false
	}

	oldPersona := conv.PersonaID
	conv.PersonaID = newPersonaID
	conv.UpdatedAt = time.Now()
	s.addMessageLocked(conversationID, "system",
		fmt.Sprintf("Persona switched from %s to %s", oldPersona, newPersonaID), nil)

	slog.Info("memory.persona_switched", "conversation", conversationID,
		"from", oldPersona, "to", newPersonaID)
	return true
}

func (s *InMemoryStore) ForPersona(personaID string) []*Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Conversation
	for _, conv := range s.conversations {
		if conv.PersonaID == personaID {
			out = append(out, snapshot(conv))
		}
	}
	return out
}

func (s *InMemoryStore) ForChannel(channel string) []*Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Conversation
	for _, conv := range s.conversations {
		if conv.Channel == channel {
			out = append(out, snapshot(conv))
		}
	}
	return out
}

func (s *InMemoryStore) Delete(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return false
	}
	delete(s.conversations, conversationID)
	slog.Info("memory.conversation_deleted", "id", conversationID)
	return true
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = make(map[string]*Conversation)
	slog.Info("memory.cleared")
}

func (s *InMemoryStore) Summarize(conversationID string) *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}
	return summarize(conv)
}

func (s *InMemoryStore) SummarizeAll() []*Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Summary, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, summarize(conv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (s *InMemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, conv := range s.conversations {
		total += len(conv.Messages)
	}
	return Stats{
		TotalConversations:         len(s.conversations),
		TotalMessages:              total,
		MaxConversations:           s.maxConvs,
		MaxMessagesPerConversation: s.maxMessages,
		MemoryUsagePercent:         float64(len(s.conversations)) / float64(s.maxConvs) * 100,
	}
}

// evictLocked drops the least recently updated conversations once the cap
// is exceeded.
func (s *InMemoryStore) evictLocked() {
	excess := len(s.conversations) - s.maxConvs
	if excess <= 0 {
		return
	}

	type entry struct {
		id        string
		updatedAt time.Time
	}
	entries := make([]entry, 0, len(s.conversations))
	for id, conv := range s.conversations {
		entries = append(entries, entry{id, conv.UpdatedAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].updatedAt.Before(entries[j].updatedAt) })

	for i := 0; i < excess; i++ {
		delete(s.conversations, entries[i].id)
	}
	slog.Info("memory.evicted", "count", excess)
}

func summarize(conv *Conversation) *Summary {
	sum := &Summary{
		ID:           conv.ID,
		PersonaID:    conv.PersonaID,
		Channel:      conv.Channel,
		MessageCount: len(conv.Messages),
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
	if n := len(conv.Messages); n > 0 {
		sum.LastMessage = conv.Messages[n-1].Content
	}
	return sum
}

func snapshot(conv *Conversation) *Conversation {
	cp := *conv
	cp.Messages = append([]Message(nil), conv.Messages...)
	return &cp
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
