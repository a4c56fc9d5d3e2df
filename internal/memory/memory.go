// Package memory tracks conversation threads and their message history.
// Stores cap both the number of conversations and the messages per thread;
// the oldest entries are evicted first.
package memory

import "time"

// Message is one turn in a conversation.
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Conversation is a message thread bound to a persona and channel.
type Conversation struct {
	ID        string         `json:"id"`
	PersonaID string         `json:"persona_id"`
	Channel   string         `json:"channel"`
	Messages  []Message      `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Summary is the lightweight listing form of a conversation.
type Summary struct {
	ID           string    `json:"id"`
	PersonaID    string    `json:"persona_id"`
	Channel      string    `json:"channel"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastMessage  string    `json:"last_message,omitempty"`
}

// Stats reports store occupancy.
type Stats struct {
	TotalConversations         int     `json:"total_conversations"`
	TotalMessages              int     `json:"total_messages"`
	MaxConversations           int     `json:"max_conversations"`
	MaxMessagesPerConversation int     `json:"max_messages_per_conversation"`
	MemoryUsagePercent         float64 `json:"memory_usage_percent"`
}

// Store is the conversation persistence interface. The in-memory store is
// the default; the sqlite store survives restarts.
type Store interface {
	// Create makes a new conversation, or returns the existing one for
	// the same id.
	Create(id, personaID, channel string) *Conversation

	// AddMessage appends a message, evicting the oldest when the thread
	// is at capacity. False for unknown conversations.
	AddMessage(conversationID, role, content string, metadata map[string]any) bool

	// Get returns a snapshot of a conversation, or nil.
	Get(conversationID string) *Conversation

	// History returns the last limit messages (all when limit <= 0).
	History(conversationID string, limit int) []Message

	// Context renders the recent history as an LLM prompt fragment.
	Context(conversationID string) string

	// SwitchPersona rebinds the conversation to a new persona and records
	// a system message about the switch.
	SwitchPersona(conversationID, newPersonaID string) bool

	ForPersona(personaID string) []*Conversation
	ForChannel(channel string) []*Conversation

	Delete(conversationID string) bool
	Clear()

	Summarize(conversationID string) *Summary
	SummarizeAll() []*Summary
	Stats() Stats
}
