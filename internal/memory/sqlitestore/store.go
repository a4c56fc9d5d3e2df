// Package sqlitestore persists conversation memory in SQLite so threads
// survive restarts. Schema changes ship as embedded migrations.
package sqlitestore

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/bk25/internal/memory"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const contextWindow = 10

// Store implements memory.Store on a SQLite database.
type Store struct {
	db          *sql.DB
	maxConvs    int
	maxMessages int
}

var _ memory.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and runs pending
// migrations.
func Open(path string, maxConversations, maxMessagesPerConversation int) (*Store, error) {
	if maxConversations <= 0 {
		maxConversations = 100
	}
	if maxMessagesPerConversation <= 0 {
		maxMessagesPerConversation = 50
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite is single-writer; serialize access through one conn.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("memory.sqlite_opened", "path", path)
	return &Store{db: db, maxConvs: maxConversations, maxMessages: maxMessagesPerConversation}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Create(id, personaID, channel string) *memory.Conversation {
	if existing := s.Get(id); existing != nil {
		slog.Warn("memory.conversation_exists", "id", id)
		return existing
	}

	if channel == "" {
		channel = "web"
	}
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO conversations (id, persona_id, channel, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, personaID, channel, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		slog.Error("memory.create_failed", "id", id, "error", err)
		return nil
	}
	s.evict()

	slog.Info("memory.conversation_created", "id", id, "persona", personaID, "channel", channel)
	return &memory.Conversation{
		ID:        id,
		PersonaID: personaID,
		Channel:   channel,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  map[string]any{},
	}
}

func (s *Store) AddMessage(conversationID, role, content string, metadata map[string]any) bool {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM conversations WHERE id = ?`, conversationID).Scan(&exists); err != nil || exists == 0 {
		slog.Warn("memory.conversation_not_found", "id", conversationID)
		return false
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	meta, _ := json.Marshal(metadata)
	now := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("memory.add_message_failed", "error", err)
		return false
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO messages (conversation_id, role, content, timestamp, metadata) VALUES (?, ?, ?, ?, ?)`,
		conversationID, role, content, now.UnixNano(), string(meta),
	); err != nil {
		slog.Error("memory.add_message_failed", "error", err)
		return false
	}
	if _, err := tx.Exec(
		`DELETE FROM messages WHERE conversation_id = ? AND id NOT IN (
			SELECT id FROM messages WHERE conversation_id = ? ORDER BY id DESC LIMIT ?)`,
		conversationID, conversationID, s.maxMessages,
	); err != nil {
		slog.Error("memory.trim_failed", "error", err)
		return false
	}
	if _, err := tx.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now.UnixNano(), conversationID,
	); err != nil {
		slog.Error("memory.touch_failed", "error", err)
		return false
	}
	if err := tx.Commit(); err != nil {
		slog.Error("memory.add_message_failed", "error", err)
		return false
	}
	return true
}

func (s *Store) Get(conversationID string) *memory.Conversation {
	row := s.db.QueryRow(
		`SELECT id, persona_id, channel, created_at, updated_at, metadata FROM conversations WHERE id = ?`,
		conversationID,
	)
	conv, err := scanConversation(row)
	if err != nil {
		return nil
	}
	conv.Messages = s.History(conversationID, 0)
	return conv
}

func (s *Store) History(conversationID string, limit int) []memory.Message {
	query := `SELECT role, content, timestamp, metadata FROM messages WHERE conversation_id = ? ORDER BY id ASC`
	rows, err := s.db.Query(query, conversationID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var msgs []memory.Message
	for rows.Next() {
		var m memory.Message
		var ts int64
		var meta string
		if err := rows.Scan(&m.Role, &m.Content, &ts, &meta); err != nil {
			continue
		}
		m.Timestamp = time.Unix(0, ts)
		json.Unmarshal([]byte(meta), &m.Metadata)
		msgs = append(msgs, m)
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}

func (s *Store) Context(conversationID string) string {
	conv := s.Get(conversationID)
	if conv == nil {
		return ""
	}

	out := fmt.Sprintf("Conversation ID: %s\nPersona: %s\nChannel: %s\n\n", conv.ID, conv.PersonaID, conv.Channel)
	msgs := conv.Messages
	if len(msgs) > contextWindow {
		msgs = msgs[len(msgs)-contextWindow:]
	}
	for _, m := range msgs {
		out += fmt.Sprintf("%s: %s\n", capitalize(m.Role), m.Content)
	}
	return out
}

func (s *Store) SwitchPersona(conversationID, newPersonaID string) bool {
	var oldPersona string
	if err := s.db.QueryRow(`SELECT persona_id FROM conversations WHERE id = ?`, conversationID).Scan(&oldPersona); err != nil {
		return false
	}

	if _, err := s.db.Exec(
		`UPDATE conversations SET persona_id = ?, updated_at = ? WHERE id = ?`,
		newPersonaID, time.Now().UnixNano(), conversationID,
	); err != nil {
		slog.Error("memory.switch_failed", "error", err)
		return false
	}
	s.AddMessage(conversationID, "system",
		fmt.Sprintf("Persona switched from %s to %s", oldPersona, newPersonaID), nil)

	slog.Info("memory.persona_switched", "conversation", conversationID,
		"from", oldPersona, "to", newPersonaID)
	return true
}

func (s *Store) ForPersona(personaID string) []*memory.Conversation {
	return s.query(`SELECT id, persona_id, channel, created_at, updated_at, metadata FROM conversations WHERE persona_id = ?`, personaID)
}

func (s *Store) ForChannel(channel string) []*memory.Conversation {
	return s.query(`SELECT id, persona_id, channel, created_at, updated_at, metadata FROM conversations WHERE channel = ?`, channel)
}

func (s *Store) query(q string, arg any) []*memory.Conversation {
	rows, err := s.db.Query(q, arg)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []*memory.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			continue
		}
		conv.Messages = s.History(conv.ID, 0)
		out = append(out, conv)
	}
	return out
}

func (s *Store) Delete(conversationID string) bool {
	res, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, conversationID)
	if err != nil {
		return false
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false
	}
	slog.Info("memory.conversation_deleted", "id", conversationID)
	return true
}

func (s *Store) Clear() {
	s.db.Exec(`DELETE FROM messages`)
	s.db.Exec(`DELETE FROM conversations`)
	slog.Info("memory.cleared")
}

func (s *Store) Summarize(conversationID string) *memory.Summary {
	conv := s.Get(conversationID)
	if conv == nil {
		return nil
	}
	sum := &memory.Summary{
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

func (s *Store) SummarizeAll() []*memory.Summary {
	rows, err := s.db.Query(`SELECT id FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []*memory.Summary
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		if sum := s.Summarize(id); sum != nil {
			out = append(out, sum)
		}
	}
	return out
}

func (s *Store) Stats() memory.Stats {
	var convs, msgs int
	s.db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&convs)
	s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&msgs)
	return memory.Stats{
		TotalConversations:         convs,
		TotalMessages:              msgs,
		MaxConversations:           s.maxConvs,
		MaxMessagesPerConversation: s.maxMessages,
		MemoryUsagePercent:         float64(convs) / float64(s.maxConvs) * 100,
	}
}

// evict drops the least recently updated conversations past the cap.
func (s *Store) evict() {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&count); err != nil {
		return
	}
	excess := count - s.maxConvs
	if excess <= 0 {
		return
	}

	_, err := s.db.Exec(
		`DELETE FROM conversations WHERE id IN (
			SELECT id FROM conversations ORDER BY updated_at ASC LIMIT ?)`,
		excess,
	)
	if err != nil {
		slog.Error("memory.evict_failed", "error", err)
		return
	}
	slog.Info("memory.evicted", "count", excess)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*memory.Conversation, error) {
	var conv memory.Conversation
	var created, updated int64
	var meta string
	if err := row.Scan(&conv.ID, &conv.PersonaID, &conv.Channel, &created, &updated, &meta); err != nil {
		return nil, err
	}
	conv.CreatedAt = time.Unix(0, created)
	conv.UpdatedAt = time.Unix(0, updated)
	json.Unmarshal([]byte(meta), &conv.Metadata)
	return &conv, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
