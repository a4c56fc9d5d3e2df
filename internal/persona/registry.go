package persona

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Registry holds all loaded personas and tracks the current one.
// Reads return copies; writes (switch, reload, add) are serialized.
type Registry struct {
	mu      sync.RWMutex
	dir     string
	byID    map[string]*Persona
	order   []string // load order, for deterministic listing
	current *Persona
}

// NewRegistry creates an empty registry for descriptors under dir.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:  dir,
		byID: make(map[string]*Persona),
	}
}

// LoadAll loads every descriptor under the registry directory.
// Malformed files are skipped with a log entry and never abort startup.
// When nothing loads, the fallback persona is synthesized so Current()
// is never nil after LoadAll returns.
func (r *Registry) LoadAll() error {
	personas, err := loadDir(r.dir)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID = make(map[string]*Persona)
	r.order = r.order[:0]
	for _, p := range personas {
		if _, dup := r.byID[p.ID]; dup {
			slog.Warn("persona.duplicate_id", "id", p.ID)
			continue
		}
		r.byID[p.ID] = p
		r.order = append(r.order, p.ID)
	}

	if len(r.byID) == 0 {
		fb := Fallback()
		r.byID[fb.ID] = fb
		r.order = append(r.order, fb.ID)
		r.current = fb
		slog.Info("persona.using_fallback")
		if err != nil {
			return fmt.Errorf("load personas: %w", err)
		}
		return nil
	}

	r.current = r.defaultCurrentLocked()
	slog.Info("persona.loaded", "count", len(r.byID), "current", r.current.ID)
	return nil
}

// Reload re-reads descriptors from disk, keeping the current persona id
// when it survives the reload.
func (r *Registry) Reload() error {
	personas, err := loadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reload personas: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	currentID := ""
	if r.current != nil {
		currentID = r.current.ID
	}

	// Runtime-created personas survive reloads; files only replace loaded ones.
	kept := make(map[string]*Persona)
	keptOrder := []string{}
	for _, id := range r.order {
		if p := r.byID[id]; p != nil && p.Custom {
			kept[id] = p
			keptOrder = append(keptOrder, id)
		}
	}

	r.byID = kept
	r.order = keptOrder
	for _, p := range personas {
		if _, dup := r.byID[p.ID]; dup {
			continue
		}
		r.byID[p.ID] = p
		r.order = append(r.order, p.ID)
	}

	if len(r.byID) == 0 {
		fb := Fallback()
		r.byID[fb.ID] = fb
		r.order = append(r.order, fb.ID)
	}

	if p, ok := r.byID[currentID]; ok {
		r.current = p
	} else {
		r.current = r.defaultCurrentLocked()
	}
	slog.Info("persona.reloaded", "count", len(r.byID))
	return nil
}

// defaultCurrentLocked resolves the startup persona: vanilla, then default,
// then the first loaded.
func (r *Registry) defaultCurrentLocked() *Persona {
	if p, ok := r.byID["vanilla"]; ok {
		return p
	}
	if p, ok := r.byID["default"]; ok {
		return p
	}
	if len(r.order) > 0 {
		return r.byID[r.order[0]]
	}
	return nil
}

// List returns all personas in load order.
func (r *Registry) List() []*Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Get returns the persona with the given id, or nil.
func (r *Registry) Get(id string) *Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// ListForChannel returns personas eligible on the given channel.
func (r *Registry) ListForChannel(channelID string) []*Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Persona
	for _, id := range r.order {
		if p := r.byID[id]; p.EligibleOn(channelID) {
			out = append(out, p)
		}
	}
	return out
}

// Current returns the active persona, or nil before LoadAll.
func (r *Registry) Current() *Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Switch makes the persona with the given id current.
// Unknown ids are a no-op returning nil; the current persona is unchanged.
func (r *Registry) Switch(id string) *Persona {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		slog.Warn("persona.not_found", "id", id)
		return nil
	}
	r.current = p
	slog.Info("persona.switched", "id", p.ID, "name", p.Name)
	return p
}

// AddCustom registers a runtime-created persona after validating the
// descriptor. Duplicate ids are rejected.
func (r *Registry) AddCustom(p *Persona) (*Persona, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[p.ID]; dup {
		return nil, fmt.Errorf("persona %q already exists", p.ID)
	}
	cp := *p
	cp.Custom = true
	r.byID[cp.ID] = &cp
	r.order = append(r.order, cp.ID)
	slog.Info("persona.custom_added", "id", cp.ID)
	return &cp, nil
}

// HistoryMessage is one prior turn fed into BuildPrompt.
type HistoryMessage struct {
	Role    string
	Content string
}

// BuildPrompt renders the current persona's system prompt, the conversation
// history, and the pending user message into a single completion prompt.
// With no current persona the output is just the user/assistant suffix.
func (r *Registry) BuildPrompt(message string, history []HistoryMessage) string {
	r.mu.RLock()
	current := r.current
	r.mu.RUnlock()

	if current == nil {
		return fmt.Sprintf("User: %s\nAssistant:", message)
	}

	var b strings.Builder
	b.WriteString(current.SystemPrompt)
	b.WriteString("\n\nConversation history:\n")
	for _, m := range history {
		role := m.Role
		if role == "" {
			role = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, m.Content)
	}
	fmt.Fprintf(&b, "\nUser: %s\nAssistant:", message)
	return b.String()
}

// Greeting returns the current persona's greeting, or a generic one.
func (r *Registry) Greeting() string {
	if p := r.Current(); p != nil {
		return p.Greeting
	}
	return "Hello! How can I help you today?"
}

// Capabilities returns the current persona's advertised abilities.
func (r *Registry) Capabilities() []string {
	if p := r.Current(); p != nil {
		return p.Capabilities
	}
	return []string{"General assistance"}
}

// Examples returns the current persona's example requests.
func (r *Registry) Examples() []string {
	if p := r.Current(); p != nil {
		return p.Examples
	}
	return nil
}
