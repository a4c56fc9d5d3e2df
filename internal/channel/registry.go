package channel

import (
	"log/slog"
	"sync"
)

// DefaultID is the channel active at startup and the fallback when the
// current channel id goes stale.
const DefaultID = "web"

// Registry holds the built-in channel set and tracks the active channel.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]*Channel
	order   []string
	current string
}

// NewRegistry builds a registry over the built-in channel set.
func NewRegistry() *Registry {
	r := &Registry{
		byID:    make(map[string]*Channel),
		current: DefaultID,
	}
	for _, c := range builtinChannels() {
		r.byID[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	slog.Info("channel.initialized", "count", len(r.byID))
	return r
}

// Get returns the channel with the given id, or nil.
func (r *Registry) Get(id string) *Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// List returns all channels in definition order.
func (r *Registry) List() []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Channel, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Current returns the active channel, falling back to web if the current
// id is somehow unknown.
func (r *Registry) Current() *Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.byID[r.current]; ok {
		return c
	}
	return r.byID[DefaultID]
}

// Switch makes the channel with the given id active.
// Unknown ids return nil and leave the active channel unchanged.
func (r *Registry) Switch(id string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		slog.Warn("channel.not_found", "id", id)
		return nil
	}
	r.current = id
	slog.Info("channel.switched", "id", c.ID, "name", c.Name)
	return c
}

// Capabilities returns the capability map for a channel, empty for
// unknown ids.
func (r *Registry) Capabilities(id string) map[string]Capability {
	if c := r.Get(id); c != nil {
		return c.Capabilities
	}
	return map[string]Capability{}
}

// IsCapabilitySupported reports whether a named capability is supported
// on a channel. Unknown channels and capabilities are unsupported.
func (r *Registry) IsCapabilitySupported(id, capability string) bool {
	cap, ok := r.Capabilities(id)[capability]
	return ok && cap.Supported
}

// ArtifactTypes returns the artifact types a channel accepts.
func (r *Registry) ArtifactTypes(id string) []string {
	if c := r.Get(id); c != nil {
		return c.ArtifactTypes
	}
	return nil
}

// Metadata returns presentation metadata for a channel.
func (r *Registry) Metadata(id string) map[string]string {
	if c := r.Get(id); c != nil {
		return c.Metadata
	}
	return map[string]string{}
}

// ChannelsForPersona returns channels that allow the given persona.
func (r *Registry) ChannelsForPersona(personaID string) []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Channel
	for _, id := range r.order {
		if c := r.byID[id]; c.SupportsPersona(personaID) {
			out = append(out, c)
		}
	}
	return out
}

// ValidateArtifact reports whether the artifact type is valid on the channel.
func (r *Registry) ValidateArtifact(id, artifactType string) bool {
	if c := r.Get(id); c != nil {
		return c.SupportsArtifact(artifactType)
	}
	return false
}

// Summary is the wire form of a channel description.
type Summary struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Capabilities  map[string]Capability `json:"capabilities"`
	ArtifactTypes []string              `json:"artifact_types"`
	Metadata      map[string]string     `json:"metadata"`
}

// Summarize returns the wire summary of one channel, or nil for unknown ids.
func (r *Registry) Summarize(id string) *Summary {
	c := r.Get(id)
	if c == nil {
		return nil
	}
	return &Summary{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		Capabilities:  c.Capabilities,
		ArtifactTypes: c.ArtifactTypes,
		Metadata:      c.Metadata,
	}
}

// SummarizeAll returns summaries for every channel in definition order.
func (r *Registry) SummarizeAll() []*Summary {
	r.mu.RLock()
	order := append([]string(nil), r.order...)
	r.mu.RUnlock()
	out := make([]*Summary, 0, len(order))
	for _, id := range order {
		out = append(out, r.Summarize(id))
	}
	return out
}

// Stats aggregates capability counts across all channels.
type Stats struct {
	TotalChannels         int      `json:"total_channels"`
	TotalCapabilities     int      `json:"total_capabilities"`
	SupportedCapabilities int      `json:"supported_capabilities"`
	CurrentChannel        string   `json:"current_channel"`
	Channels              []string `json:"channels"`
}

// Stats returns aggregate channel statistics.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{
		TotalChannels:  len(r.byID),
		CurrentChannel: r.current,
		Channels:       append([]string(nil), r.order...),
	}
	for _, c := range r.byID {
		s.TotalCapabilities += len(c.Capabilities)
		for _, cap := range c.Capabilities {
			if cap.Supported {
				s.SupportedCapabilities++
			}
		}
	}
	return s
}
