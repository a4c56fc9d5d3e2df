package persona

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/titanous/json5"
)

// requiredFields must be present and non-empty in every descriptor.
var requiredFields = []string{"id", "name", "description", "greeting", "systemPrompt"}

// loadDir reads all *.json descriptors under dir in filename order.
// Invalid files are logged and skipped; only a missing/unreadable
// directory is reported as an error.
func loadDir(dir string) ([]*Persona, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read personas dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var personas []*Persona
	for _, name := range names {
		p, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("persona.skipped", "file", name, "error", err)
			continue
		}
		personas = append(personas, p)
		slog.Debug("persona.file_loaded", "id", p.ID, "file", name)
	}
	return personas, nil
}

// loadFile parses a single descriptor. Descriptors are self-describing
// records; unknown top-level fields are retained opaquely.
func loadFile(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	for _, f := range requiredFields {
		s, _ := raw[f].(string)
		if s == "" {
			return nil, fmt.Errorf("missing required field %q", f)
		}
	}

	p := &Persona{
		ID:           raw["id"].(string),
		Name:         raw["name"].(string),
		Description:  raw["description"].(string),
		Greeting:     raw["greeting"].(string),
		SystemPrompt: raw["systemPrompt"].(string),
		Capabilities: stringSlice(raw["capabilities"]),
		Examples:     stringSlice(raw["examples"]),
		Channels:     stringSlice(raw["channels"]),
		Personality:  personality(raw["personality"]),
	}

	known := map[string]bool{
		"id": true, "name": true, "description": true, "greeting": true,
		"systemPrompt": true, "capabilities": true, "examples": true,
		"channels": true, "personality": true,
	}
	for k, v := range raw {
		if !known[k] {
			if p.Extra == nil {
				p.Extra = make(map[string]any)
			}
			p.Extra[k] = v
		}
	}
	return p, nil
}

// validate checks a runtime-created descriptor against the same schema
// the loader enforces.
func validate(p *Persona) error {
	switch {
	case p == nil:
		return fmt.Errorf("nil persona")
	case p.ID == "":
		return fmt.Errorf("missing required field %q", "id")
	case p.Name == "":
		return fmt.Errorf("missing required field %q", "name")
	case p.Description == "":
		return fmt.Errorf("missing required field %q", "description")
	case p.Greeting == "":
		return fmt.Errorf("missing required field %q", "greeting")
	case p.SystemPrompt == "":
		return fmt.Errorf("missing required field %q", "systemPrompt")
	}
	return nil
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func personality(v any) Personality {
	m, ok := v.(map[string]any)
	p := Personality{
		Tone:       "neutral",
		Approach:   "helpful",
		Philosophy: "assistance",
		Motto:      "here to help",
	}
	if !ok {
		return p
	}
	if s, ok := m["tone"].(string); ok && s != "" {
		p.Tone = s
	}
	if s, ok := m["approach"].(string); ok && s != "" {
		p.Approach = s
	}
	if s, ok := m["philosophy"].(string); ok && s != "" {
		p.Philosophy = s
	}
	if s, ok := m["motto"].(string); ok && s != "" {
		p.Motto = s
	}
	return p
}
