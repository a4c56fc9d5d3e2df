// Package artifact renders channel-native payloads (Slack blocks, Teams
// cards, Discord embeds and the rest) from generic content maps. Generators
// are pure; nothing here talks to the platforms.
package artifact

import "fmt"

// Request asks one generator for a platform payload.
type Request struct {
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Content     map[string]any `json:"content"`
	Options     map[string]any `json:"options,omitempty"`
	PersonaID   string         `json:"persona_id,omitempty"`
	ChannelID   string         `json:"channel_id,omitempty"`
}

// Result wraps one generation attempt in the channel artifact envelope.
// The envelope fields identify the channel, artifact type and request
// regardless of whether generation succeeded.
type Result struct {
	Channel          string         `json:"channel"`
	ChannelName      string         `json:"channelName"`
	ArtifactType     string         `json:"artifactType"`
	Description      string         `json:"description"`
	Success          bool           `json:"success"`
	Artifact         any            `json:"artifact"`
	FormattedContent string         `json:"formatted_content,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// Constraints describes a channel's message limits.
type Constraints struct {
	MaxMessageLength    int  `json:"max_message_length"`
	SupportsRichText    bool `json:"supports_rich_text"`
	SupportsMedia       bool `json:"supports_media"`
	SupportsInteractive bool `json:"supports_interactive"`
}

// Validation is the outcome of checking a message against a channel's limits.
type Validation struct {
	Valid       bool        `json:"valid"`
	Length      int         `json:"length"`
	MaxLength   int         `json:"max_length"`
	Truncated   string      `json:"truncated"`
	Constraints Constraints `json:"constraints"`
}

// Generator renders artifacts for one channel.
type Generator interface {
	ChannelID() string
	Generate(req Request) Result
	ValidateMessage(message string) Validation
	Constraints() Constraints
}

// channelNames are the display names stamped into the envelope. They
// mirror the channel registry.
var channelNames = map[string]string{
	"web":                 "Web Interface",
	"slack":               "Slack",
	"teams":               "Microsoft Teams",
	"discord":             "Discord",
	"twitch":              "Twitch",
	"whatsapp":            "WhatsApp",
	"apple-business-chat": "Apple Business Chat",
}

// enveloped stamps the channel artifact envelope onto every result the
// inner generator produces.
type enveloped struct {
	Generator
	name string
}

func (e enveloped) Generate(req Request) Result {
	res := e.Generator.Generate(req)
	res.Channel = e.ChannelID()
	res.ChannelName = e.name
	res.ArtifactType = req.Type
	res.Description = req.Description
	return res
}

// ForChannel returns the generator for a channel id, or an error for
// channels without artifact support.
func ForChannel(channelID string) (Generator, error) {
	var g Generator
	switch channelID {
	case "web":
		g = &webGenerator{}
	case "slack":
		g = &slackGenerator{}
	case "teams":
		g = &teamsGenerator{}
	case "discord":
		g = &discordGenerator{}
	case "twitch":
		g = &twitchGenerator{}
	case "whatsapp":
		g = &whatsappGenerator{}
	case "apple-business-chat":
		g = &appleGenerator{}
	default:
		return nil, fmt.Errorf("no artifact generator for channel %q", channelID)
	}
	return enveloped{Generator: g, name: channelNames[channelID]}, nil
}

func unsupported(artifactType string) Result {
	return Result{Success: false, Error: fmt.Sprintf("Unsupported artifact type: %s", artifactType)}
}

func validate(message string, c Constraints) Validation {
	truncated := message
	valid := len(message) <= c.MaxMessageLength
	if !valid {
		truncated = message[:c.MaxMessageLength]
	}
	return Validation{
		Valid:       valid,
		Length:      len(message),
		MaxLength:   c.MaxMessageLength,
		Truncated:   truncated,
		Constraints: c,
	}
}

// str reads a string field from a content map with a default.
func str(m map[string]any, key, def string) string {
	if m == nil {
		return def
	}
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

// items reads a list-of-objects field from a content map.
func items(m map[string]any, key string) []map[string]any {
	if m == nil {
		return nil
	}
	list, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, it := range list {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func boolOr(m map[string]any, key string, def bool) bool {
	if m == nil {
		return def
	}
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

func intOr(m map[string]any, key string, def int) int {
	if m == nil {
		return def
	}
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
