// Package channel models the communication surfaces a conversation can run
// on. The set of channels is fixed at build time; the registry only tracks
// which one is active.
package channel

// Capability is one feature a channel may or may not support.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Supported   bool   `json:"supported"`
}

// Channel describes one communication surface.
type Channel struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Capabilities map[string]Capability `json:"capabilities"`

	// SupportedPersonas lists persona ids allowed here; "*" means all.
	SupportedPersonas []string `json:"supportedPersonas"`

	ArtifactTypes []string          `json:"artifactTypes"`
	Metadata      map[string]string `json:"metadata"`
}

// SupportsPersona reports whether the persona may be used on this channel.
func (c *Channel) SupportsPersona(personaID string) bool {
	for _, id := range c.SupportedPersonas {
		if id == "*" || id == personaID {
			return true
		}
	}
	return false
}

// SupportsArtifact reports whether the artifact type is valid here.
func (c *Channel) SupportsArtifact(artifactType string) bool {
	for _, t := range c.ArtifactTypes {
		if t == artifactType {
			return true
		}
	}
	return false
}

func builtinChannels() []*Channel {
	return []*Channel{
		{
			ID:          "web",
			Name:        "Web Interface",
			Description: "Standard web-based chat interface with HTML/CSS/JS support",
			Capabilities: map[string]Capability{
				"rich_text":   {Name: "Rich Text", Description: "HTML formatting support", Supported: true},
				"file_upload": {Name: "File Upload", Description: "File attachment support", Supported: true},
				"real_time":   {Name: "Real-time Updates", Description: "WebSocket support", Supported: true},
				"custom_ui":   {Name: "Custom UI", Description: "Custom HTML components", Supported: true},
			},
			SupportedPersonas: []string{"*"},
			ArtifactTypes:     []string{"html", "css", "javascript", "json"},
			Metadata:          map[string]string{"color": "#007bff", "icon": "🌐"},
		},
		{
			ID:          "slack",
			Name:        "Slack",
			Description: "Slack workspace integration with Block Kit support",
			Capabilities: map[string]Capability{
				"blocks":         {Name: "Block Kit", Description: "Slack Block Kit UI", Supported: true},
				"threads":        {Name: "Threads", Description: "Threaded conversations", Supported: true},
				"reactions":      {Name: "Reactions", Description: "Emoji reactions", Supported: true},
				"slash_commands": {Name: "Slash Commands", Description: "Slack slash commands", Supported: true},
			},
			SupportedPersonas: []string{"*"},
			ArtifactTypes:     []string{"blocks", "attachments", "modals"},
			Metadata:          map[string]string{"color": "#4A154B", "icon": "chat"},
		},
		{
			ID:          "teams",
			Name:        "Microsoft Teams",
			Description: "Teams integration with Adaptive Cards and bot framework",
			Capabilities: map[string]Capability{
				"adaptive_cards": {Name: "Adaptive Cards", Description: "Teams Adaptive Cards", Supported: true},
				"task_modules":   {Name: "Task Modules", Description: "Teams task modules", Supported: true},
				"bot_framework":  {Name: "Bot Framework", Description: "Microsoft Bot Framework", Supported: true},
				"tabs":           {Name: "Tabs", Description: "Teams tabs integration", Supported: true},
			},
			SupportedPersonas: []string{"*"},
			ArtifactTypes:     []string{"adaptive_cards", "task_modules", "bot_activities"},
			Metadata:          map[string]string{"color": "#6264A7", "icon": "office"},
		},
		{
			ID:          "discord",
			Name:        "Discord",
			Description: "Discord bot integration with embeds and slash commands",
			Capabilities: map[string]Capability{
				"embeds":         {Name: "Embeds", Description: "Discord rich embeds", Supported: true},
				"slash_commands": {Name: "Slash Commands", Description: "Discord slash commands", Supported: true},
				"reactions":      {Name: "Reactions", Description: "Emoji reactions", Supported: true},
				"voice":          {Name: "Voice", Description: "Voice channel support", Supported: false},
			},
			SupportedPersonas: []string{"*"},
			ArtifactTypes:     []string{"embeds", "slash_commands", "components"},
			Metadata:          map[string]string{"color": "#5865F2", "icon": "game"},
		},
		{
			ID:          "twitch",
			Name:        "Twitch",
			Description: "Twitch chat integration with streamer tools",
			Capabilities: map[string]Capability{
				"chat_commands": {Name: "Chat Commands", Description: "Twitch chat commands", Supported: true},
				"extensions":    {Name: "Extensions", Description: "Twitch extensions", Supported: false},
				"moderation":    {Name: "Moderation", Description: "Chat moderation tools", Supported: false},
				"alerts":        {Name: "Alerts", Description: "Stream alerts", Supported: false},
			},
			SupportedPersonas: []string{"*"},
			ArtifactTypes:     []string{"chat_commands", "extensions"},
			Metadata:          map[string]string{"color": "#9146FF", "icon": "stream"},
		},
		{
			ID:          "whatsapp",
			Name:        "WhatsApp",
			Description: "WhatsApp Business API integration",
			Capabilities: map[string]Capability{
				"media":         {Name: "Media", Description: "Image/video support", Supported: true},
				"templates":     {Name: "Templates", Description: "Message templates", Supported: true},
				"quick_replies": {Name: "Quick Replies", Description: "Quick reply buttons", Supported: true},
				"location":      {Name: "Location", Description: "Location sharing", Supported: false},
			},
			SupportedPersonas: []string{"*"},
			ArtifactTypes:     []string{"templates", "media", "interactive"},
			Metadata:          map[string]string{"color": "#25D366", "icon": "mobile"},
		},
		{
			ID:          "apple-business-chat",
			Name:        "Apple Business Chat",
			Description: "Apple Business Chat integration for iOS users",
			Capabilities: map[string]Capability{
				"rich_links":   {Name: "Rich Links", Description: "Rich link previews", Supported: true},
				"payments":     {Name: "Payments", Description: "Apple Pay integration", Supported: false},
				"scheduling":   {Name: "Scheduling", Description: "Calendar scheduling", Supported: false},
				"file_sharing": {Name: "File Sharing", Description: "File sharing support", Supported: true},
			},
			SupportedPersonas: []string{"*"},
			ArtifactTypes:     []string{"rich_links", "interactive_messages", "payments"},
			Metadata:          map[string]string{"color": "#000000", "icon": "apple"},
		},
	}
}
