package artifact

import "fmt"

// twitchGenerator renders chat command and extension definitions.
type twitchGenerator struct{}

func (g *twitchGenerator) ChannelID() string { return "twitch" }

func (g *twitchGenerator) Constraints() Constraints {
	return Constraints{MaxMessageLength: 500}
}

func (g *twitchGenerator) ValidateMessage(message string) Validation {
	return validate(message, g.Constraints())
}

func (g *twitchGenerator) Generate(req Request) Result {
	switch req.Type {
	case "chat_commands":
		cmd := map[string]any{
			"command":     str(req.Content, "command", "!bk25"),
			"description": str(req.Content, "description", "BK25 command"),
			"usage":       str(req.Content, "usage", "!bk25 [action]"),
			"cooldown":    intOr(req.Content, "cooldown", 30),
			"permissions": req.Content["permissions"],
		}
		if cmd["permissions"] == nil {
			cmd["permissions"] = []string{"everyone"}
		}
		return Result{
			Success:          true,
			Artifact:         cmd,
			FormattedContent: fmt.Sprintf("Twitch Command: %s", cmd["command"]),
			Metadata:         map[string]any{"platform": "twitch", "type": "chat_command"},
		}
	case "extensions":
		ext := map[string]any{
			"name":        str(req.Content, "name", "BK25 Extension"),
			"description": str(req.Content, "description", "BK25 Twitch Extension"),
			"version":     str(req.Content, "version", "1.0.0"),
			"type":        str(req.Content, "type", "panel"),
		}
		return Result{
			Success:          true,
			Artifact:         ext,
			FormattedContent: fmt.Sprintf("Twitch Extension: %s", ext["name"]),
			Metadata:         map[string]any{"platform": "twitch", "type": "extension"},
		}
	default:
		return unsupported(req.Type)
	}
}

// whatsappGenerator renders Business API templates, media and interactive
// messages.
type whatsappGenerator struct{}

func (g *whatsappGenerator) ChannelID() string { return "whatsapp" }

func (g *whatsappGenerator) Constraints() Constraints {
	return Constraints{
		MaxMessageLength:    4096,
		SupportsMedia:       true,
		SupportsInteractive: true,
	}
}

func (g *whatsappGenerator) ValidateMessage(message string) Validation {
	return validate(message, g.Constraints())
}

func (g *whatsappGenerator) Generate(req Request) Result {
	switch req.Type {
	case "templates":
		return g.template(req.Content)
	case "media":
		media := map[string]any{
			"type":    str(req.Content, "media_type", "image"),
			"url":     str(req.Content, "url", ""),
			"caption": str(req.Content, "caption", ""),
		}
		return Result{
			Success:          true,
			Artifact:         media,
			FormattedContent: fmt.Sprintf("WhatsApp %s message", media["type"]),
			Metadata:         map[string]any{"platform": "whatsapp", "type": "media"},
		}
	case "interactive":
		return g.interactive(req.Content)
	default:
		return unsupported(req.Type)
	}
}

func (g *whatsappGenerator) template(content map[string]any) Result {
	components := []map[string]any{}
	if header := str(content, "header", ""); header != "" {
		components = append(components, map[string]any{"type": "header", "text": header})
	}
	if body := str(content, "body", ""); body != "" {
		components = append(components, map[string]any{"type": "body", "text": body})
	}
	if buttons, ok := content["buttons"].([]any); ok && len(buttons) > 0 {
		if first, ok := buttons[0].(string); ok {
			components = append(components, map[string]any{
				"type":       "button",
				"sub_type":   "quick_reply",
				"index":      0,
				"parameters": []map[string]any{{"type": "text", "text": first}},
			})
		}
	}

	template := map[string]any{
		"name":       str(content, "name", "bk25_template"),
		"language":   str(content, "language", "en"),
		"components": components,
	}
	return Result{
		Success:          true,
		Artifact:         template,
		FormattedContent: fmt.Sprintf("WhatsApp Template: %s", template["name"]),
		Metadata:         map[string]any{"platform": "whatsapp", "type": "template"},
	}
}

func (g *whatsappGenerator) interactive(content map[string]any) Result {
	buttons := []map[string]any{}
	for _, b := range items(content, "buttons") {
		buttons = append(buttons, map[string]any{
			"type": "reply",
			"reply": map[string]any{
				"id":    str(b, "id", ""),
				"title": str(b, "title", ""),
			},
		})
	}

	msg := map[string]any{
		"type": "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]any{"text": str(content, "text", "")},
			"action": map[string]any{"buttons": buttons},
		},
	}
	return Result{
		Success:          true,
		Artifact:         msg,
		FormattedContent: "WhatsApp interactive message",
		Metadata:         map[string]any{"platform": "whatsapp", "type": "interactive"},
	}
}

// appleGenerator renders rich links, interactive messages and payment
// requests for Apple Business Chat.
type appleGenerator struct{}

func (g *appleGenerator) ChannelID() string { return "apple-business-chat" }

func (g *appleGenerator) Constraints() Constraints {
	return Constraints{
		MaxMessageLength:    2000,
		SupportsRichText:    true,
		SupportsMedia:       true,
		SupportsInteractive: true,
	}
}

func (g *appleGenerator) ValidateMessage(message string) Validation {
	return validate(message, g.Constraints())
}

func (g *appleGenerator) Generate(req Request) Result {
	switch req.Type {
	case "rich_links":
		link := map[string]any{
			"type":        "rich_link",
			"url":         str(req.Content, "url", ""),
			"title":       str(req.Content, "title", ""),
			"description": str(req.Content, "description", ""),
			"image":       str(req.Content, "image", ""),
			"metadata": map[string]any{
				"domain": str(req.Content, "domain", ""),
				"app_id": str(req.Content, "app_id", ""),
			},
		}
		return Result{
			Success:          true,
			Artifact:         link,
			FormattedContent: "Apple Business Chat rich_link message",
			Metadata:         map[string]any{"platform": "apple-business-chat", "type": "rich_link"},
		}
	case "interactive_messages":
		buttons := []map[string]any{}
		for _, b := range items(req.Content, "buttons") {
			buttons = append(buttons, map[string]any{
				"type":  str(b, "type", "text"),
				"title": str(b, "title", ""),
				"value": str(b, "value", ""),
			})
		}
		msg := map[string]any{
			"type":     "interactive",
			"title":    str(req.Content, "title", ""),
			"subtitle": str(req.Content, "subtitle", ""),
			"buttons":  buttons,
		}
		return Result{
			Success:          true,
			Artifact:         msg,
			FormattedContent: "Apple Business Chat interactive message",
			Metadata:         map[string]any{"platform": "apple-business-chat", "type": "interactive_message"},
		}
	case "payments":
		payment := map[string]any{
			"type":         "payment",
			"amount":       str(req.Content, "amount", "0.00"),
			"currency":     str(req.Content, "currency", "USD"),
			"description":  str(req.Content, "description", ""),
			"merchant_id":  str(req.Content, "merchant_id", ""),
			"payment_type": str(req.Content, "payment_type", "apple_pay"),
		}
		return Result{
			Success:          true,
			Artifact:         payment,
			FormattedContent: "Apple Business Chat payment message",
			Metadata:         map[string]any{"platform": "apple-business-chat", "type": "payment"},
		}
	default:
		return unsupported(req.Type)
	}
}
