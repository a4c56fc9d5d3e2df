package artifact

import "fmt"

// teamsGenerator renders Adaptive Cards, task modules and bot activities.
type teamsGenerator struct{}

func (g *teamsGenerator) ChannelID() string { return "teams" }

func (g *teamsGenerator) Constraints() Constraints {
	return Constraints{
		MaxMessageLength:    25000,
		SupportsRichText:    true,
		SupportsMedia:       true,
		SupportsInteractive: true,
	}
}

func (g *teamsGenerator) ValidateMessage(message string) Validation {
	return validate(message, g.Constraints())
}

func (g *teamsGenerator) Generate(req Request) Result {
	switch req.Type {
	case "adaptive_cards":
		return g.adaptiveCard(req.Content)
	case "task_modules":
		return g.taskModule(req.Content, req.Options)
	case "bot_activities":
		return g.botActivity(req.Content)
	default:
		return unsupported(req.Type)
	}
}

func (g *teamsGenerator) adaptiveCard(content map[string]any) Result {
	body := []map[string]any{}
	actions := []map[string]any{}

	if title := str(content, "title", ""); title != "" {
		body = append(body, map[string]any{
			"type":   "TextBlock",
			"text":   title,
			"size":   "Large",
			"weight": "Bolder",
			"wrap":   true,
		})
	}
	if subtitle := str(content, "subtitle", ""); subtitle != "" {
		body = append(body, map[string]any{
			"type":   "TextBlock",
			"text":   subtitle,
			"size":   "Medium",
			"weight": "Bolder",
			"wrap":   true,
			"color":  "Accent",
		})
	}
	if text := str(content, "text", ""); text != "" {
		body = append(body, map[string]any{"type": "TextBlock", "text": text, "wrap": true})
	}
	if code := str(content, "code", ""); code != "" {
		body = append(body, map[string]any{
			"type":       "TextBlock",
			"text":       code,
			"wrap":       true,
			"fontFamily": "Monospace",
		})
	}
	if facts := items(content, "facts"); len(facts) > 0 {
		factSet := map[string]any{"type": "FactSet"}
		list := []map[string]any{}
		for _, f := range facts {
			list = append(list, map[string]any{
				"title": str(f, "title", ""),
				"value": str(f, "value", ""),
			})
		}
		factSet["facts"] = list
		body = append(body, factSet)
	}
	for _, action := range items(content, "actions") {
		actions = append(actions, map[string]any{
			"type":  "Action.Submit",
			"title": str(action, "label", "Action"),
			"data": map[string]any{
				"action": str(action, "id", "action"),
				"value":  str(action, "value", ""),
			},
		})
	}

	card := map[string]any{
		"type":    "AdaptiveCard",
		"version": "1.4",
		"body":    body,
		"actions": actions,
	}

	return Result{
		Success:          true,
		Artifact:         card,
		FormattedContent: fmt.Sprintf("Teams Adaptive Card: %d elements", len(body)),
		Metadata: map[string]any{
			"platform":      "teams",
			"card_version":  "1.4",
			"body_elements": len(body),
			"actions":       len(actions),
		},
	}
}

func (g *teamsGenerator) taskModule(content, options map[string]any) Result {
	taskInfo := map[string]any{
		"title":  str(content, "title", "BK25 Task"),
		"height": str(options, "height", "medium"),
		"width":  str(options, "width", "medium"),
		"url":    str(options, "url", ""),
	}
	if card, ok := content["card"]; ok {
		taskInfo["card"] = card
	}

	module := map[string]any{"taskInfo": taskInfo}
	return Result{
		Success:          true,
		Artifact:         module,
		FormattedContent: fmt.Sprintf("Teams task module: %s", taskInfo["title"]),
		Metadata:         map[string]any{"platform": "teams", "type": "task_module"},
	}
}

func (g *teamsGenerator) botActivity(content map[string]any) Result {
	activity := map[string]any{
		"type":        "message",
		"text":        str(content, "text", ""),
		"attachments": []map[string]any{},
	}

	if card, ok := content["card"]; ok {
		activity["attachments"] = []map[string]any{{
			"contentType": "application/vnd.microsoft.card.adaptive",
			"content":     card,
		}}
	}

	if suggested := items(content, "suggested_actions"); len(suggested) > 0 {
		actions := []map[string]any{}
		for _, action := range suggested {
			actions = append(actions, map[string]any{
				"type":  "imBack",
				"title": str(action, "label", "Action"),
				"value": str(action, "value", ""),
			})
		}
		activity["suggestedActions"] = map[string]any{"actions": actions}
	}

	return Result{
		Success:          true,
		Artifact:         activity,
		FormattedContent: "Teams bot activity",
		Metadata:         map[string]any{"platform": "teams", "type": "bot_activity"},
	}
}
