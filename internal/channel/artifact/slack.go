package artifact

import "fmt"

// slackGenerator renders Block Kit payloads, attachments and modals.
type slackGenerator struct{}

func (g *slackGenerator) ChannelID() string { return "slack" }

func (g *slackGenerator) Constraints() Constraints {
	return Constraints{
		MaxMessageLength:    3000,
		SupportsRichText:    true,
		SupportsMedia:       true,
		SupportsInteractive: true,
	}
}

func (g *slackGenerator) ValidateMessage(message string) Validation {
	return validate(message, g.Constraints())
}

func (g *slackGenerator) Generate(req Request) Result {
	switch req.Type {
	case "blocks":
		return g.blocks(req.Content, req.Options)
	case "attachments":
		return g.attachment(req.Content, req.Options)
	case "modals":
		return g.modal(req.Content, req.Options)
	default:
		return unsupported(req.Type)
	}
}

func (g *slackGenerator) blocks(content, options map[string]any) Result {
	var blocks []map[string]any

	if boolOr(options, "show_header", true) {
		blocks = append(blocks, map[string]any{
			"type": "header",
			"text": map[string]any{
				"type":  "plain_text",
				"text":  str(content, "title", "BK25 Response"),
				"emoji": true,
			},
		})
	}

	if text := str(content, "text", ""); text != "" {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": text},
		})
	}

	if code := str(content, "code", ""); code != "" {
		lang := str(content, "language", "text")
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("```%s\n%s\n```", lang, code),
			},
		})
	}

	if actions := items(content, "actions"); len(actions) > 0 {
		var elements []map[string]any
		for _, action := range actions {
			elements = append(elements, map[string]any{
				"type": "button",
				"text": map[string]any{
					"type":  "plain_text",
					"text":  str(action, "label", "Action"),
					"emoji": true,
				},
				"value":     str(action, "value", ""),
				"action_id": str(action, "id", "action"),
			})
		}
		blocks = append(blocks, map[string]any{"type": "actions", "elements": elements})
	}

	artifact := map[string]any{
		"blocks":  blocks,
		"channel": str(options, "channel", "general"),
	}
	if ts := str(options, "thread_ts", ""); ts != "" {
		artifact["thread_ts"] = ts
	}

	return Result{
		Success:          true,
		Artifact:         artifact,
		FormattedContent: fmt.Sprintf("Slack Block Kit: %d blocks", len(blocks)),
		Metadata: map[string]any{
			"platform":           "slack",
			"block_count":        len(blocks),
			"supports_threading": true,
		},
	}
}

func (g *slackGenerator) attachment(content, options map[string]any) Result {
	fields := []map[string]any{}
	for _, f := range items(content, "fields") {
		fields = append(fields, map[string]any{
			"title": str(f, "title", ""),
			"value": str(f, "value", ""),
			"short": boolOr(f, "short", true),
		})
	}

	attachment := map[string]any{
		"color":  str(options, "color", "#36a64f"),
		"title":  str(content, "title", "BK25 Attachment"),
		"text":   str(content, "text", ""),
		"fields": fields,
	}

	return Result{
		Success:          true,
		Artifact:         attachment,
		FormattedContent: fmt.Sprintf("Slack attachment: %s", attachment["title"]),
		Metadata:         map[string]any{"platform": "slack", "type": "attachment"},
	}
}

func (g *slackGenerator) modal(content, options map[string]any) Result {
	blocks := []map[string]any{}
	for _, input := range items(content, "inputs") {
		blocks = append(blocks, map[string]any{
			"type":     "input",
			"block_id": str(input, "id", "input"),
			"label": map[string]any{
				"type":  "plain_text",
				"text":  str(input, "label", "Input"),
				"emoji": true,
			},
			"element": map[string]any{
				"type":      "plain_text_input",
				"action_id": str(input, "action_id", "input"),
				"placeholder": map[string]any{
					"type": "plain_text",
					"text": str(input, "placeholder", "Enter text..."),
				},
			},
		})
	}

	modal := map[string]any{
		"type": "modal",
		"title": map[string]any{
			"type":  "plain_text",
			"text":  str(content, "title", "BK25 Modal"),
			"emoji": true,
		},
		"submit": map[string]any{
			"type":  "plain_text",
			"text":  str(content, "submit_text", "Submit"),
			"emoji": true,
		},
		"close": map[string]any{
			"type":  "plain_text",
			"text":  str(content, "close_text", "Cancel"),
			"emoji": true,
		},
		"blocks": blocks,
	}

	return Result{
		Success:          true,
		Artifact:         modal,
		FormattedContent: fmt.Sprintf("Slack modal: %d inputs", len(blocks)),
		Metadata:         map[string]any{"platform": "slack", "type": "modal"},
	}
}
