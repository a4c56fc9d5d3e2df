package artifact

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestForChannel(t *testing.T) {
	for _, id := range []string{"web", "slack", "teams", "discord", "twitch", "whatsapp", "apple-business-chat"} {
		g, err := ForChannel(id)
		if err != nil {
			t.Fatalf("ForChannel(%s): %v", id, err)
		}
		if g.ChannelID() != id {
			t.Errorf("ChannelID = %q, want %q", g.ChannelID(), id)
		}
	}
	if _, err := ForChannel("telegram"); err == nil {
		t.Error("expected error for unknown channel")
	}
}

func TestResultEnvelope(t *testing.T) {
	g, _ := ForChannel("slack")
	res := g.Generate(Request{
		Type:        "blocks",
		Description: "deployment summary",
		Content:     map[string]any{"text": "done"},
	})

	if res.Channel != "slack" || res.ChannelName != "Slack" {
		t.Errorf("channel envelope = %q/%q", res.Channel, res.ChannelName)
	}
	if res.ArtifactType != "blocks" || res.Description != "deployment summary" {
		t.Errorf("type/description = %q/%q", res.ArtifactType, res.Description)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var keys map[string]any
	json.Unmarshal(raw, &keys)
	for _, key := range []string{"channel", "channelName", "artifactType", "description", "artifact"} {
		if _, ok := keys[key]; !ok {
			t.Errorf("envelope key %q missing; got keys %v", key, keys)
		}
	}
}

func TestEnvelopeOnFailure(t *testing.T) {
	g, _ := ForChannel("teams")
	res := g.Generate(Request{Type: "embeds", Description: "wrong channel"})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Channel != "teams" || res.ChannelName != "Microsoft Teams" || res.ArtifactType != "embeds" {
		t.Errorf("envelope = %q/%q/%q", res.Channel, res.ChannelName, res.ArtifactType)
	}
}

func TestUnsupportedArtifactType(t *testing.T) {
	g, _ := ForChannel("slack")
	res := g.Generate(Request{Type: "embeds"})
	if res.Success {
		t.Fatal("expected failure for unsupported type")
	}
	if !strings.Contains(res.Error, "Unsupported artifact type") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestSlackBlocks(t *testing.T) {
	g, _ := ForChannel("slack")
	res := g.Generate(Request{
		Type: "blocks",
		Content: map[string]any{
			"title": "Deploy done",
			"text":  "All services healthy.",
			"code":  "kubectl get pods",
			"actions": []any{
				map[string]any{"label": "Rerun", "value": "rerun", "id": "rerun"},
			},
		},
	})
	if !res.Success {
		t.Fatalf("generate failed: %s", res.Error)
	}

	artifact := res.Artifact.(map[string]any)
	blocks := artifact["blocks"].([]map[string]any)
	// header + text + code + actions
	if len(blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(blocks))
	}
	if blocks[0]["type"] != "header" {
		t.Errorf("first block = %v", blocks[0]["type"])
	}
	if res.Metadata["block_count"] != 4 {
		t.Errorf("block_count = %v", res.Metadata["block_count"])
	}
}

func TestSlackBlocksNoHeader(t *testing.T) {
	g, _ := ForChannel("slack")
	res := g.Generate(Request{
		Type:    "blocks",
		Content: map[string]any{"text": "hi"},
		Options: map[string]any{"show_header": false},
	})
	blocks := res.Artifact.(map[string]any)["blocks"].([]map[string]any)
	if len(blocks) != 1 || blocks[0]["type"] != "section" {
		t.Fatalf("blocks = %v", blocks)
	}
}

func TestTeamsAdaptiveCard(t *testing.T) {
	g, _ := ForChannel("teams")
	res := g.Generate(Request{
		Type: "adaptive_cards",
		Content: map[string]any{
			"title": "Report",
			"text":  "Weekly summary",
			"facts": []any{
				map[string]any{"title": "Status", "value": "OK"},
			},
			"actions": []any{
				map[string]any{"label": "Open", "id": "open"},
			},
		},
	})
	if !res.Success {
		t.Fatalf("generate failed: %s", res.Error)
	}

	card := res.Artifact.(map[string]any)
	if card["type"] != "AdaptiveCard" || card["version"] != "1.4" {
		t.Errorf("card envelope = %v %v", card["type"], card["version"])
	}
	if res.Metadata["body_elements"] != 3 {
		t.Errorf("body_elements = %v", res.Metadata["body_elements"])
	}
	if res.Metadata["actions"] != 1 {
		t.Errorf("actions = %v", res.Metadata["actions"])
	}
}

func TestDiscordEmbed(t *testing.T) {
	g, _ := ForChannel("discord")
	res := g.Generate(Request{
		Type: "embeds",
		Content: map[string]any{
			"title":       "Build finished",
			"description": "All green",
			"fields": []any{
				map[string]any{"name": "Duration", "value": "42s", "inline": true},
			},
		},
	})
	if !res.Success {
		t.Fatalf("generate failed: %s", res.Error)
	}

	embed, ok := res.Artifact.(*discordgo.MessageEmbed)
	if !ok {
		t.Fatalf("artifact type = %T", res.Artifact)
	}
	if embed.Title != "Build finished" {
		t.Errorf("title = %q", embed.Title)
	}
	if embed.Color != discordBlurple {
		t.Errorf("color = %#x", embed.Color)
	}
	if len(embed.Fields) != 1 || !embed.Fields[0].Inline {
		t.Errorf("fields = %+v", embed.Fields)
	}
	if embed.Footer == nil || embed.Footer.Text == "" {
		t.Error("missing footer")
	}
}

func TestDiscordSlashCommandDefaults(t *testing.T) {
	g, _ := ForChannel("discord")
	res := g.Generate(Request{
		Type: "slash_commands",
		Content: map[string]any{
			"options": []any{
				map[string]any{"name": "query"},
			},
		},
	})
	cmd := res.Artifact.(*discordgo.ApplicationCommand)
	if cmd.Name != "bk25" {
		t.Errorf("name = %q", cmd.Name)
	}
	if cmd.Options[0].Type != discordgo.ApplicationCommandOptionString {
		t.Errorf("option type = %v", cmd.Options[0].Type)
	}
}

func TestWebHTMLIncludesCode(t *testing.T) {
	g, _ := ForChannel("web")
	res := g.Generate(Request{
		Type: "html",
		Content: map[string]any{
			"title":    "Script",
			"text":     "Here you go",
			"code":     "echo hi",
			"language": "bash",
		},
	})
	if !res.Success {
		t.Fatalf("generate failed: %s", res.Error)
	}
	page := res.Artifact.(string)
	if !strings.Contains(page, "<title>Script</title>") {
		t.Error("missing title")
	}
	if !strings.Contains(page, `class="language-bash"`) {
		t.Error("missing code block")
	}
}

func TestWhatsAppTemplate(t *testing.T) {
	g, _ := ForChannel("whatsapp")
	res := g.Generate(Request{
		Type: "templates",
		Content: map[string]any{
			"name":    "order_update",
			"header":  "Order",
			"body":    "Your order shipped",
			"buttons": []any{"Track"},
		},
	})
	tmpl := res.Artifact.(map[string]any)
	components := tmpl["components"].([]map[string]any)
	if len(components) != 3 {
		t.Fatalf("components = %d, want 3", len(components))
	}
	if components[2]["sub_type"] != "quick_reply" {
		t.Errorf("button component = %v", components[2])
	}
}

func TestValidateMessageLimits(t *testing.T) {
	tests := []struct {
		channel string
		max     int
	}{
		{"slack", 3000},
		{"discord", 2000},
		{"teams", 25000},
		{"twitch", 500},
		{"whatsapp", 4096},
		{"apple-business-chat", 2000},
		{"web", 100000},
	}
	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			g, _ := ForChannel(tt.channel)

			v := g.ValidateMessage("hello")
			if !v.Valid || v.MaxLength != tt.max {
				t.Errorf("short message: valid=%v max=%d", v.Valid, v.MaxLength)
			}

			long := strings.Repeat("x", tt.max+1)
			v = g.ValidateMessage(long)
			if v.Valid {
				t.Error("over-limit message validated")
			}
			if len(v.Truncated) != tt.max {
				t.Errorf("truncated length = %d, want %d", len(v.Truncated), tt.max)
			}
		})
	}
}
