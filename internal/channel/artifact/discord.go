package artifact

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const discordBlurple = 0x5865F2

// discordGenerator renders embeds, slash command definitions and message
// components. Embeds use the discordgo wire types so payloads marshal to
// exactly what the Discord API expects.
type discordGenerator struct{}

func (g *discordGenerator) ChannelID() string { return "discord" }

func (g *discordGenerator) Constraints() Constraints {
	return Constraints{
		MaxMessageLength:    2000,
		SupportsRichText:    true,
		SupportsMedia:       true,
		SupportsInteractive: true,
	}
}

func (g *discordGenerator) ValidateMessage(message string) Validation {
	return validate(message, g.Constraints())
}

func (g *discordGenerator) Generate(req Request) Result {
	switch req.Type {
	case "embeds":
		return g.embed(req.Content, req.Options)
	case "slash_commands":
		return g.slashCommand(req.Content)
	case "components":
		return g.component(req.Content)
	default:
		return unsupported(req.Type)
	}
}

func (g *discordGenerator) embed(content, options map[string]any) Result {
	embed := &discordgo.MessageEmbed{
		Title:       str(content, "title", "BK25 Response"),
		Description: str(content, "description", ""),
		Color:       intOr(options, "color", discordBlurple),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "BK25 - Multi-Persona Channel Simulator",
		},
	}

	if author := content["author"]; author != nil {
		if m, ok := author.(map[string]any); ok {
			embed.Author = &discordgo.MessageEmbedAuthor{
				Name:    str(m, "name", "BK25"),
				IconURL: str(m, "icon_url", ""),
			}
		}
	}
	if thumb := str(content, "thumbnail", ""); thumb != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumb}
	}
	for _, f := range items(content, "fields") {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   str(f, "name", ""),
			Value:  str(f, "value", ""),
			Inline: boolOr(f, "inline", false),
		})
	}
	if ts := str(content, "timestamp", ""); ts != "" {
		embed.Timestamp = ts
	}

	return Result{
		Success:          true,
		Artifact:         embed,
		FormattedContent: fmt.Sprintf("Discord Embed: %s", embed.Title),
		Metadata: map[string]any{
			"platform":    "discord",
			"type":        "embed",
			"field_count": len(embed.Fields),
		},
	}
}

func (g *discordGenerator) slashCommand(content map[string]any) Result {
	cmd := &discordgo.ApplicationCommand{
		Name:        str(content, "name", "bk25"),
		Description: str(content, "description", "BK25 command"),
	}
	for _, opt := range items(content, "options") {
		cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
			Name:        str(opt, "name", ""),
			Description: str(opt, "description", ""),
			Type:        discordgo.ApplicationCommandOptionType(intOr(opt, "type", int(discordgo.ApplicationCommandOptionString))),
			Required:    boolOr(opt, "required", false),
		})
	}

	return Result{
		Success:          true,
		Artifact:         cmd,
		FormattedContent: fmt.Sprintf("Discord Command: %s", cmd.Name),
		Metadata:         map[string]any{"platform": "discord", "type": "slash_command"},
	}
}

func (g *discordGenerator) component(content map[string]any) Result {
	row := discordgo.ActionsRow{}
	for _, button := range items(content, "buttons") {
		row.Components = append(row.Components, discordgo.Button{
			Style:    discordgo.ButtonStyle(intOr(button, "style", int(discordgo.PrimaryButton))),
			Label:    str(button, "label", "Button"),
			CustomID: str(button, "id", "button"),
		})
	}

	return Result{
		Success:          true,
		Artifact:         row,
		FormattedContent: fmt.Sprintf("Discord component row: %d buttons", len(row.Components)),
		Metadata:         map[string]any{"platform": "discord", "type": "component"},
	}
}
