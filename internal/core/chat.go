package core

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nextlevelbuilder/bk25/internal/persona"
	"github.com/nextlevelbuilder/bk25/internal/providers"
	"github.com/nextlevelbuilder/bk25/internal/tracing"
)

// ChatRequest is one user turn.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	PersonaID      string `json:"persona_id,omitempty"`
	ChannelID      string `json:"channel_id,omitempty"`
}

// ExtractedCode is the first fenced block lifted out of an LLM reply.
type ExtractedCode struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Filename string `json:"filename"`
}

// PersonaInfo identifies the persona that answered.
type PersonaInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Greeting string `json:"greeting,omitempty"`
}

// ChannelInfo identifies the channel context of the reply.
type ChannelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChatResponse is the assistant's turn.
type ChatResponse struct {
	Response       string         `json:"response"`
	Persona        PersonaInfo    `json:"persona_info"`
	Channel        ChannelInfo    `json:"channel_info"`
	ConversationID string         `json:"conversation_id"`
	Timestamp      time.Time      `json:"timestamp"`
	ExtractedCode  *ExtractedCode `json:"extracted_code,omitempty"`
}

const codePlaceholder = "[Script extracted - see the attached code]"

var chatFenceRe = regexp.MustCompile("(?s)```(\\w*)[ \\t]*\\n?(.*?)```")

// Chat runs one conversational turn: persona-conditioned prompt, LLM
// call, history bookkeeping, and code extraction.
func (c *Core) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, E(CodeInvalidInput, "message is required")
	}

	if req.PersonaID != "" && c.personas.Switch(req.PersonaID) == nil {
		return nil, E(CodeInvalidInput, "unknown persona: %s", req.PersonaID)
	}
	if req.ChannelID != "" && c.channels.Switch(req.ChannelID) == nil {
		return nil, E(CodeInvalidInput, "unknown channel: %s", req.ChannelID)
	}

	cur := c.personas.Current()
	ch := c.channels.Current()

	convID := req.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}

	ctx, span := tracing.Tracer("core").Start(ctx, "chat")
	span.SetAttributes(
		attribute.String("persona.id", cur.ID),
		attribute.String("channel.id", ch.ID),
		attribute.String("conversation.id", convID),
	)
	defer span.End()
	conv := c.store.Create(convID, cur.ID, ch.ID)
	if conv.PersonaID != cur.ID {
		c.store.SwitchPersona(convID, cur.ID)
	}

	var history []persona.HistoryMessage
	for _, m := range c.store.History(convID, 10) {
		history = append(history, persona.HistoryMessage{Role: m.Role, Content: m.Content})
	}

	promptText := c.personas.BuildPrompt(message, history)
	c.store.AddMessage(convID, "user", message, nil)

	resp, err := c.llm.Generate(ctx, providers.Request{
		Prompt:      promptText,
		Temperature: c.cfg.LLM.Temperature,
		MaxTokens:   c.cfg.LLM.MaxTokens,
	}, "")
	if err != nil {
		return nil, Wrap(CodeLLMUnavailable, err, "no LLM provider could answer")
	}

	visible, extracted := extractFirstCodeBlock(resp.Content)
	c.store.AddMessage(convID, "assistant", visible, nil)

	return &ChatResponse{
		Response:       visible,
		Persona:        PersonaInfo{ID: cur.ID, Name: cur.Name, Greeting: cur.Greeting},
		Channel:        ChannelInfo{ID: ch.ID, Name: ch.Name},
		ConversationID: convID,
		Timestamp:      time.Now(),
		ExtractedCode:  extracted,
	}, nil
}

// extractFirstCodeBlock removes the first fenced block from text and
// returns the remaining visible text plus the extracted code. Later
// blocks stay in place.
func extractFirstCodeBlock(text string) (string, *ExtractedCode) {
	m := chatFenceRe.FindStringSubmatchIndex(text)
	if m == nil {
		return strings.TrimSpace(text), nil
	}

	language := text[m[2]:m[3]]
	if language == "" {
		language = "script"
	}
	code := strings.TrimSpace(text[m[4]:m[5]])
	visible := strings.TrimSpace(text[:m[0]] + codePlaceholder + text[m[1]:])

	return visible, &ExtractedCode{
		Language: strings.ToLower(language),
		Code:     code,
		Filename: codeFilename(language),
	}
}

var codeExtensions = map[string]string{
	"bash":        ".sh",
	"sh":          ".sh",
	"shell":       ".sh",
	"powershell":  ".ps1",
	"applescript": ".scpt",
	"python":      ".py",
	"javascript":  ".js",
}

// codeFilename names the extracted script after its fence language.
func codeFilename(language string) string {
	lower := strings.ToLower(language)
	if lower == "script" {
		return "Generated Script.txt"
	}
	ext, ok := codeExtensions[lower]
	if !ok {
		ext = ".txt"
	}
	title := strings.ToUpper(lower[:1]) + lower[1:]
	return "Generated " + title + " Script" + ext
}
