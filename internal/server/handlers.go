package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nextlevelbuilder/bk25/internal/channel/artifact"
	"github.com/nextlevelbuilder/bk25/internal/core"
	"github.com/nextlevelbuilder/bk25/internal/executor"
	"github.com/nextlevelbuilder/bk25/internal/persona"
	"github.com/nextlevelbuilder/bk25/internal/prompt"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "bk25",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"personas": s.core.ListPersonas(r.URL.Query().Get("channel")),
	})
}

func (s *Server) handleCurrentPersona(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.CurrentPersona())
}

func (s *Server) handleSwitchPersona(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PersonaID string `json:"persona_id"`
	}
	if !decode(w, r, &body) {
		return
	}
	p, err := s.core.SwitchPersona(body.PersonaID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePersona(w http.ResponseWriter, r *http.Request) {
	var desc persona.Persona
	if !decode(w, r, &desc) {
		return
	}
	created, err := s.core.CreatePersona(&desc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleReloadPersonas(w http.ResponseWriter, r *http.Request) {
	if err := s.core.ReloadPersonas(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"personas": s.core.ListPersonas(""),
		"current":  s.core.CurrentPersona().ID,
	})
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"channels": s.core.ListChannels(),
		"stats":    s.core.ChannelStats(),
	})
}

func (s *Server) handleCurrentChannel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.CurrentChannel())
}

func (s *Server) handleSwitchChannel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChannelID string `json:"channel_id"`
	}
	if !decode(w, r, &body) {
		return
	}
	sum, err := s.core.SwitchChannel(body.ChannelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleGenerateArtifact(w http.ResponseWriter, r *http.Request) {
	var req artifact.Request
	if !decode(w, r, &req) {
		return
	}
	result, err := s.core.GenerateArtifact(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req core.ChatRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.core.Chat(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string          `json:"description"`
		Platform    string          `json:"platform"`
		Options     *prompt.Options `json:"options,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Description == "" {
		writeError(w, core.E(core.CodeInvalidInput, "description is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.core.GenerateScript(r.Context(), req.Description, req.Platform, req.Options))
}

func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Script   string `json:"script"`
		Feedback string `json:"feedback"`
		Platform string `json:"platform"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Script == "" {
		writeError(w, core.E(core.CodeInvalidInput, "script is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.core.ImproveScript(r.Context(), req.Script, req.Feedback, req.Platform))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Script   string `json:"script"`
		Platform string `json:"platform"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Script == "" {
		writeError(w, core.E(core.CodeInvalidInput, "script is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.core.ReviewScript(r.Context(), req.Script, req.Platform))
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"platforms": s.core.Platforms()})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	description := r.URL.Query().Get("description")
	if description == "" {
		writeError(w, core.E(core.CodeInvalidInput, "description query parameter is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": s.core.Suggestions(description)})
}

func (s *Server) handleLLMStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": s.core.LLMStatus(r.Context())})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executor.ExecutionRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.core.Execute(r.Context(), req))
}

func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	var desc executor.TaskDescriptor
	if !decode(w, r, &desc) {
		return
	}
	id, err := s.core.SubmitTask(desc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func (s *Server) handleTaskHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	filter := executor.HistoryFilter{
		Status:   executor.Status(q.Get("status")),
		Platform: q.Get("platform"),
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": s.core.TaskHistory(limit, filter)})
}

func (s *Server) handleRunningTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tasks": s.core.RunningTasks()})
}

func (s *Server) handleTaskStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.TaskStatistics())
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.core.TaskStatus(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTaskMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.core.TaskMetrics(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleTaskSignal(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var ok bool
		switch action {
		case "cancel":
			ok = s.core.CancelTask(id)
		case "pause":
			ok = s.core.PauseTask(id)
		case "resume":
			ok = s.core.ResumeTask(id)
		}
		if !ok {
			writeError(w, core.E(core.CodeNotFound, "%s rejected for task %s", action, id))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"task_id": id, "action": action})
	}
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": s.core.Conversations().SummarizeAll(),
		"stats":         s.core.Conversations().Stats(),
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv := s.core.Conversations().Get(r.PathValue("id"))
	if conv == nil {
		writeError(w, core.E(core.CodeNotFound, "conversation not found: %s", r.PathValue("id")))
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if !s.core.Conversations().Delete(r.PathValue("id")) {
		writeError(w, core.E(core.CodeNotFound, "conversation not found: %s", r.PathValue("id")))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": r.PathValue("id")})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"generator":     s.core.GeneratorStatistics(),
		"tasks":         s.core.TaskStatistics(),
		"conversations": s.core.Conversations().Stats(),
		"channels":      s.core.ChannelStats(),
	})
}
