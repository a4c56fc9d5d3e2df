// Package core wires the BK25 components into one facade consumed by the
// transports. Lifecycle is New -> Start -> Shutdown; there are no package
// globals.
package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/bk25/internal/channel"
	"github.com/nextlevelbuilder/bk25/internal/channel/artifact"
	"github.com/nextlevelbuilder/bk25/internal/codegen"
	"github.com/nextlevelbuilder/bk25/internal/config"
	"github.com/nextlevelbuilder/bk25/internal/executor"
	"github.com/nextlevelbuilder/bk25/internal/memory"
	"github.com/nextlevelbuilder/bk25/internal/memory/sqlitestore"
	"github.com/nextlevelbuilder/bk25/internal/persona"
	"github.com/nextlevelbuilder/bk25/internal/prompt"
	"github.com/nextlevelbuilder/bk25/internal/providers"
)

// Core owns every subsystem and exposes the operations the transports
// adapt.
type Core struct {
	cfg *config.Config

	personas   *persona.Registry
	channels   *channel.Registry
	store      memory.Store
	llm        *providers.Registry
	generator  *codegen.Generator
	supervisor *executor.Supervisor

	sqlite      *sqlitestore.Store
	cancelWatch context.CancelFunc
}

// New assembles a Core from config. Persona descriptors are loaded here;
// background work starts in Start.
func New(cfg *config.Config) (*Core, error) {
	personas := persona.NewRegistry(cfg.Personas.Path)
	if err := personas.LoadAll(); err != nil {
		// The registry synthesized the fallback persona; the server still
		// answers without descriptors on disk.
		slog.Warn("persona.load_failed", "path", cfg.Personas.Path, "error", err)
	}

	c := &Core{
		cfg:        cfg,
		personas:   personas,
		channels:   channel.NewRegistry(),
		llm:        providers.NewRegistry(cfg.LLM),
		supervisor: executor.NewSupervisor(cfg.Execution),
	}
	c.generator = codegen.NewGenerator(c.llm, cfg.LLM)

	if cfg.Memory.SQLitePath != "" {
		store, err := sqlitestore.Open(cfg.Memory.SQLitePath, cfg.Memory.MaxConversations, cfg.Memory.MaxMessagesPerConversation)
		if err != nil {
			return nil, fmt.Errorf("open conversation store: %w", err)
		}
		c.sqlite = store
		c.store = store
	} else {
		c.store = memory.NewInMemoryStore(cfg.Memory.MaxConversations, cfg.Memory.MaxMessagesPerConversation)
	}

	return c, nil
}

// Start launches the execution supervisor and, when configured, the
// persona directory watcher.
func (c *Core) Start() {
	c.supervisor.Start()
	if c.cfg.Personas.Watch {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancelWatch = cancel
		go func() {
			if err := c.personas.Watch(ctx); err != nil && ctx.Err() == nil {
				slog.Error("persona.watch_failed", "error", err)
			}
		}()
	}
	slog.Info("core.started")
}

// Shutdown stops background work and closes the store.
func (c *Core) Shutdown(ctx context.Context) error {
	if c.cancelWatch != nil {
		c.cancelWatch()
	}
	err := c.supervisor.Shutdown(ctx)
	if c.sqlite != nil {
		if cerr := c.sqlite.Close(); err == nil {
			err = cerr
		}
	}
	slog.Info("core.stopped")
	return err
}

// ListPersonas returns all personas, narrowed to a channel when one is
// given.
func (c *Core) ListPersonas(channelID string) []*persona.Persona {
	if channelID == "" {
		return c.personas.List()
	}
	return c.personas.ListForChannel(channelID)
}

// CurrentPersona returns the active persona.
func (c *Core) CurrentPersona() *persona.Persona {
	return c.personas.Current()
}

// SwitchPersona activates a persona by id.
func (c *Core) SwitchPersona(id string) (*persona.Persona, error) {
	if p := c.personas.Switch(id); p != nil {
		return p, nil
	}
	return nil, E(CodeNotFound, "persona not found: %s", id)
}

// CreatePersona registers a runtime-created persona.
func (c *Core) CreatePersona(p *persona.Persona) (*persona.Persona, error) {
	created, err := c.personas.AddCustom(p)
	if err != nil {
		return nil, Wrap(CodeInvalidInput, err, "invalid persona descriptor")
	}
	return created, nil
}

// ReloadPersonas re-reads the descriptor directory.
func (c *Core) ReloadPersonas() error {
	if err := c.personas.Reload(); err != nil {
		return Wrap(CodeInternal, err, "reload personas")
	}
	return nil
}

// ListChannels returns all channel summaries.
func (c *Core) ListChannels() []*channel.Summary {
	return c.channels.SummarizeAll()
}

// CurrentChannel returns the active channel's summary.
func (c *Core) CurrentChannel() *channel.Summary {
	return c.channels.Summarize(c.channels.Current().ID)
}

// SwitchChannel activates a channel and returns its summary with artifact
// kinds and capabilities.
func (c *Core) SwitchChannel(id string) (*channel.Summary, error) {
	if ch := c.channels.Switch(id); ch != nil {
		return c.channels.Summarize(ch.ID), nil
	}
	return nil, E(CodeNotFound, "channel not found: %s", id)
}

// ChannelStats reports registry-wide channel numbers.
func (c *Core) ChannelStats() channel.Stats {
	return c.channels.Stats()
}

// GenerateArtifact produces a channel-shaped artifact after checking the
// channel supports the requested kind.
func (c *Core) GenerateArtifact(req artifact.Request) (artifact.Result, error) {
	if req.ChannelID == "" {
		req.ChannelID = c.channels.Current().ID
	}
	if !c.channels.ValidateArtifact(req.ChannelID, req.Type) {
		return artifact.Result{}, E(CodeInvalidInput, "channel %s does not support artifact type %s", req.ChannelID, req.Type)
	}
	gen, err := artifact.ForChannel(req.ChannelID)
	if err != nil {
		return artifact.Result{}, E(CodeNotFound, "channel not found: %s", req.ChannelID)
	}
	return gen.Generate(req), nil
}

// GenerateScript runs the code-generation pipeline with the current
// persona and channel as prompt context.
func (c *Core) GenerateScript(ctx context.Context, description, platform string, opts *prompt.Options) *codegen.Result {
	return c.generator.Generate(ctx, description, platform, c.promptContext(nil), opts)
}

// ImproveScript revises a script against feedback.
func (c *Core) ImproveScript(ctx context.Context, script, feedback, platform string) *codegen.Result {
	return c.generator.ImproveScript(ctx, script, feedback, platform, c.promptContext(nil))
}

// ReviewScript validates a script statically and via the LLM.
func (c *Core) ReviewScript(ctx context.Context, script, platform string) codegen.Review {
	return c.generator.ValidateScript(ctx, script, platform, c.promptContext(nil))
}

// Platforms lists the generatable platforms and their templates.
func (c *Core) Platforms() []*codegen.PlatformInfo {
	var out []*codegen.PlatformInfo
	for _, p := range codegen.SupportedPlatforms() {
		out = append(out, codegen.InfoFor(p))
	}
	return out
}

// Suggestions surveys a description for automation patterns.
func (c *Core) Suggestions(description string) []codegen.Suggestion {
	return codegen.Suggestions(description)
}

// GeneratorStatistics reports per-method generation counts.
func (c *Core) GeneratorStatistics() map[string]int {
	return c.generator.Statistics()
}

// LLMStatus probes every configured provider.
func (c *Core) LLMStatus(ctx context.Context) map[string]bool {
	return c.llm.Probe(ctx)
}

// Execute runs a script synchronously, bypassing the task queue.
func (c *Core) Execute(ctx context.Context, req executor.ExecutionRequest) executor.ExecutionResult {
	return executor.ExecuteDirect(ctx, req)
}

// SubmitTask admits and enqueues a task for asynchronous execution.
func (c *Core) SubmitTask(desc executor.TaskDescriptor) (string, error) {
	id, err := c.supervisor.Submit(desc)
	if err != nil {
		return "", Wrap(CodePolicyViolation, err, "task rejected")
	}
	return id, nil
}

// TaskStatus returns a task snapshot.
func (c *Core) TaskStatus(id string) (*executor.TaskSnapshot, error) {
	if snap := c.supervisor.Status(id); snap != nil {
		return snap, nil
	}
	return nil, E(CodeNotFound, "task not found: %s", id)
}

// TaskMetrics returns a task's resource samples.
func (c *Core) TaskMetrics(id string) (*executor.TaskMetrics, error) {
	if m := c.supervisor.Metrics(id); m != nil {
		return m, nil
	}
	return nil, E(CodeNotFound, "no metrics for task: %s", id)
}

// CancelTask cancels a non-terminal task.
func (c *Core) CancelTask(id string) bool { return c.supervisor.Cancel(id) }

// PauseTask suspends a running task.
func (c *Core) PauseTask(id string) bool { return c.supervisor.Pause(id) }

// ResumeTask continues a paused task.
func (c *Core) ResumeTask(id string) bool { return c.supervisor.Resume(id) }

// RunningTasks lists live tasks.
func (c *Core) RunningTasks() []executor.TaskSnapshot { return c.supervisor.Running() }

// TaskHistory lists past tasks newest-first.
func (c *Core) TaskHistory(limit int, filter executor.HistoryFilter) []executor.TaskSnapshot {
	return c.supervisor.History(limit, filter)
}

// TaskStatistics reports supervisor totals and queue state.
func (c *Core) TaskStatistics() executor.Statistics { return c.supervisor.Statistics() }

// Conversations exposes the conversation store for transports.
func (c *Core) Conversations() memory.Store { return c.store }

// promptContext builds the prompt context from the current persona and
// channel, plus optional conversation history.
func (c *Core) promptContext(history []prompt.HistoryMessage) prompt.Context {
	pctx := prompt.Context{History: history}
	if p := c.personas.Current(); p != nil {
		pctx.PersonaID = p.ID
		pctx.PersonaName = p.Name
		pctx.PersonaDescription = p.Description
		pctx.PersonaCapabilities = p.Capabilities
	}
	if ch := c.channels.Current(); ch != nil {
		pctx.ChannelID = ch.ID
		pctx.ChannelName = ch.Name
	}
	return pctx
}
