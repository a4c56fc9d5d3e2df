package executor

import (
	"context"
	"log/slog"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nextlevelbuilder/bk25/internal/config"
	"github.com/nextlevelbuilder/bk25/internal/tracing"
)

// task is the supervisor's mutable record for one submission.
type task struct {
	TaskSnapshot
	req       ExecutionRequest
	seq       uint64
	cmd       *exec.Cmd
	cancelRun context.CancelFunc
}

// Statistics summarizes supervisor activity.
type Statistics struct {
	TotalSubmitted  int            `json:"total_submitted"`
	TotalCompleted  int            `json:"total_completed"`
	TotalFailed     int            `json:"total_failed"`
	TotalTimeout    int            `json:"total_timeout"`
	TotalCancelled  int            `json:"total_cancelled"`
	Rolling24h      map[string]int `json:"rolling_24h"`
	CurrentRunning  int            `json:"current_running"`
	QueueSize       int            `json:"queue_size"`
	AvgExecutionSec float64        `json:"avg_execution_seconds"`
}

// Supervisor owns the task table, the priority queue and the worker pool.
// All shared state sits behind one mutex; callbacks run outside it.
type Supervisor struct {
	cfg config.ExecutionConfig

	mu      sync.Mutex
	tasks   map[string]*task
	queue   []*task
	metrics map[string]*TaskMetrics
	seq     uint64

	statusCBs     []StatusCallback
	completionCBs []CompletionCallback

	totals struct {
		submitted, completed, failed, timeout, cancelled int
	}

	notify chan struct{}
	slots  chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor builds a stopped supervisor. Call Start before submitting.
func NewSupervisor(cfg config.ExecutionConfig) *Supervisor {
	if cfg.MaxConcurrentTasks <= 0 {
		cfg.MaxConcurrentTasks = 5
	}
	if cfg.DefaultTimeoutSecs <= 0 {
		cfg.DefaultTimeoutSecs = DefaultTimeoutSeconds
	}
	if cfg.MetricsInterval <= 0 {
		cfg.MetricsInterval = 1.0
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 7
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = "0 * * * *"
	}
	return &Supervisor{
		cfg:     cfg,
		tasks:   make(map[string]*task),
		metrics: make(map[string]*TaskMetrics),
		notify:  make(chan struct{}, 1),
		slots:   make(chan struct{}, cfg.MaxConcurrentTasks),
	}
}

// Start launches the dispatcher and the retention sweeper.
func (s *Supervisor) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(2)
	go s.dispatch()
	go s.sweepLoop()
	slog.Info("executor.started", "workers", s.cfg.MaxConcurrentTasks)
}

// Shutdown stops the dispatcher, cancels running tasks and waits for
// workers to drain or ctx to expire.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("executor.stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit admits and enqueues a task. It never blocks; the queue is
// unbounded.
func (s *Supervisor) Submit(desc TaskDescriptor) (string, error) {
	priority, err := ParsePriority(desc.Priority)
	if err != nil {
		return "", err
	}
	policy := desc.Policy
	if policy == "" {
		policy = PolicyStandard
	}
	if err := Admit(desc.Script, desc.Platform, policy, desc.Timeout); err != nil {
		return "", err
	}

	maxRetries := desc.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	timeout := desc.Timeout
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeoutSecs
	}

	t := &task{
		TaskSnapshot: TaskSnapshot{
			ID:          uuid.NewString(),
			Name:        desc.Name,
			Description: desc.Description,
			Script:      desc.Script,
			Platform:    desc.Platform,
			Priority:    priority,
			Status:      StatusQueued,
			Tags:        desc.Tags,
			Metadata:    desc.Metadata,
			MaxRetries:  maxRetries,
			CreatedAt:   time.Now(),
		},
		req: ExecutionRequest{
			Script:           desc.Script,
			Platform:         desc.Platform,
			WorkingDirectory: desc.WorkingDir,
			TimeoutSeconds:   timeout,
			Policy:           policy,
			Environment:      desc.Environment,
		},
	}

	s.mu.Lock()
	s.seq++
	t.seq = s.seq
	s.tasks[t.ID] = t
	s.queue = append(s.queue, t)
	s.totals.submitted++
	s.mu.Unlock()

	slog.Info("task.submitted", "id", t.ID, "name", t.Name, "priority", priority.String())
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return t.ID, nil
}

// popNext removes the highest-priority oldest task from the queue.
func (s *Supervisor) popNext() *task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	best := 0
	for i, t := range s.queue[1:] {
		if t.Priority > s.queue[best].Priority ||
			(t.Priority == s.queue[best].Priority && t.seq < s.queue[best].seq) {
			best = i + 1
		}
	}
	t := s.queue[best]
	s.queue = append(s.queue[:best], s.queue[best+1:]...)
	return t
}

func (s *Supervisor) dispatch() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.notify:
		}
		for {
			s.mu.Lock()
			empty := len(s.queue) == 0
			s.mu.Unlock()
			if empty {
				break
			}
			// Acquire a worker before choosing a task so a higher-priority
			// submission arriving during the wait still runs first. This is
			// the back-pressure point; submission itself never blocks.
			select {
			case s.slots <- struct{}{}:
			case <-s.ctx.Done():
				return
			}
			t := s.popNext()
			if t == nil {
				<-s.slots
				break
			}
			s.mu.Lock()
			snap := s.transitionLocked(t, StatusPreparing)
			s.mu.Unlock()
			s.fireStatus(snap)

			s.wg.Add(1)
			go s.runTask(t)
		}
	}
}

func (s *Supervisor) runTask(t *task) {
	defer s.wg.Done()
	defer func() { <-s.slots }()

	runCtx, cancelRun := context.WithCancel(s.ctx)
	defer cancelRun()

	s.mu.Lock()
	if t.Status != StatusPreparing {
		s.mu.Unlock()
		return
	}
	t.cancelRun = cancelRun
	s.mu.Unlock()

	runCtx, span := tracing.Tracer("executor").Start(runCtx, "task.run")
	span.SetAttributes(
		attribute.String("task.id", t.ID),
		attribute.String("task.platform", t.Platform),
		attribute.String("task.priority", t.Priority.String()),
	)
	defer span.End()

	result := runProcess(runCtx, t.req, func(cmd *exec.Cmd) {
		s.mu.Lock()
		t.cmd = cmd
		t.StartedAt = time.Now()
		snap := s.transitionLocked(t, StatusRunning)
		s.mu.Unlock()
		s.fireStatus(snap)
		go s.sampleTask(t.ID, cmd.Process.Pid)
	})

	span.SetAttributes(attribute.String("task.status", string(result.Status)))

	s.mu.Lock()
	t.cmd = nil
	t.cancelRun = nil
	if t.Status.IsTerminal() {
		// Cancel won the race and already finalized.
		s.mu.Unlock()
		return
	}
	t.Result = &result
	t.Error = result.Error
	t.FinishedAt = time.Now()
	snap := s.transitionLocked(t, result.Status)
	s.countLocked(result.Status)
	s.mu.Unlock()

	slog.Info("task.finished", "id", t.ID, "status", result.Status, "exit_code", result.ExitCode)
	s.fireStatus(snap)
	s.fireCompletion(snap)
}

// sampleTask polls the subprocess until it exits or a sample fails.
func (s *Supervisor) sampleTask(id string, pid int) {
	interval := time.Duration(s.cfg.MetricsInterval * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
		s.mu.Lock()
		t, ok := s.tasks[id]
		alive := ok && (t.Status == StatusRunning || t.Status == StatusPaused)
		s.mu.Unlock()
		if !alive {
			return
		}

		sample, err := sampleProcess(pid)
		if err != nil {
			return
		}
		s.mu.Lock()
		m, ok := s.metrics[id]
		if !ok {
			m = &TaskMetrics{TaskID: id}
			s.metrics[id] = m
		}
		m.Samples = append(m.Samples, sample)
		s.mu.Unlock()
	}
}

// transitionLocked changes status and returns the snapshot to publish.
// Callers fire callbacks after releasing the lock.
func (s *Supervisor) transitionLocked(t *task, status Status) TaskSnapshot {
	t.Status = status
	return t.TaskSnapshot
}

func (s *Supervisor) countLocked(status Status) {
	switch status {
	case StatusCompleted:
		s.totals.completed++
	case StatusFailed:
		s.totals.failed++
	case StatusTimeout:
		s.totals.timeout++
	case StatusCancelled:
		s.totals.cancelled++
	}
}

func (s *Supervisor) fireStatus(snap TaskSnapshot) {
	s.mu.Lock()
	cbs := make([]StatusCallback, len(s.statusCBs))
	copy(cbs, s.statusCBs)
	s.mu.Unlock()
	for _, cb := range cbs {
		invokeSafely(func() { cb(snap) })
	}
}

func (s *Supervisor) fireCompletion(snap TaskSnapshot) {
	s.mu.Lock()
	cbs := make([]CompletionCallback, len(s.completionCBs))
	copy(cbs, s.completionCBs)
	s.mu.Unlock()
	for _, cb := range cbs {
		invokeSafely(func() { cb(snap) })
	}
}

func invokeSafely(f func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task.callback_panic", "panic", r)
		}
	}()
	f()
}

// RegisterStatusCallback adds an observer for every state transition.
func (s *Supervisor) RegisterStatusCallback(cb StatusCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCBs = append(s.statusCBs, cb)
}

// RegisterCompletionCallback adds an observer for terminal transitions.
func (s *Supervisor) RegisterCompletionCallback(cb CompletionCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completionCBs = append(s.completionCBs, cb)
}

// Status returns a snapshot of the task, or nil when unknown.
func (s *Supervisor) Status(id string) *TaskSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil
	}
	snap := t.TaskSnapshot
	return &snap
}

// Running lists tasks currently in running or paused state.
func (s *Supervisor) Running() []TaskSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TaskSnapshot
	for _, t := range s.tasks {
		if t.Status == StatusRunning || t.Status == StatusPaused {
			out = append(out, t.TaskSnapshot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Metrics returns the resource samples for a task, or nil.
func (s *Supervisor) Metrics(id string) *TaskMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[id]
	if !ok {
		return nil
	}
	cp := &TaskMetrics{TaskID: m.TaskID, Samples: make([]MetricsSample, len(m.Samples))}
	copy(cp.Samples, m.Samples)
	return cp
}

// Cancel moves a non-terminal task to cancelled. Returns false for
// unknown or already-terminal tasks.
func (s *Supervisor) Cancel(id string) bool {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok || t.Status.IsTerminal() {
		s.mu.Unlock()
		return false
	}

	if t.cancelRun != nil {
		// A live run: resume if paused so the terminate signal lands, then
		// cancel the run context. The worker finalizes the cancelled state.
		if t.Status == StatusPaused && t.cmd != nil && t.cmd.Process != nil {
			signalResume(t.cmd.Process)
		}
		cancel := t.cancelRun
		s.mu.Unlock()
		cancel()
		slog.Info("task.cancel_requested", "id", id)
		return true
	}

	// Still queued or preparing without a subprocess.
	for i, q := range s.queue {
		if q.ID == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	t.FinishedAt = time.Now()
	t.Error = "cancelled before execution"
	snap := s.transitionLocked(t, StatusCancelled)
	s.countLocked(StatusCancelled)
	s.mu.Unlock()

	slog.Info("task.cancelled", "id", id)
	s.fireStatus(snap)
	s.fireCompletion(snap)
	return true
}

// Pause suspends a running task's subprocess.
func (s *Supervisor) Pause(id string) bool {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok || t.Status != StatusRunning || t.cmd == nil || t.cmd.Process == nil {
		s.mu.Unlock()
		return false
	}
	if err := signalPause(t.cmd.Process); err != nil {
		s.mu.Unlock()
		slog.Warn("task.pause_failed", "id", id, "error", err)
		return false
	}
	snap := s.transitionLocked(t, StatusPaused)
	s.mu.Unlock()
	s.fireStatus(snap)
	return true
}

// Resume continues a paused task.
func (s *Supervisor) Resume(id string) bool {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok || t.Status != StatusPaused || t.cmd == nil || t.cmd.Process == nil {
		s.mu.Unlock()
		return false
	}
	if err := signalResume(t.cmd.Process); err != nil {
		s.mu.Unlock()
		slog.Warn("task.resume_failed", "id", id, "error", err)
		return false
	}
	snap := s.transitionLocked(t, StatusRunning)
	s.mu.Unlock()
	s.fireStatus(snap)
	return true
}

// HistoryFilter narrows History results. Zero values match everything.
type HistoryFilter struct {
	Status   Status
	Platform string
}

// History lists tasks newest-first, optionally filtered, up to limit.
func (s *Supervisor) History(limit int, filter HistoryFilter) []TaskSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TaskSnapshot
	for _, t := range s.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Platform != "" && t.Platform != filter.Platform {
			continue
		}
		out = append(out, t.TaskSnapshot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Statistics reports totals, a rolling 24h window, queue size and average
// execution time.
func (s *Supervisor) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{
		TotalSubmitted: s.totals.submitted,
		TotalCompleted: s.totals.completed,
		TotalFailed:    s.totals.failed,
		TotalTimeout:   s.totals.timeout,
		TotalCancelled: s.totals.cancelled,
		Rolling24h:     make(map[string]int),
		QueueSize:      len(s.queue),
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	var totalSec float64
	var finished int
	for _, t := range s.tasks {
		switch t.Status {
		case StatusRunning, StatusPaused:
			stats.CurrentRunning++
		}
		if t.Status.IsTerminal() && t.FinishedAt.After(cutoff) {
			stats.Rolling24h[string(t.Status)]++
		}
		if t.Result != nil {
			totalSec += t.Result.DurationSec
			finished++
		}
	}
	if finished > 0 {
		stats.AvgExecutionSec = totalSec / float64(finished)
	}
	return stats
}
