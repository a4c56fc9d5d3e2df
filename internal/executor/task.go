package executor

import (
	"fmt"
	"time"
)

// Priority orders queued tasks. Higher runs first.
type Priority int

const (
	PriorityLow      Priority = 1
	PriorityNormal   Priority = 2
	PriorityHigh     Priority = 3
	PriorityCritical Priority = 4
)

// ParsePriority maps a descriptor string to a Priority. Empty defaults to
// normal.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "", "normal":
		return PriorityNormal, nil
	case "low":
		return PriorityLow, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	}
	return 0, fmt.Errorf("unknown priority: %s", s)
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Status is a task's position in the lifecycle.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusPreparing Status = "preparing"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimeout, StatusCancelled:
		return true
	}
	return false
}

// ExecutionRequest describes a single script run.
type ExecutionRequest struct {
	Script           string            `json:"script"`
	Platform         string            `json:"platform"`
	WorkingDirectory string            `json:"working_directory,omitempty"`
	TimeoutSeconds   int               `json:"timeout_seconds,omitempty"`
	Policy           Policy            `json:"policy,omitempty"`
	Environment      map[string]string `json:"environment,omitempty"`
	UserInput        string            `json:"user_input,omitempty"`
}

// ExecutionResult is the outcome of a single script run.
type ExecutionResult struct {
	Success     bool    `json:"success"`
	Status      Status  `json:"status"`
	ExitCode    int     `json:"exit_code"`
	Output      string  `json:"output"`
	ErrorOutput string  `json:"error_output,omitempty"`
	Error       string  `json:"error,omitempty"`
	DurationSec float64 `json:"duration_seconds"`
}

// TaskDescriptor is the submission payload for a queued task.
type TaskDescriptor struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Script      string            `json:"script"`
	Platform    string            `json:"platform"`
	Priority    string            `json:"priority,omitempty"`
	Policy      Policy            `json:"policy,omitempty"`
	Timeout     int               `json:"timeout_seconds,omitempty"`
	WorkingDir  string            `json:"working_directory,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	MaxRetries  int               `json:"max_retries,omitempty"`
}

// TaskSnapshot is a read-only copy of a task's state.
type TaskSnapshot struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Script      string           `json:"script"`
	Platform    string           `json:"platform"`
	Priority    Priority         `json:"priority"`
	Status      Status           `json:"status"`
	Tags        []string         `json:"tags,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	MaxRetries  int              `json:"max_retries"`
	RetryCount  int              `json:"retry_count"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   time.Time        `json:"started_at,omitzero"`
	FinishedAt  time.Time        `json:"finished_at,omitzero"`
	Result      *ExecutionResult `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// MetricsSample is one poll of a running subprocess's resource counters.
// IOOps and NetworkConns are best-effort; they stay zero on hosts that
// restrict the underlying proc files.
type MetricsSample struct {
	Timestamp    time.Time `json:"timestamp"`
	CPUTicks     uint64    `json:"cpu_ticks"`
	RSSBytes     int64     `json:"rss_bytes"`
	IOOps        uint64    `json:"io_op_count"`
	NetworkConns int       `json:"network_connection_count"`
}

// TaskMetrics accumulates samples for one task.
type TaskMetrics struct {
	TaskID  string          `json:"task_id"`
	Samples []MetricsSample `json:"samples"`
}

// StatusCallback observes every state transition.
type StatusCallback func(TaskSnapshot)

// CompletionCallback observes transitions into a terminal state.
type CompletionCallback func(TaskSnapshot)
