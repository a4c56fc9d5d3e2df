package executor

import (
	"log/slog"
	"time"

	"github.com/adhocore/gronx"
)

// sweepLoop removes old terminal tasks on the configured cron schedule.
func (s *Supervisor) sweepLoop() {
	defer s.wg.Done()

	gron := gronx.New()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
		due, err := gron.IsDue(s.cfg.SweepSchedule, time.Now())
		if err != nil {
			slog.Warn("executor.sweep_schedule_invalid", "schedule", s.cfg.SweepSchedule, "error", err)
			return
		}
		if due {
			s.sweep(time.Now().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour))
		}
	}
}

// sweep drops terminal tasks created before cutoff, with their metrics.
func (s *Supervisor) sweep(cutoff time.Time) int {
	s.mu.Lock()
	var removed int
	for id, t := range s.tasks {
		if t.Status.IsTerminal() && t.CreatedAt.Before(cutoff) {
			delete(s.tasks, id)
			delete(s.metrics, id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		slog.Info("executor.swept", "removed", removed)
	}
	return removed
}
