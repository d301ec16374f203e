package runtime

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

const evictedReason = "Conversation expired"

// Sweep evicts conversations idle for longer than maxIdle and cancels
// their pending waits. It returns how many conversations were removed.
func (e *Engine) Sweep(maxIdle time.Duration) int {
	evicted := e.store.Sweep(maxIdle)
	if len(evicted) == 0 {
		return 0
	}
	for _, id := range evicted {
		e.waits.CancelConversation(id, evictedReason)
	}
	e.logger.Info("idle conversations evicted", "count", len(evicted), "max_idle", maxIdle)
	return len(evicted)
}

// StartJanitor schedules Sweep with a cron spec such as "@every 10m".
// The returned function stops the schedule and waits for a running sweep.
func (e *Engine) StartJanitor(spec string, maxIdle time.Duration) (stop func(), err error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { e.Sweep(maxIdle) }); err != nil {
		return nil, fmt.Errorf("invalid eviction schedule %q: %w", spec, err)
	}
	c.Start()
	e.logger.Debug("eviction janitor started", "schedule", spec, "max_idle", maxIdle)
	return func() { <-c.Stop().Done() }, nil
}
