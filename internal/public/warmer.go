package public

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Warmer refreshes every section on a cron schedule so the cached fallback
// stays current between page views.
type Warmer struct {
	cron    *cron.Cron
	site    *Site
	timeout time.Duration
	logger  *zap.Logger
}

// NewWarmer schedules site refreshes. schedule is a standard five-field cron
// expression or a descriptor such as "@every 5m"; empty schedules nothing.
func NewWarmer(site *Site, schedule string, logger *zap.Logger) (*Warmer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Warmer{cron: cron.New(), site: site, timeout: 30 * time.Second, logger: logger}
	if schedule == "" {
		logger.Info("scheduled section refresh disabled")
		return w, nil
	}
	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return nil, fmt.Errorf("scheduling refresh %q: %w", schedule, err)
	}
	return w, nil
}

func (w *Warmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	start := time.Now()
	w.site.RefreshAll(ctx)
	w.logger.Debug("sections refreshed", zap.Duration("took", time.Since(start)))
}

// Start runs the schedule in the background.
func (w *Warmer) Start() {
	w.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish.
func (w *Warmer) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

// ValidateSchedule reports whether schedule parses as a cron schedule. An
// empty schedule is valid and disables scheduled refreshes.
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return nil
}
