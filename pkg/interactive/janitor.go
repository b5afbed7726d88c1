package interactive

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor periodically sweeps terminal sessions out of the registry.
// Retention is opt-in: without a janitor the registry keeps finished
// sessions until they are explicitly disposed.
type Janitor struct {
	manager *Manager
	maxAge  time.Duration
	cron    *cron.Cron
	logger  zerolog.Logger
}

// NewJanitor schedules a sweep of sessions terminal for longer than
// maxAge. schedule is a cron expression ("@every 10m", "0 * * * *").
func NewJanitor(m *Manager, maxAge time.Duration, schedule string, logger zerolog.Logger) (*Janitor, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive, got %s", maxAge)
	}

	j := &Janitor{
		manager: m,
		maxAge:  maxAge,
		cron:    cron.New(),
		logger:  logger.With().Str("component", "janitor").Logger(),
	}

	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) sweep() {
	removed := j.manager.Sweep(j.maxAge)
	if removed > 0 {
		j.logger.Info().Int("removed", removed).Dur("max_age", j.maxAge).Msg("Retention sweep")
	}
}

// Start begins the sweep schedule.
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info().Dur("max_age", j.maxAge).Msg("Retention janitor started")
}

// Stop halts the schedule; an in-flight sweep finishes first.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info().Msg("Retention janitor stopped")
}
