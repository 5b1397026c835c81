package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// SessionPruner is the part of the session service the scheduler needs.
type SessionPruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// Scheduler runs periodic housekeeping on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	pruner  SessionPruner
	timeout time.Duration
}

// NewScheduler creates a scheduler that prunes expired sessions on spec,
// a standard cron expression or descriptor such as "@hourly".
func NewScheduler(spec string, pruner SessionPruner) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		pruner:  pruner,
		timeout: 30 * time.Second,
	}
	if _, err := s.cron.AddFunc(spec, s.pruneSessions); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the cron loop in the background.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting background scheduler...")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler.")
}

func (s *Scheduler) pruneSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.pruner.PruneExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to prune expired sessions")
		return
	}
	if n > 0 {
		log.Info().Int64("pruned", n).Msg("Scheduler: pruned expired sessions")
	}
}
