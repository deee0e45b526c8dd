package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"school/api/internal/sessions"
)

type Scheduler struct {
	cron     *cron.Cron
	sessions *sessions.Store
	log      zerolog.Logger
}

func NewScheduler(sessionStore *sessions.Store, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		sessions: sessionStore,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.sessions == nil {
		return nil
	}

	// Redis expires session keys on its own; the per-account indexes
	// need sweeping.
	if _, err := s.cron.AddFunc("0 0 * * * *", s.pruneSessionIndexes); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits briefly for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduled job still running at shutdown")
	}
}

func (s *Scheduler) pruneSessionIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pruned, err := s.sessions.PruneIndexes(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session index prune failed")
		return
	}
	if pruned > 0 {
		s.log.Debug().Int("pruned", pruned).Msg("stale session index entries removed")
	}
}
