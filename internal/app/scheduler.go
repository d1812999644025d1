package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/pkg/logger"
)

// schedule enqueues an auto run for every configured clan right away and then
// once per interval until stop is closed.
func (s *Service) schedule(ctx context.Context, stop <-chan struct{}) {
	defer s.schedWG.Done()

	log := s.logger.Named("scheduler")
	log.Info(ctx, "auto scheduler started",
		logger.Int("clans", len(s.autoClans)),
		logger.Duration("interval", s.autoInterval),
	)

	ticker := time.NewTicker(s.autoInterval)
	defer ticker.Stop()

	s.enqueueAuto(ctx, log)
	for {
		select {
		case <-stop:
			log.Info(ctx, "auto scheduler stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueAuto(ctx, log)
		}
	}
}

func (s *Service) enqueueAuto(ctx context.Context, log logger.Logger) {
	for _, clan := range s.autoClans {
		id, err := s.enqueue(ctx, model.AssessmentRequest{ClanTag: clan, RunType: model.RunAuto})
		switch {
		case errors.Is(err, ErrBackpressure):
			log.Warn(ctx, "queue full, skipping auto run", logger.String("clanTag", clan))
		case err != nil:
			log.Error(ctx, "auto run not queued", logger.String("clanTag", clan), logger.Error(err))
		default:
			log.Debug(ctx, "auto run queued", logger.String("clanTag", clan), logger.String("jobId", id))
		}
	}
}
