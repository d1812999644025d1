package service

import (
	"time"

	"github.com/okian/clanboard/internal/config"
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/domain/scoring"
	"github.com/okian/clanboard/internal/domain/signals"
	"github.com/okian/clanboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of job workers and the scoring fan-out of a run.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the async job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize caps how many clans may be assessed at once.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWeights sets the default pillar weights used when a request has none.
func WithWeights(w model.Weights) Option {
	return func(s *Service) {
		if scoring.ValidateWeights(w) == nil {
			s.weights = scoring.NormalizeWeights(w)
		}
	}
}

// WithTenureGates sets the promotion tenure gates.
func WithTenureGates(g scoring.TenureGates) Option {
	return func(s *Service) {
		if g.Successor >= 0 && g.Lieutenant >= 0 {
			s.gates = g
		}
	}
}

// WithTimelineDays sets the activity lookback window.
func WithTimelineDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.timelineDays = days
		}
	}
}

// WithFreshWindow sets how long a stored auto run is reused.
func WithFreshWindow(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.freshWindow = d
		}
	}
}

// WithAssessmentTimeout bounds a single assessment; zero disables the bound.
func WithAssessmentTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithWarQuery sets the war lookback and the minimum wars per player.
func WithWarQuery(daysBack, minWars int) Option {
	return func(s *Service) {
		if daysBack > 0 {
			s.warDaysBack = daysBack
		}
		if minWars > 0 {
			s.warMinWars = minWars
		}
	}
}

// WithCapitalQuery sets the raid lookback and the minimum weekends per player.
func WithCapitalQuery(weeksBack, minWeekends int) Option {
	return func(s *Service) {
		if weeksBack > 0 {
			s.capitalWeeksBack = weeksBack
		}
		if minWeekends > 0 {
			s.capitalMinWeekends = minWeekends
		}
	}
}

// WithWarIntelligence replaces the store-backed war adapter.
func WithWarIntelligence(w signals.WarIntelligence) Option {
	return func(s *Service) {
		if w != nil {
			s.war = w
		}
	}
}

// WithCapitalAnalytics replaces the store-backed capital adapter.
func WithCapitalAnalytics(c signals.CapitalAnalytics) Option {
	return func(s *Service) {
		if c != nil {
			s.capital = c
		}
	}
}

// WithAutoClans schedules auto runs for clans every interval.
func WithAutoClans(clans []string, interval time.Duration) Option {
	return func(s *Service) {
		s.autoClans = append([]string(nil), clans...)
		s.autoInterval = interval
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides run and job id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// FromConfig maps process configuration onto service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithWeights(model.Weights{War: cfg.WeightWar, Social: cfg.WeightSocial, Reliability: cfg.WeightReliability}),
		WithTenureGates(scoring.TenureGates{Successor: cfg.SuccessorTenureDays, Lieutenant: cfg.LieutenantTenureDays}),
		WithTimelineDays(cfg.TimelineDays),
		WithFreshWindow(cfg.AutoFreshWindow()),
		WithAssessmentTimeout(cfg.AssessmentTimeout()),
		WithWarQuery(cfg.WarDaysBack, cfg.WarMinWars),
		WithCapitalQuery(cfg.CapitalWeeksBack, cfg.CapitalMinWeekends),
		WithAutoClans(cfg.AutoClans, cfg.AutoInterval()),
	}
}
