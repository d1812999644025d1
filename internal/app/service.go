// Package service runs leadership assessments over stored clan data and
// exposes them to the HTTP API and the CLI.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/clanboard/internal/adapters/mq/queue"
	"github.com/okian/clanboard/internal/adapters/mq/worker"
	"github.com/okian/clanboard/internal/adapters/repository"
	"github.com/okian/clanboard/internal/domain/dedupe"
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/domain/scoring"
	"github.com/okian/clanboard/internal/domain/signals"
	"github.com/okian/clanboard/pkg/logger"
	"github.com/okian/clanboard/pkg/metrics"
)

// Service orchestrates assessment runs and the async job pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	guard   dedupe.Guard
	war     signals.WarIntelligence
	capital signals.CapitalAnalytics
	jobs    *jobRegistry

	queue *queue.InMemoryQueue
	pool  *worker.Pool

	// Configuration
	workerCount        int
	queueSize          int
	dedupeSize         int
	weights            model.Weights
	gates              scoring.TenureGates
	timelineDays       int
	freshWindow        time.Duration
	timeout            time.Duration
	warDaysBack        int
	warMinWars         int
	capitalWeeksBack   int
	capitalMinWeekends int
	autoClans          []string
	autoInterval       time.Duration

	now   func() time.Time
	newID func() string

	// State
	started bool
	cancel  context.CancelFunc
	stopCh  chan struct{}
	schedWG sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service over store with default configuration.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:              store,
		workerCount:        runtime.NumCPU(),
		queueSize:          256,
		dedupeSize:         1024,
		weights:            scoring.DefaultWeights,
		gates:              scoring.DefaultTenureGates,
		timelineDays:       7,
		freshWindow:        18 * time.Hour,
		timeout:            30 * time.Second,
		warDaysBack:        90,
		warMinWars:         3,
		capitalWeeksBack:   8,
		capitalMinWeekends: 2,
		now:                func() time.Time { return time.Now().UTC() },
		newID:              uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.war == nil {
		s.war = signals.NewWarCalculator(store, signals.WithClock(s.now))
	}
	if s.capital == nil {
		s.capital = signals.NewCapitalCalculator(store, signals.WithClock(s.now))
	}
	s.guard = dedupe.NewInMemoryGuard(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = newJobRegistry((s.queueSize + s.workerCount) * 4)
	return s
}

// Start launches the job workers and, when configured, the auto scheduler.
// Synchronous assessments work without Start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting assessment service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.stopCh = make(chan struct{})

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.HandlerFunc(s.handleJob), worker.WithLogger(s.logger))
	s.pool.Start(runCtx)

	if len(s.autoClans) > 0 && s.autoInterval > 0 {
		s.schedWG.Add(1)
		go s.schedule(runCtx, s.stopCh)
	}

	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("autoClans", len(s.autoClans)),
	)
	return nil
}

// Stop drains the job pipeline and stops the scheduler. The store is owned
// by the caller and stays open.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping assessment service...")

	close(s.stopCh)
	s.schedWG.Wait()

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "assessment service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"inFlight":    s.guard.Size(),
		"jobs":        s.jobs.counts(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["processed"] = s.pool.Processed()
		metrics.UpdateQueueSize(queueLen)
	}

	if st, err := s.store.Stats(ctx); err == nil {
		stats["snapshots"] = st.Snapshots
		stats["runs"] = st.Runs
	} else {
		s.logger.Warn(ctx, "store stats unavailable", logger.Error(err))
	}

	return stats
}

// Weights returns the default pillar weights.
func (s *Service) Weights() model.Weights { return s.weights }
