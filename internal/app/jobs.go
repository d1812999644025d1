package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/clanboard/internal/adapters/mq/queue"
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/domain/types"
	"github.com/okian/clanboard/pkg/logger"
)

// jobRegistry keeps the status of recent jobs. Past the limit the oldest
// finished job is forgotten; queued and running jobs are never dropped.
type jobRegistry struct {
	mu    sync.Mutex
	byID  map[string]*types.JobStatus
	order []string
	limit int
}

func newJobRegistry(limit int) *jobRegistry {
	if limit < 1 {
		limit = 1
	}
	return &jobRegistry{byID: make(map[string]*types.JobStatus), limit: limit}
}

func (r *jobRegistry) add(st types.JobStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) >= r.limit {
		r.evict()
	}
	r.byID[st.ID] = &st
	r.order = append(r.order, st.ID)
}

// evict drops the oldest finished job, if any.
func (r *jobRegistry) evict() {
	for i, id := range r.order {
		if r.byID[id].State.Done() {
			delete(r.byID, id)
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

func (r *jobRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	for i, x := range r.order {
		if x == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *jobRegistry) update(id string, fn func(*types.JobStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.byID[id]; ok {
		fn(st)
	}
}

func (r *jobRegistry) get(id string) (types.JobStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.byID[id]
	if !ok {
		return types.JobStatus{}, false
	}
	return *st, true
}

func (r *jobRegistry) counts() map[types.JobState]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[types.JobState]int, 4)
	for _, st := range r.byID {
		out[st.State]++
	}
	return out
}

// Enqueue validates req and queues it for the worker pool. It returns the
// job id to poll with JobStatus.
func (s *Service) Enqueue(ctx context.Context, req model.AssessmentRequest) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", ErrNotStarted
	}
	return s.enqueue(ctx, req)
}

// enqueue requires a started service; the caller guarantees it.
func (s *Service) enqueue(ctx context.Context, req model.AssessmentRequest) (string, error) {
	p, err := s.validate(req)
	if err != nil {
		return "", err
	}
	req.ClanTag, req.RunType = p.clanTag, p.runType

	now := s.now()
	job := queue.Job{ID: s.newID(), Request: req, EnqueuedAt: now}
	s.jobs.add(types.JobStatus{
		ID: job.ID, ClanTag: p.clanTag, RunType: p.runType,
		State: types.JobQueued, CreatedAt: now, UpdatedAt: now,
	})
	if !s.queue.Enqueue(ctx, job) {
		s.jobs.remove(job.ID)
		return "", fmt.Errorf("%w: %s", ErrBackpressure, p.clanTag)
	}

	s.logger.Debug(ctx, "assessment job queued",
		logger.String("jobId", job.ID),
		logger.String("clanTag", p.clanTag),
		logger.String("runType", string(p.runType)),
	)
	return job.ID, nil
}

// JobStatus returns the state of a job created by Enqueue.
func (s *Service) JobStatus(_ context.Context, id string) (types.JobStatus, error) {
	st, ok := s.jobs.get(id)
	if !ok {
		return types.JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return st, nil
}

// handleJob runs one queued assessment and records the outcome.
func (s *Service) handleJob(ctx context.Context, job queue.Job) error {
	s.jobs.update(job.ID, func(st *types.JobStatus) {
		st.State, st.UpdatedAt = types.JobRunning, s.now()
	})

	resp, err := s.RunAssessment(ctx, job.Request)

	s.jobs.update(job.ID, func(st *types.JobStatus) {
		st.UpdatedAt = s.now()
		if err != nil {
			st.State, st.Error = types.JobFailed, err.Error()
			return
		}
		st.State, st.RunID = types.JobComplete, resp.Assessment.ID
	})
	if errors.Is(err, ErrRunInProgress) {
		// another request is already producing this clan's run
		return nil
	}
	return err
}
