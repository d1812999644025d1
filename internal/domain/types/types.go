// Package types contains response shapes shared by the service and its transports.
package types

import (
	"time"

	"github.com/okian/clanboard/internal/domain/model"
)

// AssessmentResponse is a persisted run with its members ordered by CLV.
type AssessmentResponse struct {
	Assessment model.AssessmentRun      `json:"assessment"`
	Results    []model.AssessmentMember `json:"results"`
	// Cached is set when an auto run reused a fresh stored result.
	Cached bool `json:"cached,omitempty"`
}

// JobState is the lifecycle of an async assessment job.
type JobState string

// Job states.
const (
	JobQueued   JobState = "queued"
	JobRunning  JobState = "running"
	JobComplete JobState = "complete"
	JobFailed   JobState = "failed"
)

// Done reports whether the job reached a terminal state.
func (s JobState) Done() bool { return s == JobComplete || s == JobFailed }

// JobStatus reports the progress of an async assessment job.
type JobStatus struct {
	ID        string        `json:"id"`
	ClanTag   string        `json:"clanTag"`
	RunType   model.RunType `json:"runType"`
	State     JobState      `json:"state"`
	RunID     string        `json:"runId,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
