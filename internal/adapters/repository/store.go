// Package repository defines the persistence contracts of the assessment
// engine and ships a memory and a SQL implementation.
package repository

import (
	"context"
	"time"

	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/domain/signals"
)

// RosterReader resolves roster snapshots.
type RosterReader interface {
	// ResolveRoster returns the snapshot with snapshotID, or the latest
	// snapshot of the clan when snapshotID is empty. Returns ErrNoSnapshot
	// when nothing matches.
	ResolveRoster(ctx context.Context, clanTag, snapshotID string) (model.RosterSnapshot, error)
}

// TimelineReader returns per-player daily delta rows.
type TimelineReader interface {
	// QueryTimeline returns rows for the clan dated at or after since,
	// ordered by player then date.
	QueryTimeline(ctx context.Context, clanTag string, since time.Time) ([]model.TimelineRow, error)
}

// AssessmentStore persists assessment runs and their member results.
type AssessmentStore interface {
	InsertRun(ctx context.Context, run model.AssessmentRun) error
	InsertMembers(ctx context.Context, runID string, members []model.AssessmentMember) error
	// QueryLatest returns the newest run of the clan that has member rows.
	// Runs whose member insert never happened are skipped.
	QueryLatest(ctx context.Context, clanTag string) (model.AssessmentRun, []model.AssessmentMember, error)
	// LatestCompletedRun returns the newest complete run of the given type.
	LatestCompletedRun(ctx context.Context, clanTag string, runType model.RunType) (model.AssessmentRun, error)
	// QueryRun returns one run by id. ErrIncompleteRun when it has no members.
	QueryRun(ctx context.Context, runID string) (model.AssessmentRun, []model.AssessmentMember, error)
}

// Writer ingests the raw data assessments are computed from.
type Writer interface {
	SaveSnapshot(ctx context.Context, snap model.RosterSnapshot) error
	AppendTimeline(ctx context.Context, rows []model.TimelineRow) error
	SaveWarAttacks(ctx context.Context, records []model.WarAttackRecord) error
	SaveCapitalRaids(ctx context.Context, records []model.CapitalRaidRecord) error
}

// Store is the full persistence surface used by the service.
type Store interface {
	RosterReader
	TimelineReader
	AssessmentStore
	Writer
	signals.WarSource
	signals.CapitalSource
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats describe store contents for diagnostics.
type Stats struct {
	Snapshots int `json:"snapshots"`
	Runs      int `json:"runs"`
}
