package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/clanboard/internal/domain/clantag"
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/pkg/metrics"
)

type timelineKey struct {
	player string
	day    int64
}

type warKey struct {
	clan, war, player string
}

type raidKey struct {
	clan    string
	weekend int64
	player  string
}

// MemoryStore keeps everything in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]model.RosterSnapshot // clan -> snapshots in insert order
	timeline  map[string]map[timelineKey]model.TimelineRow
	wars      map[warKey]model.WarAttackRecord
	raids     map[raidKey]model.CapitalRaidRecord
	runs      map[string]model.AssessmentRun
	runOrder  []string
	members   map[string][]model.AssessmentMember
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: map[string][]model.RosterSnapshot{},
		timeline:  map[string]map[timelineKey]model.TimelineRow{},
		wars:      map[warKey]model.WarAttackRecord{},
		raids:     map[raidKey]model.CapitalRaidRecord{},
		runs:      map[string]model.AssessmentRun{},
		members:   map[string][]model.AssessmentMember{},
	}
}

func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStoreError(op)
	}
}

// SaveSnapshot stores snap; a snapshot with the same id is replaced.
func (s *MemoryStore) SaveSnapshot(_ context.Context, snap model.RosterSnapshot) error {
	defer observe("save_snapshot", time.Now(), nil)
	clan := clantag.Normalize(snap.ClanTag)
	snap.ClanTag = clan
	snap.Members = append([]model.RosterMemberStat(nil), snap.Members...)

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.snapshots[clan]
	for i := range list {
		if list[i].ID == snap.ID {
			list[i] = snap
			return nil
		}
	}
	s.snapshots[clan] = append(list, snap)
	return nil
}

func (s *MemoryStore) ResolveRoster(_ context.Context, clanTag, snapshotID string) (model.RosterSnapshot, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found model.RosterSnapshot
		ok    bool
	)
	for _, snap := range s.snapshots[clantag.Normalize(clanTag)] {
		if snapshotID != "" {
			if snap.ID == snapshotID {
				found, ok = snap, true
				break
			}
			continue
		}
		if !ok || !snap.FetchedAt.Before(found.FetchedAt) {
			found, ok = snap, true
		}
	}
	if !ok {
		observe("resolve_roster", start, ErrNoSnapshot)
		return model.RosterSnapshot{}, ErrNoSnapshot
	}
	observe("resolve_roster", start, nil)
	found.Members = append([]model.RosterMemberStat(nil), found.Members...)
	return found, nil
}

// AppendTimeline upserts rows keyed by player and day.
func (s *MemoryStore) AppendTimeline(_ context.Context, rows []model.TimelineRow) error {
	defer observe("append_timeline", time.Now(), nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		r.ClanTag = clantag.Normalize(r.ClanTag)
		r.PlayerTag = clantag.Normalize(r.PlayerTag)
		byKey, ok := s.timeline[r.ClanTag]
		if !ok {
			byKey = map[timelineKey]model.TimelineRow{}
			s.timeline[r.ClanTag] = byKey
		}
		byKey[timelineKey{player: r.PlayerTag, day: r.Date.UnixMilli()}] = r
	}
	return nil
}

func (s *MemoryStore) QueryTimeline(_ context.Context, clanTag string, since time.Time) ([]model.TimelineRow, error) {
	defer observe("query_timeline", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.TimelineRow{}
	for _, r := range s.timeline[clantag.Normalize(clanTag)] {
		if !r.Date.Before(since) {
			out = append(out, r)
		}
	}
	sortTimeline(out)
	return out, nil
}

func sortTimeline(rows []model.TimelineRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PlayerTag != rows[j].PlayerTag {
			return rows[i].PlayerTag < rows[j].PlayerTag
		}
		return rows[i].Date.Before(rows[j].Date)
	})
}

func (s *MemoryStore) SaveWarAttacks(_ context.Context, records []model.WarAttackRecord) error {
	defer observe("save_war_attacks", time.Now(), nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.ClanTag = clantag.Normalize(r.ClanTag)
		r.PlayerTag = clantag.Normalize(r.PlayerTag)
		s.wars[warKey{r.ClanTag, r.WarID, r.PlayerTag}] = r
	}
	return nil
}

func (s *MemoryStore) WarAttacks(_ context.Context, clanTag string, since time.Time) ([]model.WarAttackRecord, error) {
	defer observe("war_attacks", time.Now(), nil)
	clan := clantag.Normalize(clanTag)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.WarAttackRecord{}
	for k, r := range s.wars {
		if k.clan == clan && !r.EndedAt.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndedAt.Equal(out[j].EndedAt) {
			return out[i].EndedAt.Before(out[j].EndedAt)
		}
		return out[i].PlayerTag < out[j].PlayerTag
	})
	return out, nil
}

func (s *MemoryStore) SaveCapitalRaids(_ context.Context, records []model.CapitalRaidRecord) error {
	defer observe("save_capital_raids", time.Now(), nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.ClanTag = clantag.Normalize(r.ClanTag)
		r.PlayerTag = clantag.Normalize(r.PlayerTag)
		s.raids[raidKey{r.ClanTag, r.WeekendStart.UnixMilli(), r.PlayerTag}] = r
	}
	return nil
}

func (s *MemoryStore) CapitalRaids(_ context.Context, clanTag string, since time.Time) ([]model.CapitalRaidRecord, error) {
	defer observe("capital_raids", time.Now(), nil)
	clan := clantag.Normalize(clanTag)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.CapitalRaidRecord{}
	for k, r := range s.raids {
		if k.clan == clan && !r.WeekendStart.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WeekendStart.Equal(out[j].WeekendStart) {
			return out[i].WeekendStart.Before(out[j].WeekendStart)
		}
		return out[i].PlayerTag < out[j].PlayerTag
	})
	return out, nil
}

func (s *MemoryStore) InsertRun(_ context.Context, run model.AssessmentRun) error {
	defer observe("insert_run", time.Now(), nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		s.runOrder = append(s.runOrder, run.ID)
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) InsertMembers(_ context.Context, runID string, members []model.AssessmentMember) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[runID]; !ok {
		observe("insert_members", start, ErrNotFound)
		return ErrNotFound
	}
	s.members[runID] = append([]model.AssessmentMember(nil), members...)
	observe("insert_members", start, nil)
	return nil
}

// latest returns the newest complete run matching keep. Caller holds the lock.
func (s *MemoryStore) latest(keep func(model.AssessmentRun) bool) (model.AssessmentRun, bool) {
	var (
		best model.AssessmentRun
		ok   bool
	)
	for _, id := range s.runOrder {
		run := s.runs[id]
		if len(s.members[id]) == 0 || !keep(run) {
			continue
		}
		if !ok || !run.CreatedAt.Before(best.CreatedAt) {
			best, ok = run, true
		}
	}
	return best, ok
}

func (s *MemoryStore) QueryLatest(_ context.Context, clanTag string) (model.AssessmentRun, []model.AssessmentMember, error) {
	start := time.Now()
	clan := clantag.Normalize(clanTag)
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.latest(func(r model.AssessmentRun) bool { return r.ClanTag == clan })
	if !ok {
		observe("query_latest", start, nil)
		return model.AssessmentRun{}, nil, ErrNotFound
	}
	observe("query_latest", start, nil)
	return run, append([]model.AssessmentMember(nil), s.members[run.ID]...), nil
}

func (s *MemoryStore) LatestCompletedRun(_ context.Context, clanTag string, runType model.RunType) (model.AssessmentRun, error) {
	defer observe("latest_completed_run", time.Now(), nil)
	clan := clantag.Normalize(clanTag)
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.latest(func(r model.AssessmentRun) bool { return r.ClanTag == clan && r.RunType == runType })
	if !ok {
		return model.AssessmentRun{}, ErrNotFound
	}
	return run, nil
}

func (s *MemoryStore) QueryRun(_ context.Context, runID string) (model.AssessmentRun, []model.AssessmentMember, error) {
	defer observe("query_run", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return model.AssessmentRun{}, nil, ErrNotFound
	}
	members := s.members[runID]
	if len(members) == 0 {
		return run, nil, ErrIncompleteRun
	}
	return run, append([]model.AssessmentMember(nil), members...), nil
}

// Stats reports how many snapshots and runs are held.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, list := range s.snapshots {
		n += len(list)
	}
	return Stats{Snapshots: n, Runs: len(s.runs)}, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
