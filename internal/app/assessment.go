package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/clanboard/internal/adapters/repository"
	"github.com/okian/clanboard/internal/domain/activity"
	"github.com/okian/clanboard/internal/domain/clantag"
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/domain/scoring"
	"github.com/okian/clanboard/internal/domain/signals"
	"github.com/okian/clanboard/internal/domain/types"
	"github.com/okian/clanboard/pkg/logger"
	"github.com/okian/clanboard/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// lastActiveLookbackDays bounds how far back the timeline is read so that
// last activity can be reported beyond the scoring window.
const lastActiveLookbackDays = 30

// plan is a validated assessment request.
type plan struct {
	clanTag string
	runType model.RunType
	weights model.Weights
	force   bool
}

func (s *Service) validate(req model.AssessmentRequest) (plan, error) {
	tag, err := clantag.Parse(req.ClanTag)
	if err != nil {
		return plan{}, fmt.Errorf("%w: %q", ErrInvalidClanTag, req.ClanTag)
	}

	p := plan{clanTag: tag, runType: req.RunType, weights: s.weights, force: req.Force}
	if p.runType == "" {
		p.runType = model.RunManual
	}
	if !p.runType.Valid() {
		return plan{}, fmt.Errorf("%w: %q", ErrInvalidRunType, req.RunType)
	}
	if req.Weights != nil {
		if err := scoring.ValidateWeights(*req.Weights); err != nil {
			return plan{}, fmt.Errorf("%w: %v", ErrInvalidWeights, err)
		}
		p.weights = scoring.NormalizeWeights(*req.Weights)
	}
	return p, nil
}

// RunAssessment scores every member of the clan's latest roster snapshot and
// persists the run. Unforced auto runs reuse any stored run younger than the
// fresh window.
func (s *Service) RunAssessment(ctx context.Context, req model.AssessmentRequest) (types.AssessmentResponse, error) {
	p, err := s.validate(req)
	if err != nil {
		return types.AssessmentResponse{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.logger.With(logger.String("clanTag", p.clanTag), logger.String("runType", string(p.runType)))
	log.Info(ctx, "assessment started", logger.Bool("force", p.force))

	if p.runType == model.RunAuto && !p.force {
		if resp, ok := s.fresh(ctx, p.clanTag); ok {
			metrics.RecordCacheHit()
			log.Info(ctx, "reusing fresh assessment", logger.String("runId", resp.Assessment.ID))
			return resp, nil
		}
	}

	if !s.guard.Acquire(ctx, p.clanTag) {
		metrics.RecordAssessmentRun(string(p.runType), "rejected")
		return types.AssessmentResponse{}, fmt.Errorf("%w: %s", ErrRunInProgress, p.clanTag)
	}
	defer s.guard.Release(ctx, p.clanTag)

	metrics.IncRunsInProgress()
	defer metrics.DecRunsInProgress()

	start := time.Now()
	resp, err := s.assess(ctx, log, p)
	if err != nil {
		metrics.RecordAssessmentRun(string(p.runType), "failed")
		log.Error(ctx, "assessment failed", logger.Error(err))
		return types.AssessmentResponse{}, err
	}

	elapsed := time.Since(start)
	metrics.RecordAssessmentRun(string(p.runType), "complete")
	metrics.RecordAssessmentDuration(float64(elapsed.Microseconds()) / 1000)
	metrics.RecordMembersScored(len(resp.Results))
	for _, b := range model.Bands {
		metrics.UpdateBandMembers(string(b), resp.Assessment.Summary.Bands.Get(b))
	}
	log.Info(ctx, "assessment complete",
		logger.String("runId", resp.Assessment.ID),
		logger.Int("members", len(resp.Results)),
		logger.Float64("averageClv", resp.Assessment.Summary.AverageCLV),
		logger.Duration("elapsed", elapsed),
	)
	return resp, nil
}

// fresh returns the newest complete run of the clan when it was created
// inside the fresh window.
func (s *Service) fresh(ctx context.Context, clanTag string) (types.AssessmentResponse, bool) {
	if s.freshWindow <= 0 {
		return types.AssessmentResponse{}, false
	}
	run, members, err := s.store.QueryLatest(ctx, clanTag)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn(ctx, "fresh run lookup failed", logger.Error(err))
		}
		return types.AssessmentResponse{}, false
	}
	if s.now().Sub(run.CreatedAt) >= s.freshWindow {
		return types.AssessmentResponse{}, false
	}
	return types.AssessmentResponse{Assessment: run, Results: members, Cached: true}, true
}

func (s *Service) assess(ctx context.Context, log logger.Logger, p plan) (types.AssessmentResponse, error) {
	now := s.now()
	runID := s.newID()

	log.Debug(ctx, "fetching roster", logger.String("runId", runID))
	snap, err := s.store.ResolveRoster(ctx, p.clanTag, "")
	if err != nil {
		return types.AssessmentResponse{}, fmt.Errorf("resolve roster: %w", err)
	}
	members := uniqueMembers(snap.Members)
	if len(members) == 0 {
		return types.AssessmentResponse{}, fmt.Errorf("%w: %s", ErrEmptyRoster, p.clanTag)
	}

	var (
		warReport     signals.WarReport
		capitalReport signals.CapitalReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.war.Calculate(gctx, signals.WarQuery{ClanTag: p.clanTag, DaysBack: s.warDaysBack, MinWars: s.warMinWars})
		if err != nil {
			return fmt.Errorf("war intelligence: %w", err)
		}
		warReport = r
		return nil
	})
	g.Go(func() error {
		r, err := s.capital.Calculate(gctx, signals.CapitalQuery{ClanTag: p.clanTag, WeeksBack: s.capitalWeeksBack, MinWeekends: s.capitalMinWeekends})
		if err != nil {
			return fmt.Errorf("capital analytics: %w", err)
		}
		capitalReport = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return types.AssessmentResponse{}, err
	}

	log.Debug(ctx, "computing", logger.String("runId", runID), logger.Int("members", len(members)))
	windowStart := now.AddDate(0, 0, -s.timelineDays)
	timelines := s.timelines(ctx, log, p.clanTag, now)

	wars := warReport.ByTag()
	capitals := capitalReport.ByTag()
	stats := scoring.NewPopulationStats(members)
	scorer := scoring.NewScorer(scoring.WithWeights(p.weights), scoring.WithTenureGates(s.gates))
	calc := activity.NewCalculator(
		activity.WithWindowDays(s.timelineDays),
		activity.WithClock(func() time.Time { return now }),
	)

	results := make([]model.AssessmentMember, len(members))
	sg, sctx := errgroup.WithContext(ctx)
	sg.SetLimit(s.workerCount)
	for i, m := range members {
		sg.Go(func() error {
			if err := sctx.Err(); err != nil {
				return err
			}
			events := timelines[m.Tag]
			in := scoring.ScoreInput{
				Member:         m,
				Activity:       calc.Calculate(activity.SnapshotOf(m), events),
				TimelineEvents: countSince(events, windowStart),
				Stats:          stats,
			}
			if wm, ok := wars[m.Tag]; ok {
				stars := wm.TotalStars
				in.War = &scoring.WarSignal{
					Overall:           scoring.Float(wm.OverallScore),
					ParticipationRate: scoring.Float(wm.ParticipationRate),
					Consistency:       scoring.Float(wm.ConsistencyScore),
					TotalStars:        &stars,
				}
			}
			if cm, ok := capitals[m.Tag]; ok {
				in.CapitalOverall = scoring.Float(cm.OverallScore)
			}
			results[i] = scorer.Score(in).Member(runID, m)
			return nil
		})
	}
	if err := sg.Wait(); err != nil {
		return types.AssessmentResponse{}, fmt.Errorf("score members: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CLVScore != results[j].CLVScore {
			return results[i].CLVScore > results[j].CLVScore
		}
		return results[i].PlayerTag < results[j].PlayerTag
	})

	run := model.AssessmentRun{
		ID:          runID,
		ClanTag:     p.clanTag,
		SnapshotID:  snap.ID,
		PeriodStart: windowStart,
		PeriodEnd:   now,
		RunType:     p.runType,
		Weights:     scorer.Weights(),
		Summary:     summarize(results),
		Coverage:    cover(results),
		CreatedAt:   now,
	}

	log.Debug(ctx, "persisting", logger.String("runId", runID))
	if err := s.store.InsertRun(ctx, run); err != nil {
		return types.AssessmentResponse{}, fmt.Errorf("insert run: %w", err)
	}
	if err := s.store.InsertMembers(ctx, runID, results); err != nil {
		return types.AssessmentResponse{}, fmt.Errorf("insert members: %w", err)
	}

	return types.AssessmentResponse{Assessment: run, Results: results}, nil
}

// timelines groups timeline rows per player. A failed read degrades to no
// timeline evidence instead of failing the run.
func (s *Service) timelines(ctx context.Context, log logger.Logger, clanTag string, now time.Time) map[string][]model.ActivityTimelineEvent {
	days := max(s.timelineDays, lastActiveLookbackDays)
	rows, err := s.store.QueryTimeline(ctx, clanTag, now.AddDate(0, 0, -days))
	if err != nil {
		metrics.RecordTimelineDegraded()
		log.Warn(ctx, "timeline unavailable, scoring without it", logger.Error(err))
		return map[string][]model.ActivityTimelineEvent{}
	}
	out := make(map[string][]model.ActivityTimelineEvent)
	for _, r := range rows {
		tag := clantag.Normalize(r.PlayerTag)
		out[tag] = append(out[tag], model.ActivityTimelineEvent{Date: r.Date, Deltas: r.Deltas})
	}
	return out
}

// uniqueMembers normalizes tags and drops untagged or repeated members,
// keeping the first occurrence.
func uniqueMembers(in []model.RosterMemberStat) []model.RosterMemberStat {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.RosterMemberStat, 0, len(in))
	for _, m := range in {
		m.Tag = clantag.Normalize(m.Tag)
		if m.Tag == "" {
			continue
		}
		if _, dup := seen[m.Tag]; dup {
			continue
		}
		seen[m.Tag] = struct{}{}
		out = append(out, m)
	}
	return out
}

func countSince(events []model.ActivityTimelineEvent, since time.Time) int {
	n := 0
	for _, e := range events {
		if !e.Date.Before(since) {
			n++
		}
	}
	return n
}

func summarize(results []model.AssessmentMember) model.Summary {
	sum := model.Summary{MemberCount: len(results)}
	total := 0.0
	for _, r := range results {
		sum.Bands.Add(r.Band)
		total += r.CLVScore
		if r.Band.Promotable() && !r.Role.IsLeadership() {
			sum.PromotionCandidates++
		}
		if r.Band.AtRisk() {
			sum.DemotionRisks++
		}
	}
	if len(results) > 0 {
		sum.AverageCLV = scoring.Round1(total / float64(len(results)))
	}
	return sum
}

// cover counts signal presence from the scored results so the coverage
// always agrees with the raw fields it summarizes.
func cover(results []model.AssessmentMember) model.Coverage {
	var c model.Coverage
	for _, r := range results {
		raw := r.Metrics.Raw
		if raw.WarOverall != nil {
			c.WarMetrics++
		}
		if raw.CapitalOverall != nil {
			c.CapitalMetrics++
		}
		if raw.TimelineEvents > 0 {
			c.ActivitySignals++
		}
		if raw.Donations > 0 || raw.DonationsReceived > 0 {
			c.DonationSignals++
		}
	}
	return c
}
