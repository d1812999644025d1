package service_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/clanboard/internal/adapters/repository"
	service "github.com/okian/clanboard/internal/app"
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/domain/scoring"
	"github.com/okian/clanboard/internal/domain/signals"
	"github.com/okian/clanboard/internal/domain/types"
	"github.com/okian/clanboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const clan = "#2PR8R8V8P"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type clock struct{ t atomic.Int64 }

func newClock(t time.Time) *clock {
	c := &clock{}
	c.t.Store(t.UnixNano())
	return c
}

func (c *clock) now() time.Time          { return time.Unix(0, c.t.Load()).UTC() }
func (c *clock) advance(d time.Duration) { c.t.Add(int64(d)) }

func ids() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

func pct(v float64) *float64 { return &v }

var start = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func roster() model.RosterSnapshot {
	return model.RosterSnapshot{
		ID: "snap-1", ClanTag: clan, ClanName: "Night Owls", FetchedAt: start.Add(-time.Hour),
		Members: []model.RosterMemberStat{
			{Tag: "#PA", Name: "Alpha", Role: model.RoleMember, TownHallLevel: 15, Donations: 500, DonationsReceived: 100,
				RankedLeagueID: 1, Trophies: 3000, RushPercent: pct(10), TenureDays: 200},
			{Tag: "#PB", Name: "Bravo", Role: model.RoleMember, Donations: 0, DonationsReceived: 500,
				RushPercent: pct(80), TenureDays: 10},
			{Tag: "#PC", Name: "Charlie", Role: model.RoleMember, Donations: 200, DonationsReceived: 180,
				RankedLeagueID: 2, Trophies: 4500, RushPercent: pct(30), TenureDays: 95},
		},
	}
}

func seeded(ctx context.Context) *repository.MemoryStore {
	s := repository.NewMemoryStore()
	So(s.SaveSnapshot(ctx, roster()), ShouldBeNil)
	So(s.AppendTimeline(ctx, []model.TimelineRow{
		{ClanTag: clan, PlayerTag: "#PA", Date: start.AddDate(0, 0, -1), Deltas: model.Deltas{Donations: 50}},
	}), ShouldBeNil)
	return s
}

func byTag(results []model.AssessmentMember) map[string]model.AssessmentMember {
	out := map[string]model.AssessmentMember{}
	for _, r := range results {
		out[r.PlayerTag] = r
	}
	return out
}

// faultyStore injects failures into selected store calls.
type faultyStore struct {
	repository.Store
	timelineErr error
	membersErr  error
}

func (f *faultyStore) QueryTimeline(ctx context.Context, clanTag string, since time.Time) ([]model.TimelineRow, error) {
	if f.timelineErr != nil {
		return nil, f.timelineErr
	}
	return f.Store.QueryTimeline(ctx, clanTag, since)
}

func (f *faultyStore) InsertMembers(ctx context.Context, runID string, members []model.AssessmentMember) error {
	if f.membersErr != nil {
		return f.membersErr
	}
	return f.Store.InsertMembers(ctx, runID, members)
}

type failingWar struct{ err error }

func (f failingWar) Calculate(context.Context, signals.WarQuery) (signals.WarReport, error) {
	return signals.WarReport{}, f.err
}

// blockingWar holds the run until release is closed.
type blockingWar struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingWar) Calculate(ctx context.Context, _ signals.WarQuery) (signals.WarReport, error) {
	close(b.entered)
	select {
	case <-b.release:
	case <-ctx.Done():
		return signals.WarReport{}, ctx.Err()
	}
	return signals.WarReport{}, nil
}

type staticWar struct{ report signals.WarReport }

func (w staticWar) Calculate(context.Context, signals.WarQuery) (signals.WarReport, error) {
	return w.report, nil
}

type staticCapital struct{ report signals.CapitalReport }

func (c staticCapital) Calculate(context.Context, signals.CapitalQuery) (signals.CapitalReport, error) {
	return c.report, nil
}

// recorder keeps the message of every log record.
type recorder struct {
	mu   *sync.Mutex
	msgs *[]string
}

func newRecorder() recorder { return recorder{mu: &sync.Mutex{}, msgs: &[]string{}} }

func (r recorder) add(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.msgs = append(*r.msgs, msg)
}

func (r recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), *r.msgs...)
}

func (r recorder) Info(_ context.Context, msg string, _ ...logger.Field)  { r.add(msg) }
func (r recorder) Error(_ context.Context, msg string, _ ...logger.Field) { r.add(msg) }
func (r recorder) Debug(_ context.Context, msg string, _ ...logger.Field) { r.add(msg) }
func (r recorder) Warn(_ context.Context, msg string, _ ...logger.Field)  { r.add(msg) }
func (r recorder) Fatal(_ context.Context, msg string, _ ...logger.Field) { r.add(msg) }
func (r recorder) Named(string) logger.Logger                             { return r }
func (r recorder) With(...logger.Field) logger.Logger                     { return r }

func nonNull(results []model.AssessmentMember) (war, capital int) {
	for _, r := range results {
		if r.Metrics.Raw.WarOverall != nil {
			war++
		}
		if r.Metrics.Raw.CapitalOverall != nil {
			capital++
		}
	}
	return war, capital
}

func TestRunAssessment(t *testing.T) {
	Convey("Given a stored three player roster", t, func() {
		ctx := context.Background()
		store := seeded(ctx)
		clk := newClock(start)
		svc := service.New(store, service.WithClock(clk.now), service.WithIDGenerator(ids()), service.WithWorkerCount(2))

		Convey("When a manual assessment runs with default weights", func() {
			resp, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: "2pr8r8v8p"})
			So(err, ShouldBeNil)
			got := byTag(resp.Results)

			Convey("Then the run header describes the roster", func() {
				run := resp.Assessment
				So(run.ClanTag, ShouldEqual, clan)
				So(run.SnapshotID, ShouldEqual, "snap-1")
				So(run.RunType, ShouldEqual, model.RunManual)
				So(run.PeriodEnd, ShouldEqual, start)
				So(run.PeriodStart, ShouldEqual, start.AddDate(0, 0, -7))
				So(run.Weights, ShouldResemble, model.Weights{War: 0.35, Social: 0.25, Reliability: 0.40})
				So(run.Summary.MemberCount, ShouldEqual, 3)
				So(resp.Cached, ShouldBeFalse)
			})

			Convey("Then results are ordered by CLV", func() {
				So(len(resp.Results), ShouldEqual, 3)
				for i := 1; i < len(resp.Results); i++ {
					So(resp.Results[i-1].CLVScore, ShouldBeGreaterThanOrEqualTo, resp.Results[i].CLVScore)
				}
			})

			Convey("Then the generous ranked player has a saturated ratio and no social flags", func() {
				a := got["#PA"]
				So(a.Metrics.Scores.DonationRatioScore, ShouldEqual, 100.0)
				So(a.Metrics.Scores.Social, ShouldBeGreaterThanOrEqualTo, 70.0)
				So(a.HasFlag(model.FlagLeechRisk), ShouldBeFalse)
				So(a.HasFlag(model.FlagNoRankedLeague), ShouldBeFalse)
			})

			Convey("Then the receiving rushed newcomer carries every risk flag", func() {
				b := got["#PB"]
				So(b.HasFlag(model.FlagLeechRisk), ShouldBeTrue)
				So(b.HasFlag(model.FlagNoRankedLeague), ShouldBeTrue)
				So(b.HasFlag(model.FlagRushedBaseRisk), ShouldBeTrue)
				So(b.HasFlag(model.FlagInactiveRisk), ShouldBeTrue)
			})

			Convey("Then the tenure gate depends on the band reached", func() {
				c := got["#PC"]
				So(c.HasFlag(model.FlagTenureGate), ShouldEqual, c.Band == model.BandSuccessor)
			})

			Convey("Then coverage counts present signals", func() {
				cov := resp.Assessment.Coverage
				So(cov.WarMetrics, ShouldEqual, 0)
				So(cov.CapitalMetrics, ShouldEqual, 0)
				So(cov.ActivitySignals, ShouldEqual, 1)
				So(cov.DonationSignals, ShouldEqual, 3)
				for _, r := range resp.Results {
					So(r.Metrics.Raw.WarOverall, ShouldBeNil)
				}
			})

			Convey("Then the summary agrees with the results", func() {
				sum := resp.Assessment.Summary
				total, risks := 0, 0
				for _, b := range model.Bands {
					total += sum.Bands.Get(b)
				}
				for _, r := range resp.Results {
					if r.Band.AtRisk() {
						risks++
					}
				}
				So(total, ShouldEqual, 3)
				So(sum.DemotionRisks, ShouldEqual, risks)
			})

			Convey("Then the run is the latest stored assessment", func() {
				latest, err := svc.LatestAssessment(ctx, clan, "")
				So(err, ShouldBeNil)
				So(latest.Assessment.ID, ShouldEqual, resp.Assessment.ID)
				So(len(latest.Results), ShouldEqual, 3)

				_, err = svc.LatestAssessment(ctx, clan, model.RunAuto)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When an auto run repeats inside the fresh window", func() {
			first, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan, RunType: model.RunAuto})
			So(err, ShouldBeNil)
			clk.advance(time.Hour)
			second, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan, RunType: model.RunAuto})
			So(err, ShouldBeNil)

			Convey("Then the stored run is reused", func() {
				So(second.Cached, ShouldBeTrue)
				So(second.Assessment.ID, ShouldEqual, first.Assessment.ID)
			})

			Convey("Then force recomputes", func() {
				forced, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan, RunType: model.RunAuto, Force: true})
				So(err, ShouldBeNil)
				So(forced.Cached, ShouldBeFalse)
				So(forced.Assessment.ID, ShouldNotEqual, first.Assessment.ID)
			})

			Convey("Then a run past the window recomputes", func() {
				clk.advance(18 * time.Hour)
				later, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan, RunType: model.RunAuto})
				So(err, ShouldBeNil)
				So(later.Cached, ShouldBeFalse)
			})
		})

		Convey("When custom weights are given", func() {
			resp, err := svc.RunAssessment(ctx, model.AssessmentRequest{
				ClanTag: clan, Weights: &model.Weights{War: 0, Social: 1, Reliability: 1},
			})
			So(err, ShouldBeNil)
			So(resp.Assessment.Weights, ShouldResemble, model.Weights{War: 0, Social: 0.5, Reliability: 0.5})
		})

		Convey("When the request is invalid", func() {
			_, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: "not a tag!"})
			So(errors.Is(err, service.ErrInvalidClanTag), ShouldBeTrue)

			_, err = svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan, RunType: "weekly"})
			So(errors.Is(err, service.ErrInvalidRunType), ShouldBeTrue)

			_, err = svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan, Weights: &model.Weights{War: -1}})
			So(errors.Is(err, service.ErrInvalidWeights), ShouldBeTrue)
		})

		Convey("When the clan has no snapshot", func() {
			_, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: "#PYLQ"})
			So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
		})

		Convey("When the latest snapshot has no members", func() {
			So(store.SaveSnapshot(ctx, model.RosterSnapshot{ID: "snap-2", ClanTag: clan, FetchedAt: start}), ShouldBeNil)
			_, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan})
			So(errors.Is(err, service.ErrEmptyRoster), ShouldBeTrue)
		})
	})
}

func TestRunAssessmentWithExternalSignals(t *testing.T) {
	Convey("Given a roster with war and capital reports keyed by loosely written tags", t, func() {
		ctx := context.Background()
		store := seeded(ctx)
		war := staticWar{report: signals.WarReport{Metrics: []signals.WarMetric{
			{PlayerTag: "pa", OverallScore: 10, ParticipationRate: 0.95, ConsistencyScore: 80, TotalStars: 30, Wars: 6},
			{PlayerTag: "#pc", OverallScore: 40, ParticipationRate: 0.3, ConsistencyScore: 50, TotalStars: 6, Wars: 5},
			{PlayerTag: "#ZZZ", OverallScore: 70, ParticipationRate: 1, ConsistencyScore: 70, TotalStars: 12, Wars: 4},
		}}}
		capital := staticCapital{report: signals.CapitalReport{Metrics: []signals.CapitalMetric{
			{PlayerTag: "PA", OverallScore: 95, Weekends: 4},
			{PlayerTag: "#Pc", OverallScore: 20, Weekends: 3},
		}}}
		svc := service.New(store,
			service.WithClock(newClock(start).now),
			service.WithIDGenerator(ids()),
			service.WithWarIntelligence(war),
			service.WithCapitalAnalytics(capital),
		)

		resp, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan})
		So(err, ShouldBeNil)
		got := byTag(resp.Results)

		Convey("Then report tags resolve to roster members", func() {
			So(*got["#PA"].Metrics.Raw.WarOverall, ShouldEqual, 10.0)
			So(*got["#PC"].Metrics.Raw.WarOverall, ShouldEqual, 40.0)
			So(*got["#PA"].Metrics.Raw.CapitalOverall, ShouldEqual, 95.0)
			So(*got["#PC"].Metrics.Raw.CapitalOverall, ShouldEqual, 20.0)
			So(got["#PB"].Metrics.Raw.WarOverall, ShouldBeNil)
			So(got["#PB"].Metrics.Raw.CapitalOverall, ShouldBeNil)
		})

		Convey("Then coverage matches the non-null raw fields", func() {
			warN, capN := nonNull(resp.Results)
			cov := resp.Assessment.Coverage
			So(cov.WarMetrics, ShouldEqual, 2)
			So(cov.CapitalMetrics, ShouldEqual, 2)
			So(cov.WarMetrics, ShouldEqual, warN)
			So(cov.CapitalMetrics, ShouldEqual, capN)
		})

		Convey("Then the war pillar enters the CLV", func() {
			a := got["#PA"]
			sc := a.Metrics.Scores
			So(*sc.War, ShouldEqual, 10.0)
			withWar := scoring.Round1(scoring.WeightedAverage([]scoring.Weighted{
				{Score: sc.War, Weight: 0.35},
				{Score: scoring.Float(sc.Social), Weight: 0.25},
				{Score: scoring.Float(sc.Reliability), Weight: 0.40},
			}))
			withoutWar := scoring.Round1(scoring.WeightedAverage([]scoring.Weighted{
				{Score: scoring.Float(sc.Social), Weight: 0.25},
				{Score: scoring.Float(sc.Reliability), Weight: 0.40},
			}))
			So(a.CLVScore, ShouldEqual, withWar)
			So(a.CLVScore, ShouldNotEqual, withoutWar)
		})

		Convey("Then capital overall takes precedence over contributions in social", func() {
			c := got["#PC"]
			sc := c.Metrics.Scores
			want := scoring.WeightedAverage([]scoring.Weighted{
				{Score: scoring.Float(sc.DonationRatioScore), Weight: 0.4},
				{Score: sc.DonationVolumeScore, Weight: 0.3},
				{Score: scoring.Float(20), Weight: 0.3},
			})
			So(sc.Social, ShouldAlmostEqual, want, 1e-9)
		})

		Convey("Then low war participation is flagged only where reported", func() {
			So(got["#PC"].HasFlag(model.FlagWarParticipationLow), ShouldBeTrue)
			So(got["#PA"].HasFlag(model.FlagWarParticipationLow), ShouldBeFalse)
			So(got["#PB"].HasFlag(model.FlagWarParticipationLow), ShouldBeFalse)
		})
	})

	Convey("Given a war report with a non-finite overall score", t, func() {
		ctx := context.Background()
		war := staticWar{report: signals.WarReport{Metrics: []signals.WarMetric{
			{PlayerTag: "#pa", OverallScore: math.NaN(), ParticipationRate: 0.9, ConsistencyScore: 60},
			{PlayerTag: "pc", OverallScore: 70, ParticipationRate: 0.8, ConsistencyScore: 60},
		}}}
		svc := service.New(seeded(ctx), service.WithClock(newClock(start).now), service.WithWarIntelligence(war))

		resp, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan})
		So(err, ShouldBeNil)

		Convey("Then only members with a usable war score are counted", func() {
			warN, _ := nonNull(resp.Results)
			So(warN, ShouldEqual, 1)
			So(resp.Assessment.Coverage.WarMetrics, ShouldEqual, warN)
			So(byTag(resp.Results)["#PA"].Metrics.Raw.WarOverall, ShouldBeNil)
		})
	})
}

func TestRunAssessmentLogging(t *testing.T) {
	Convey("Given a service with a recording logger", t, func() {
		ctx := context.Background()
		rec := newRecorder()
		svc := service.New(seeded(ctx), service.WithClock(newClock(start).now), service.WithLogger(rec))

		Convey("When a run completes, its start and phases are logged in order", func() {
			_, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan, Force: true})
			So(err, ShouldBeNil)
			So(rec.messages(), ShouldResemble, []string{
				"assessment started",
				"fetching roster",
				"computing",
				"persisting",
				"assessment complete",
			})
		})
	})
}

func TestRunAssessmentFailures(t *testing.T) {
	Convey("Given a stored roster", t, func() {
		ctx := context.Background()
		store := &faultyStore{Store: seeded(ctx)}
		clk := newClock(start)

		Convey("When the timeline cannot be read", func() {
			store.timelineErr = errors.New("timeline down")
			svc := service.New(store, service.WithClock(clk.now), service.WithIDGenerator(ids()))
			resp, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan})

			Convey("Then the run completes without activity signals", func() {
				So(err, ShouldBeNil)
				So(len(resp.Results), ShouldEqual, 3)
				So(resp.Assessment.Coverage.ActivitySignals, ShouldEqual, 0)
			})
		})

		Convey("When the war adapter fails", func() {
			boom := errors.New("war api down")
			svc := service.New(store, service.WithClock(clk.now), service.WithWarIntelligence(failingWar{err: boom}))
			_, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan})

			Convey("Then the whole run fails and nothing is stored", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				_, err := svc.LatestAssessment(ctx, clan, "")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When member rows cannot be persisted", func() {
			store.membersErr = errors.New("disk full")
			svc := service.New(store, service.WithClock(clk.now), service.WithIDGenerator(func() string { return "run-1" }))
			_, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan})

			Convey("Then the run fails but its header remains incomplete", func() {
				So(errors.Is(err, store.membersErr), ShouldBeTrue)
				_, _, err := store.QueryRun(ctx, "run-1")
				So(errors.Is(err, repository.ErrIncompleteRun), ShouldBeTrue)
				_, err = svc.LatestAssessment(ctx, clan, "")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a run for the clan is already in flight", func() {
			war := &blockingWar{entered: make(chan struct{}), release: make(chan struct{})}
			svc := service.New(store, service.WithClock(clk.now), service.WithIDGenerator(ids()), service.WithWarIntelligence(war))

			done := make(chan error, 1)
			go func() {
				_, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan})
				done <- err
			}()
			<-war.entered

			_, err := svc.RunAssessment(ctx, model.AssessmentRequest{ClanTag: clan})
			close(war.release)

			Convey("Then the second request is rejected", func() {
				So(errors.Is(err, service.ErrRunInProgress), ShouldBeTrue)
				So(<-done, ShouldBeNil)
			})
		})
	})
}

func TestAsyncJobs(t *testing.T) {
	Convey("Given a service with a stored roster", t, func() {
		ctx := context.Background()
		svc := service.New(seeded(ctx), service.WithIDGenerator(ids()), service.WithWorkerCount(2), service.WithQueueSize(4))

		Convey("When a job is enqueued before Start", func() {
			_, err := svc.Enqueue(ctx, model.AssessmentRequest{ClanTag: clan})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When the service is started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()
			So(svc.GetStats(ctx)["started"], ShouldEqual, true)

			Convey("Then an invalid job is rejected up front", func() {
				_, err := svc.Enqueue(ctx, model.AssessmentRequest{ClanTag: "??"})
				So(errors.Is(err, service.ErrInvalidClanTag), ShouldBeTrue)
			})

			Convey("Then a queued job completes with a stored run", func() {
				id, err := svc.Enqueue(ctx, model.AssessmentRequest{ClanTag: clan, RunType: model.RunOnDemand})
				So(err, ShouldBeNil)

				var st types.JobStatus
				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) {
					st, err = svc.JobStatus(ctx, id)
					So(err, ShouldBeNil)
					if st.State.Done() {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(st.State, ShouldEqual, types.JobComplete)
				So(st.ClanTag, ShouldEqual, clan)

				latest, err := svc.LatestAssessment(ctx, clan, model.RunOnDemand)
				So(err, ShouldBeNil)
				So(latest.Assessment.ID, ShouldEqual, st.RunID)
			})

			Convey("Then unknown jobs are reported", func() {
				_, err := svc.JobStatus(ctx, "nope")
				So(errors.Is(err, service.ErrJobNotFound), ShouldBeTrue)
			})
		})

		Convey("When the service is stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()
			So(svc.GetStats(ctx)["started"], ShouldEqual, false)
		})
	})
}

func TestAutoScheduler(t *testing.T) {
	Convey("Given a service scheduling one clan", t, func() {
		ctx := context.Background()
		store := seeded(ctx)
		svc := service.New(store, service.WithAutoClans([]string{clan}, time.Hour))

		Convey("When it starts, an auto run is produced immediately", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			var err error
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				if _, err = svc.LatestAssessment(ctx, clan, model.RunAuto); err == nil {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			So(err, ShouldBeNil)
		})
	})
}
