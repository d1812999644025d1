package signals_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/domain/signals"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	wars  []model.WarAttackRecord
	raids []model.CapitalRaidRecord
	err   error
	clan  string
	since time.Time
}

func (f *fakeSource) WarAttacks(_ context.Context, clan string, since time.Time) ([]model.WarAttackRecord, error) {
	f.clan, f.since = clan, since
	return f.wars, f.err
}

func (f *fakeSource) CapitalRaids(_ context.Context, clan string, since time.Time) ([]model.CapitalRaidRecord, error) {
	f.clan, f.since = clan, since
	return f.raids, f.err
}

func war(id, player string, used, avail, stars int) model.WarAttackRecord {
	return model.WarAttackRecord{ClanTag: "#CLAN", WarID: id, PlayerTag: player, AttacksUsed: used, AttacksAvailable: avail, Stars: stars}
}

func raid(week int, player string, used, limit, loot int) model.CapitalRaidRecord {
	return model.CapitalRaidRecord{
		ClanTag: "#CLAN", WeekendStart: now.AddDate(0, 0, -7*week), PlayerTag: player,
		AttacksUsed: used, AttackLimit: limit, CapitalLooted: loot,
	}
}

func TestWarCalculator(t *testing.T) {
	Convey("Given war records for three players", t, func() {
		src := &fakeSource{wars: []model.WarAttackRecord{
			war("w1", "#aaa", 2, 2, 6), war("w2", "#AAA", 2, 2, 6), war("w3", "#AAA", 2, 2, 6),
			war("w1", "#BBB", 1, 2, 1), war("w2", "#BBB", 1, 2, 1), war("w3", "#BBB", 1, 2, 1),
			war("w3", "#CCC", 2, 2, 6),
		}}
		calc := signals.NewWarCalculator(src, signals.WithClock(func() time.Time { return now }))

		Convey("When the report is calculated with a minimum of three wars", func() {
			report, err := calc.Calculate(context.Background(), signals.WarQuery{ClanTag: "#clan", DaysBack: 90, MinWars: 3})
			So(err, ShouldBeNil)
			byTag := report.ByTag()

			Convey("Then the source is queried with the normalized clan and window", func() {
				So(src.clan, ShouldEqual, "#CLAN")
				So(src.since, ShouldEqual, now.AddDate(0, 0, -90))
			})

			Convey("Then players below the minimum are omitted", func() {
				So(len(report.Metrics), ShouldEqual, 2)
				_, ok := byTag["#CCC"]
				So(ok, ShouldBeFalse)
			})

			Convey("Then a perfect attacker scores 100", func() {
				a := byTag["#AAA"]
				So(a.ParticipationRate, ShouldEqual, 1.0)
				So(a.ConsistencyScore, ShouldEqual, 100.0)
				So(a.OverallScore, ShouldEqual, 100.0)
				So(a.TotalStars, ShouldEqual, 18)
			})

			Convey("Then a half-participating one-star attacker scores lower", func() {
				b := byTag["#BBB"]
				So(b.ParticipationRate, ShouldEqual, 0.5)
				So(b.OverallScore, ShouldEqual, 53.3)
			})
		})

		Convey("When the source fails, the error is returned", func() {
			src.err = errors.New("boom")
			_, err := calc.Calculate(context.Background(), signals.WarQuery{ClanTag: "#CLAN"})
			So(errors.Is(err, src.err), ShouldBeTrue)
		})
	})
}

func TestCapitalCalculator(t *testing.T) {
	Convey("Given raid records for three players", t, func() {
		src := &fakeSource{raids: []model.CapitalRaidRecord{
			raid(1, "#AAA", 6, 6, 10000), raid(2, "#AAA", 6, 6, 10000),
			raid(1, "#BBB", 1, 3, 5000), raid(2, "#BBB", 2, 3, 5000),
			raid(1, "#CCC", 6, 6, 90000),
		}}
		calc := signals.NewCapitalCalculator(src, signals.WithClock(func() time.Time { return now }))

		Convey("When the report is calculated with a minimum of two weekends", func() {
			report, err := calc.Calculate(context.Background(), signals.CapitalQuery{ClanTag: "#CLAN", WeeksBack: 8, MinWeekends: 2})
			So(err, ShouldBeNil)
			byTag := report.ByTag()

			Convey("Then the window covers the requested weeks", func() {
				So(src.since, ShouldEqual, now.AddDate(0, 0, -56))
			})

			Convey("Then loot is relative to the best eligible average", func() {
				So(len(report.Metrics), ShouldEqual, 2)
				So(byTag["#AAA"].OverallScore, ShouldEqual, 100.0)
				So(byTag["#BBB"].OverallScore, ShouldEqual, 50.0)
				So(byTag["#BBB"].Weekends, ShouldEqual, 2)
			})
		})
	})
}
