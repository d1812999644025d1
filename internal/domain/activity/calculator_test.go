package activity_test

import (
	"testing"
	"time"

	"github.com/okian/clanboard/internal/domain/activity"
	"github.com/okian/clanboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func day(offset int, d model.Deltas) model.ActivityTimelineEvent {
	return model.ActivityTimelineEvent{Date: now.AddDate(0, 0, offset), Deltas: d}
}

func TestCalculateRealTime(t *testing.T) {
	Convey("Given a calculator with a fixed clock", t, func() {
		calc := activity.NewCalculator(activity.WithClock(func() time.Time { return now }))

		Convey("When a player has no state and no events", func() {
			ev := calc.Calculate(activity.Snapshot{}, nil)

			Convey("Then they are inactive with weak confidence", func() {
				So(ev.Score, ShouldEqual, 0)
				So(ev.Level, ShouldEqual, model.ActivityInactive)
				So(ev.Confidence, ShouldEqual, model.ConfidenceWeak)
				So(ev.Indicators, ShouldBeEmpty)
				So(ev.LastActiveAt, ShouldEqual, now)
			})
		})

		Convey("When a player is in a ranked league and donates heavily", func() {
			ev := calc.Calculate(activity.Snapshot{RankedLeagueID: 105000010, Trophies: 3000, Donations: 500}, nil)

			Convey("Then ranked, donation and trophy tier bonuses apply", func() {
				So(ev.Score, ShouldEqual, 20+15+1)
				So(ev.Level, ShouldEqual, model.ActivityModerate)
				So(ev.Confidence, ShouldEqual, model.ConfidenceHigh)
				So(len(ev.Indicators), ShouldEqual, 3)
			})
		})

		Convey("When a roster row names a league but carries no league id", func() {
			m := model.RosterMemberStat{Tag: "#P", RankedLeagueName: "Crystal League II", Trophies: 2500}
			ev := calc.Calculate(activity.SnapshotOf(m), nil)

			Convey("Then the ranked bonus agrees with the league signal", func() {
				So(m.HasLeagueSignal(), ShouldBeTrue)
				So(ev.Score, ShouldEqual, 20)
				So(ev.Indicators, ShouldHaveLength, 1)
			})
		})

		Convey("When donation counts fall on tier boundaries", func() {
			So(calc.Calculate(activity.Snapshot{Donations: 300}, nil).Score, ShouldEqual, 12)
			So(calc.Calculate(activity.Snapshot{Donations: 299}, nil).Score, ShouldEqual, 10)
			So(calc.Calculate(activity.Snapshot{Donations: 1}, nil).Score, ShouldEqual, 2)
		})

		Convey("When a leader has trophies but no ranked league", func() {
			ev := calc.Calculate(activity.Snapshot{Role: model.RoleLeader, Trophies: 5000}, nil)
			So(ev.Score, ShouldEqual, 12)
			So(ev.Level, ShouldEqual, model.ActivityInactive)
		})

		Convey("When heroes are maxed for the town hall", func() {
			ev := calc.Calculate(activity.Snapshot{
				TownHallLevel: 9,
				Heroes:        model.Heroes{BarbarianKing: 30, ArcherQueen: 30, MinionPrince: 10},
			}, nil)
			So(ev.Score, ShouldEqual, 6)
		})

		Convey("When heroes are unlocked below the capped town halls", func() {
			ev := calc.Calculate(activity.Snapshot{TownHallLevel: 5, Heroes: model.Heroes{BarbarianKing: 3}}, nil)
			So(ev.Score, ShouldEqual, 1)
		})
	})
}

func TestCalculateTimeline(t *testing.T) {
	Convey("Given a calculator with a fixed clock and a 7 day window", t, func() {
		calc := activity.NewCalculator(
			activity.WithClock(func() time.Time { return now }),
			activity.WithWindowDays(7),
		)

		Convey("When events fall both inside and outside the window", func() {
			events := []model.ActivityTimelineEvent{
				day(-10, model.Deltas{PetUpgrades: 1}),
				day(-2, model.Deltas{WarStars: 3}),
				day(-1, model.Deltas{HeroUpgrades: 1}),
			}
			ev := calc.Calculate(activity.Snapshot{}, events)

			Convey("Then only in-window categories score", func() {
				So(ev.Score, ShouldEqual, 15+6)
				So(ev.Level, ShouldEqual, model.ActivityLow)
				So(ev.Confidence, ShouldEqual, model.ConfidenceHigh)
			})

			Convey("Then last activity is the most recent event", func() {
				So(ev.LastActiveAt, ShouldEqual, now.AddDate(0, 0, -1))
			})
		})

		Convey("When only old events exist, they still set last activity", func() {
			ev := calc.Calculate(activity.Snapshot{}, []model.ActivityTimelineEvent{day(-30, model.Deltas{Donations: 100})})
			So(ev.Score, ShouldEqual, 0)
			So(ev.LastActiveAt, ShouldEqual, now.AddDate(0, 0, -30))
		})

		Convey("When trophies drop sharply", func() {
			ev := calc.Calculate(activity.Snapshot{}, []model.ActivityTimelineEvent{
				day(-1, model.Deltas{Trophies: -80, RankedTrophies: -40}),
			})

			Convey("Then the swing counts but the loss does not", func() {
				So(ev.Score, ShouldEqual, 4)
			})
		})

		Convey("When negative deltas are mixed with positive ones", func() {
			ev := calc.Calculate(activity.Snapshot{}, []model.ActivityTimelineEvent{
				day(-2, model.Deltas{Donations: 40}),
				day(-1, model.Deltas{Donations: -40}),
			})
			Convey("Then negatives do not cancel the positive aggregate", func() {
				So(ev.Score, ShouldEqual, 0)
				ev2 := calc.Calculate(activity.Snapshot{}, []model.ActivityTimelineEvent{
					day(-2, model.Deltas{Donations: 40}),
					day(-1, model.Deltas{Donations: 10}),
					day(-1, model.Deltas{Donations: -100}),
				})
				So(ev2.Score, ShouldEqual, 4)
			})
		})

		Convey("When capital contributions grow", func() {
			small := calc.Calculate(activity.Snapshot{}, []model.ActivityTimelineEvent{day(-1, model.Deltas{CapitalContributions: 5000})})
			huge := calc.Calculate(activity.Snapshot{}, []model.ActivityTimelineEvent{day(-1, model.Deltas{CapitalContributions: 500000})})
			So(small.Score, ShouldEqual, 8)
			So(huge.Score, ShouldEqual, 12)
		})

		Convey("When every category fires", func() {
			events := []model.ActivityTimelineEvent{day(-1, model.Deltas{
				WarStars: 2, DefenseWins: 1, CapitalContributions: 1, BuilderBattleWins: 1,
				HeroUpgrades: 1, PetUpgrades: 1, EquipmentUpgrades: 1, SpellUpgrades: 1,
				AchievementProgress: 1, ExpLevels: 1, SuperTroopsActivated: 1,
				Trophies: 100, Donations: 60,
			})}
			snap := activity.Snapshot{Role: model.RoleCoLeader, RankedLeagueID: 105000020, RankedTrophies: 5100, Donations: 600}
			ev := calc.Calculate(snap, events)

			Convey("Then the player is very active with definitive confidence", func() {
				So(ev.Level, ShouldEqual, model.ActivityVeryActive)
				So(ev.Confidence, ShouldEqual, model.ConfidenceDefinitive)
			})

			Convey("Then repeating the call yields an identical result", func() {
				So(calc.Calculate(snap, events), ShouldResemble, ev)
			})
		})
	})
}
