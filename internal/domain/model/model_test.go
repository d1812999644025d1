package model_test

import (
	"testing"

	model "github.com/okian/clanboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseRole(t *testing.T) {
	convey.Convey("Given role spellings from snapshots", t, func() {
		cases := map[string]model.Role{
			"leader":    model.RoleLeader,
			"coLeader":  model.RoleCoLeader,
			"co-leader": model.RoleCoLeader,
			"COLEADER":  model.RoleCoLeader,
			"admin":     model.RoleElder,
			"elder":     model.RoleElder,
			"member":    model.RoleMember,
			"":          model.RoleMember,
			"recruit":   model.RoleMember,
		}

		convey.Convey("Then each maps to the canonical role", func() {
			for in, want := range cases {
				convey.So(model.ParseRole(in), convey.ShouldEqual, want)
			}
		})

		convey.Convey("Then only leader and co-leader are leadership", func() {
			convey.So(model.RoleLeader.IsLeadership(), convey.ShouldBeTrue)
			convey.So(model.RoleCoLeader.IsLeadership(), convey.ShouldBeTrue)
			convey.So(model.RoleElder.IsLeadership(), convey.ShouldBeFalse)
			convey.So(model.RoleMember.IsLeadership(), convey.ShouldBeFalse)
		})
	})
}

func TestLeagueSignal(t *testing.T) {
	convey.Convey("Given roster members", t, func() {
		convey.Convey("When nothing league related is set", func() {
			convey.So(model.RosterMemberStat{Tag: "#P"}.HasLeagueSignal(), convey.ShouldBeFalse)
		})

		convey.Convey("When any single signal is present", func() {
			convey.So(model.RosterMemberStat{RankedLeagueID: 1}.HasLeagueSignal(), convey.ShouldBeTrue)
			convey.So(model.RosterMemberStat{RankedLeagueName: "Gold League I"}.HasLeagueSignal(), convey.ShouldBeTrue)
			convey.So(model.RosterMemberStat{RankedTrophies: 10}.HasLeagueSignal(), convey.ShouldBeTrue)
			convey.So(model.RosterMemberStat{Trophies: 10}.HasLeagueSignal(), convey.ShouldBeTrue)
		})

		convey.Convey("When only a blank league name is set", func() {
			convey.So(model.InRankedLeague(0, "  "), convey.ShouldBeFalse)
			convey.So(model.InRankedLeague(0, "Gold League I"), convey.ShouldBeTrue)
		})
	})
}

func TestBandCounts(t *testing.T) {
	convey.Convey("Given empty band counts", t, func() {
		var c model.BandCounts

		convey.Convey("When every band is added once and core twice", func() {
			for _, b := range model.Bands {
				c.Add(b)
			}
			c.Add(model.BandCore)

			convey.Convey("Then Get reflects the adds", func() {
				convey.So(c.Get(model.BandCore), convey.ShouldEqual, 2)
				convey.So(c.Get(model.BandSuccessor), convey.ShouldEqual, 1)
				convey.So(c.Get(model.BandLiability), convey.ShouldEqual, 1)
				convey.So(c.Get(model.Band("unknown")), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("Then band predicates partition promotion and risk", func() {
			convey.So(model.BandSuccessor.Promotable(), convey.ShouldBeTrue)
			convey.So(model.BandLieutenant.Promotable(), convey.ShouldBeTrue)
			convey.So(model.BandCore.Promotable(), convey.ShouldBeFalse)
			convey.So(model.BandCore.AtRisk(), convey.ShouldBeFalse)
			convey.So(model.BandWatch.AtRisk(), convey.ShouldBeTrue)
			convey.So(model.BandLiability.AtRisk(), convey.ShouldBeTrue)
		})
	})
}

func TestMemberFlags(t *testing.T) {
	convey.Convey("Given a member with two flags", t, func() {
		m := model.AssessmentMember{Flags: []model.Flag{model.FlagLeechRisk, model.FlagTenureGate}}

		convey.Convey("Then HasFlag finds them and nothing else", func() {
			convey.So(m.HasFlag(model.FlagLeechRisk), convey.ShouldBeTrue)
			convey.So(m.HasFlag(model.FlagTenureGate), convey.ShouldBeTrue)
			convey.So(m.HasFlag(model.FlagInactiveRisk), convey.ShouldBeFalse)
		})

		convey.Convey("Then run types validate", func() {
			convey.So(model.RunAuto.Valid(), convey.ShouldBeTrue)
			convey.So(model.RunOnDemand.Valid(), convey.ShouldBeTrue)
			convey.So(model.RunType("nightly").Valid(), convey.ShouldBeFalse)
		})
	})
}
