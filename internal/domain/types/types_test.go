package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/clanboard/internal/domain/model"
	types "github.com/okian/clanboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJobState(t *testing.T) {
	Convey("Given job states", t, func() {
		Convey("Then only complete and failed are terminal", func() {
			So(types.JobQueued.Done(), ShouldBeFalse)
			So(types.JobRunning.Done(), ShouldBeFalse)
			So(types.JobComplete.Done(), ShouldBeTrue)
			So(types.JobFailed.Done(), ShouldBeTrue)
		})
	})
}

func TestAssessmentResponseJSON(t *testing.T) {
	Convey("Given a response with one member", t, func() {
		resp := types.AssessmentResponse{
			Assessment: model.AssessmentRun{ID: "run-1", ClanTag: "#2PR8R8V8P", RunType: model.RunManual},
			Results:    []model.AssessmentMember{{RunID: "run-1", PlayerTag: "#P1", Band: model.BandCore}},
		}

		Convey("When encoded", func() {
			raw, err := json.Marshal(resp)
			So(err, ShouldBeNil)

			var out map[string]any
			So(json.Unmarshal(raw, &out), ShouldBeNil)

			Convey("Then the wire shape uses assessment and results keys", func() {
				So(out, ShouldContainKey, "assessment")
				So(out, ShouldContainKey, "results")
				So(out, ShouldNotContainKey, "cached")
				assessment := out["assessment"].(map[string]any)
				So(assessment["runType"], ShouldEqual, "manual")
			})
		})
	})
}
