package service

import (
	"fmt"
	"testing"

	"github.com/okian/clanboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJobRegistryEviction(t *testing.T) {
	Convey("Given a registry limited to two jobs", t, func() {
		r := newJobRegistry(2)

		Convey("When it fills with live jobs, none of them is forgotten", func() {
			for i := range 4 {
				r.add(types.JobStatus{ID: fmt.Sprintf("job-%d", i), State: types.JobQueued})
			}
			r.update("job-1", func(st *types.JobStatus) { st.State = types.JobRunning })

			for i := range 4 {
				_, ok := r.get(fmt.Sprintf("job-%d", i))
				So(ok, ShouldBeTrue)
			}
		})

		Convey("When a finished job exists, it is dropped before live ones", func() {
			r.add(types.JobStatus{ID: "running", State: types.JobRunning})
			r.add(types.JobStatus{ID: "done", State: types.JobComplete})
			r.add(types.JobStatus{ID: "next", State: types.JobQueued})

			_, ok := r.get("done")
			So(ok, ShouldBeFalse)
			_, ok = r.get("running")
			So(ok, ShouldBeTrue)
			_, ok = r.get("next")
			So(ok, ShouldBeTrue)
			So(r.counts()[types.JobRunning], ShouldEqual, 1)
		})
	})
}
