package progress

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestState(t *testing.T) {
	Convey("ceiling is node count plus lifecycle stages", t, func() {
		st := NewState([]string{"4", "6", "8"})
		So(st.Ceiling(), ShouldEqual, 5)
		So(st.Value(), ShouldEqual, 0)
	})

	Convey("the counter is monotone and clamps to the ceiling", t, func() {
		st := NewState([]string{"4", "6", "8"})
		st.MarkSubmitted()
		So(st.Value(), ShouldEqual, 1)
		st.MarkCached([]string{"4"})
		So(st.Value(), ShouldEqual, 2)
		So(st.Completed("4"), ShouldBeTrue)
		st.StartNode("6")
		So(st.Value(), ShouldEqual, 3)
		So(st.Current(), ShouldEqual, "6")
		st.StartNode("8")
		So(st.Value(), ShouldEqual, 4)
		So(st.Completed("6"), ShouldBeTrue)
		st.Finish()
		So(st.Value(), ShouldEqual, st.Ceiling())
		So(st.Completed("8"), ShouldBeTrue)
		So(st.Current(), ShouldBeEmpty)
	})

	Convey("extra node starts never push the counter past the ceiling", t, func() {
		st := NewState([]string{"4"})
		st.MarkSubmitted()
		st.StartNode("4")
		st.StartNode("4")
		st.StartNode("4")
		So(st.Value(), ShouldEqual, st.Ceiling())
		st.Finish()
		So(st.Value(), ShouldEqual, st.Ceiling())
	})
}
