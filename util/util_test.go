package util

import (
	"math"
	"regexp"
	"testing"

	"github.com/livetv-cli/livetv/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "channel", "channels"), ShouldEqual, "1 channel")
		So(Quantify(4, "channel", "channels"), ShouldEqual, "4 channels")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("news"), ShouldEqual, "News")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestReGroups(t *testing.T) {
	Convey("ReGroups", t, func() {
		re := regexp.MustCompile(`watch\?v=(?P<id>[\w-]+)`)
		So(ReGroups(re, "https://www.youtube.com/watch?v=abc-123")["id"], ShouldEqual, "abc-123")
		So(ReGroups(re, "https://example.com"), ShouldBeEmpty)
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(1.5, 0.0, 1.0), ShouldEqual, 1.0)
		So(Clamp(-0.2, 0.0, 1.0), ShouldEqual, 0.0)
		So(Clamp(0.4, 0.0, 1.0), ShouldEqual, 0.4)
		So(Clamp(7, 0, 10), ShouldEqual, 7)
		So(Clamp(math.Inf(1), 0, 1), ShouldEqual, 1.0)
	})
}

func TestDelete(t *testing.T) {
	Convey("Given an in-memory directory tree", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		So(fs.MkdirAll("/tmp/livetv/sockets", 0o755), ShouldBeNil)
		So(fs.WriteFile("/tmp/livetv/sockets/a.sock", []byte{}, 0o644), ShouldBeNil)

		Convey("Delete removes it recursively", func() {
			So(Delete("/tmp/livetv"), ShouldBeNil)
			exists, _ := fs.Exists("/tmp/livetv")
			So(exists, ShouldBeFalse)
		})

		Convey("Delete reports missing paths", func() {
			So(Delete("/nope"), ShouldNotBeNil)
		})
	})
}

func TestStack(t *testing.T) {
	Convey("Stack", t, func() {
		var s Stack[int]
		s.Push(1)
		s.Push(2)
		So(s.Len(), ShouldEqual, 2)
		So(s.Peek(), ShouldEqual, 2)
		So(s.Pop(), ShouldEqual, 2)
		So(s.Pop(), ShouldEqual, 1)
		So(s.Pop(), ShouldEqual, 0)
	})
}
