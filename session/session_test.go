package session

import (
	"errors"
	"testing"

	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/hls"
	"github.com/livetv-cli/livetv/media/mediatest"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeEngine struct {
	cfg        hls.Config
	source     string
	media      hls.Media
	startLoads int
	recovers   int
	level      int
	destroyed  int
}

func (f *fakeEngine) LoadSource(uri string) { f.source = uri }
func (f *fakeEngine) AttachMedia(media hls.Media) { f.media = media }
func (f *fakeEngine) StartLoad() { f.startLoads++ }
func (f *fakeEngine) RecoverMediaError() { f.recovers++ }
func (f *fakeEngine) SetCurrentLevel(index int) { f.level = index }
func (f *fakeEngine) CurrentLevel() int { return f.level }
func (f *fakeEngine) Levels() []hls.Level { return nil }
func (f *fakeEngine) Destroy() { f.destroyed++ }

func newManager(engines *[]*fakeEngine) *Manager {
	return NewManager(Options{
		Factory: func(cfg hls.Config, emit func(hls.Event)) hls.Engine {
			engine := &fakeEngine{cfg: cfg, level: -1}
			*engines = append(*engines, engine)
			return engine
		},
		CapLevelToPlayerSize: true,
		MaxRecoveries:        2,
	})
}

var ladder = []hls.Level{
	{Index: 0, Height: 360, Bandwidth: 800},
	{Index: 1, Height: 1080, Bandwidth: 5000},
	{Index: 2, Height: 720, Bandwidth: 2500},
	{Index: 3, Height: 720, Bandwidth: 3000},
	{Index: 4, Height: 0, Bandwidth: 100},
}

func fatal(t hls.ErrorType) hls.Event {
	return hls.Event{Kind: hls.Error, Error: &hls.ErrorData{Fatal: true, Type: t, Details: "test"}}
}

func TestLabel(t *testing.T) {
	Convey("Label", t, func() {
		So(Label(2160), ShouldEqual, "4K")
		So(Label(1440), ShouldEqual, "2K")
		So(Label(1200), ShouldEqual, "1080p")
		So(Label(1080), ShouldEqual, "1080p")
		So(Label(720), ShouldEqual, "720p")
		So(Label(576), ShouldEqual, "480p")
		So(Label(360), ShouldEqual, "360p")
		So(Label(240), ShouldEqual, "240p")
	})
}

func TestLadder(t *testing.T) {
	Convey("Ladder is strictly descending and keeps the best variant per height", t, func() {
		levels := Ladder(ladder)
		So(levels, ShouldResemble, []QualityLevel{
			{Index: 1, Height: 1080, Label: "1080p"},
			{Index: 3, Height: 720, Label: "720p"},
			{Index: 0, Height: 360, Label: "360p"},
		})
		So(Ladder(nil), ShouldBeEmpty)
	})
}

func TestManager(t *testing.T) {
	Convey("Given a manager with adaptive support", t, func() {
		var engines []*fakeEngine
		manager := newManager(&engines)
		element := mediatest.New()

		Convey("A manifest URL opens an adaptive session", func() {
			s, err := manager.Open("https://cdn.test/live/index.m3u8", true, element, func(hls.Event) {})
			So(err, ShouldBeNil)
			So(s.Adaptive(), ShouldBeTrue)
			So(engines, ShouldHaveLength, 1)

			engine := engines[0]
			So(engine.cfg.CapLevelToPlayerSize, ShouldBeTrue)
			So(engine.cfg.AutoStartLoad, ShouldBeTrue)
			So(engine.source, ShouldEqual, "https://cdn.test/live/index.m3u8")
			So(engine.media, ShouldEqual, element)
			So(element.Sources(), ShouldBeEmpty)

			Convey("Manifest parsed publishes the ladder and autoplays", func() {
				out := manager.Handle(s, hls.Event{Kind: hls.ManifestParsed, Levels: ladder})
				So(out.Kind, ShouldEqual, Ready)
				So(out.Levels, ShouldHaveLength, 3)
				So(s.Levels()[0].Height, ShouldEqual, 1080)
				So(element.Plays(), ShouldEqual, 1)
			})

			Convey("Refused autoplay is not an error", func() {
				element.PlayRefused = true
				out := manager.Handle(s, hls.Event{Kind: hls.ManifestParsed, Levels: ladder})
				So(out.Kind, ShouldEqual, Ready)
			})

			Convey("Non-fatal errors are ignored", func() {
				out := manager.Handle(s, hls.Event{Kind: hls.Error, Error: &hls.ErrorData{Type: hls.NetworkError}})
				So(out.Kind, ShouldEqual, Ignored)
				So(engine.startLoads, ShouldEqual, 0)
			})

			Convey("Fatal network errors restart loading once per occurrence", func() {
				out := manager.Handle(s, fatal(hls.NetworkError))
				So(out.Kind, ShouldEqual, Recovering)
				So(engine.startLoads, ShouldEqual, 1)
				So(engine.recovers, ShouldEqual, 0)
			})

			Convey("Fatal media errors recover the media", func() {
				out := manager.Handle(s, fatal(hls.MediaError))
				So(out.Kind, ShouldEqual, Recovering)
				So(engine.recovers, ShouldEqual, 1)
				So(engine.startLoads, ShouldEqual, 0)
			})

			Convey("Fatal other errors destroy the session", func() {
				out := manager.Handle(s, fatal(hls.OtherError))
				So(out.Kind, ShouldEqual, Terminal)
				So(out.Message, ShouldEqual, constant.PlaybackErrorMessage)
				So(engine.destroyed, ShouldEqual, 1)
				So(s.Closed(), ShouldBeTrue)
			})

			Convey("Recoveries are capped per error type", func() {
				So(manager.Handle(s, fatal(hls.NetworkError)).Kind, ShouldEqual, Recovering)
				So(manager.Handle(s, fatal(hls.NetworkError)).Kind, ShouldEqual, Recovering)
				So(manager.Handle(s, fatal(hls.MediaError)).Kind, ShouldEqual, Recovering)
				So(manager.Handle(s, fatal(hls.NetworkError)).Kind, ShouldEqual, Terminal)
				So(engine.startLoads, ShouldEqual, 2)
			})

			Convey("Rendered data resets the recovery budget", func() {
				manager.Handle(s, fatal(hls.NetworkError))
				manager.Handle(s, fatal(hls.NetworkError))
				manager.Recovered(s)
				So(manager.Handle(s, fatal(hls.NetworkError)).Kind, ShouldEqual, Recovering)
			})

			Convey("A parsed manifest keeps the recovery budget", func() {
				manager.Handle(s, fatal(hls.NetworkError))
				manager.Handle(s, fatal(hls.NetworkError))
				manager.Handle(s, hls.Event{Kind: hls.ManifestParsed, Levels: ladder})
				So(manager.Handle(s, fatal(hls.NetworkError)).Kind, ShouldEqual, Terminal)
			})

			Convey("Quality selection", func() {
				manager.Handle(s, hls.Event{Kind: hls.ManifestParsed, Levels: ladder})

				So(manager.SetQuality(s, 3), ShouldBeTrue)
				So(engine.level, ShouldEqual, 3)
				So(s.Selected(), ShouldEqual, 3)

				So(manager.SetQuality(s, 2), ShouldBeFalse)
				So(manager.SetQuality(s, 42), ShouldBeFalse)
				So(engine.level, ShouldEqual, 3)

				So(manager.SetQuality(s, Auto), ShouldBeTrue)
				So(engine.level, ShouldEqual, -1)
				So(s.Selected(), ShouldEqual, Auto)
			})

			Convey("Level switches are reported", func() {
				out := manager.Handle(s, hls.Event{Kind: hls.LevelSwitched, Level: 1})
				So(out.Kind, ShouldEqual, Switched)
				So(out.Level, ShouldEqual, 1)
			})

			Convey("Close is idempotent and silences the session", func() {
				manager.Close(s)
				manager.Close(s)
				So(engine.destroyed, ShouldEqual, 1)
				So(element.Stops(), ShouldEqual, 1)

				out := manager.Handle(s, hls.Event{Kind: hls.ManifestParsed, Levels: ladder})
				So(out.Kind, ShouldEqual, Ignored)
				So(s.Levels(), ShouldBeEmpty)
				So(manager.SetQuality(s, Auto), ShouldBeFalse)
			})
		})

		Convey("A direct file opens a native session", func() {
			s, err := manager.Open("https://cdn.test/movie.mp4", true, element, func(hls.Event) {})
			So(err, ShouldBeNil)
			So(s.Adaptive(), ShouldBeFalse)
			So(engines, ShouldBeEmpty)
			So(element.Sources(), ShouldResemble, []string{"https://cdn.test/movie.mp4"})
			So(element.Plays(), ShouldEqual, 1)
			So(manager.SetQuality(s, Auto), ShouldBeFalse)
		})

		Convey("Without autoplay nothing is played", func() {
			_, err := manager.Open("https://cdn.test/movie.mp4", false, element, func(hls.Event) {})
			So(err, ShouldBeNil)
			So(element.Plays(), ShouldEqual, 0)
		})

		Convey("A refused native autoplay still opens", func() {
			element.PlayRefused = true
			s, err := manager.Open("https://cdn.test/movie.mp4", true, element, func(hls.Event) {})
			So(err, ShouldBeNil)
			So(s, ShouldNotBeNil)
		})

		Convey("A rejected native source is an error", func() {
			element.SourceErr = errors.New("unsupported")
			s, err := manager.Open("https://cdn.test/movie.mp4", true, element, func(hls.Event) {})
			So(err, ShouldNotBeNil)
			So(s, ShouldBeNil)
		})
	})

	Convey("Given a manager without adaptive support", t, func() {
		manager := NewManager(Options{})
		element := mediatest.New()

		Convey("Manifests fall back to the native path", func() {
			s, err := manager.Open("https://cdn.test/live/index.m3u8", true, element, func(hls.Event) {})
			So(err, ShouldBeNil)
			So(s.Adaptive(), ShouldBeFalse)
			So(element.Sources(), ShouldHaveLength, 1)
		})
	})

	Convey("Nil sessions are safe", t, func() {
		manager := NewManager(Options{})
		So(func() { manager.Close(nil) }, ShouldNotPanic)
		So(manager.SetQuality(nil, Auto), ShouldBeFalse)
		So(manager.Handle(nil, hls.Event{Kind: hls.ManifestParsed}).Kind, ShouldEqual, Ignored)
	})
}
