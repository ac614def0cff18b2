package playback

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/controls"
	"github.com/livetv-cli/livetv/hls"
	"github.com/livetv-cli/livetv/media"
	"github.com/livetv-cli/livetv/media/mediatest"
	"github.com/livetv-cli/livetv/session"
	"github.com/livetv-cli/livetv/stream"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeEngine struct {
	id        int
	emit      func(hls.Event)
	journal   *[]string
	level     int
	destroyed bool
}

func (f *fakeEngine) LoadSource(string) {}
func (f *fakeEngine) AttachMedia(hls.Media) {}
func (f *fakeEngine) StartLoad() {}
func (f *fakeEngine) RecoverMediaError() {}
func (f *fakeEngine) SetCurrentLevel(index int) { f.level = index }
func (f *fakeEngine) CurrentLevel() int { return f.level }
func (f *fakeEngine) Levels() []hls.Level { return nil }

func (f *fakeEngine) Destroy() {
	f.destroyed = true
	*f.journal = append(*f.journal, fmt.Sprintf("destroy %d", f.id))
}

type harness struct {
	player  *Player
	element *mediatest.Element
	engines []*fakeEngine
	journal []string
	opened  []string
}

func newHarness() *harness {
	h := &harness{element: mediatest.New()}

	options := Options{
		IdleTimeout: time.Second,
		LoadTimeout: 10 * time.Second,
		VolumeStep:  0.1,
		Session: session.Options{
			Factory: func(_ hls.Config, emit func(hls.Event)) hls.Engine {
				engine := &fakeEngine{id: len(h.engines) + 1, emit: emit, journal: &h.journal, level: -1}
				h.engines = append(h.engines, engine)
				h.journal = append(h.journal, fmt.Sprintf("open %d", engine.id))
				return engine
			},
			MaxRecoveries: 1,
		},
		Opener: func(url string) error {
			h.opened = append(h.opened, url)
			return nil
		},
	}

	h.player = New(h.element, h.element, options)
	return h
}

func (h *harness) last() *fakeEngine {
	return h.engines[len(h.engines)-1]
}

var levels = []hls.Level{
	{Index: 0, Height: 720, Bandwidth: 2500},
	{Index: 1, Height: 1080, Bandwidth: 5000},
}

const manifest = "https://cdn.test/live/index.m3u8"

func TestPlayer(t *testing.T) {
	Convey("Given a player", t, func() {
		h := newHarness()
		p := h.player

		Convey("Embedded provider links are handed to the opener", func() {
			p.SetSource(Source{URL: "https://www.youtube.com/watch?v=abc", Title: "News", AutoPlay: true})

			view := p.View()
			So(view.Strategy.Kind, ShouldEqual, stream.EmbeddedProvider)
			So(view.State.Loading, ShouldBeFalse)
			So(h.opened, ShouldResemble, []string{"https://www.youtube.com/embed/abc"})
			So(h.element.Subscribers(), ShouldEqual, 0)
			So(h.element.Sources(), ShouldBeEmpty)
			So(p.Timers(), ShouldBeEmpty)
		})

		Convey("A failing opener surfaces an error", func() {
			p.options.Opener = func(string) error { return errors.New("no browser") }
			p.SetSource(Source{URL: "https://youtu.be/abc"})
			So(p.View().State.Error.MustGet(), ShouldEqual, constant.PlaybackErrorMessage)
		})

		Convey("Direct files play natively", func() {
			p.SetSource(Source{URL: "https://cdn.test/movie.mp4", AutoPlay: true})

			So(h.element.Sources(), ShouldResemble, []string{"https://cdn.test/movie.mp4"})
			So(h.element.Plays(), ShouldEqual, 1)
			So(h.engines, ShouldBeEmpty)
			So(p.View().Menu[0].Label, ShouldEqual, "Auto only")

			Convey("Element events apply only on Dispatch", func() {
				h.element.Emit(media.Event{Kind: media.Playing})
				So(p.View().State.Playing, ShouldBeFalse)

				<-p.Notify()
				p.Dispatch()
				So(p.View().State.Playing, ShouldBeTrue)
			})

			Convey("Data ready clears loading", func() {
				h.element.Emit(media.Event{Kind: media.DataReady})
				p.Dispatch()
				So(p.View().State.Loading, ShouldBeFalse)
			})
		})

		Convey("A rejected native source is terminal", func() {
			h.element.SourceErr = errors.New("unsupported")
			p.SetSource(Source{URL: "https://cdn.test/movie.mp4"})
			So(p.View().State.Error.IsPresent(), ShouldBeTrue)
			So(p.View().State.Loading, ShouldBeFalse)
		})

		Convey("Manifests open an adaptive session", func() {
			p.SetSource(Source{URL: manifest, Title: "Live", AutoPlay: true})
			So(h.engines, ShouldHaveLength, 1)
			So(p.View().Adaptive, ShouldBeTrue)
			So(p.View().State.Loading, ShouldBeTrue)

			Convey("The parsed ladder reaches the view", func() {
				h.last().emit(hls.Event{Kind: hls.ManifestParsed, Levels: levels})
				p.Dispatch()

				view := p.View()
				So(view.State.Loading, ShouldBeFalse)
				So(view.Levels, ShouldHaveLength, 2)
				So(view.Levels[0].Label, ShouldEqual, "1080p")
				So(view.Selected, ShouldEqual, session.Auto)
				So(view.Menu, ShouldHaveLength, 3)

				Convey("Selecting a quality pins the level and closes the menu", func() {
					p.ToggleMenu()
					So(p.View().Controls, ShouldEqual, controls.VisiblePinned)

					So(p.SelectQuality(1), ShouldBeTrue)
					So(h.last().level, ShouldEqual, 1)
					So(p.View().Selected, ShouldEqual, 1)
					So(p.View().Controls, ShouldEqual, controls.VisibleTransient)

					So(p.SelectQuality(5), ShouldBeFalse)
					So(h.last().level, ShouldEqual, 1)
				})
			})

			Convey("A terminal error is surfaced", func() {
				h.last().emit(hls.Event{Kind: hls.Error, Error: &hls.ErrorData{Fatal: true, Type: hls.OtherError}})
				p.Dispatch()

				So(p.View().State.Error.MustGet(), ShouldEqual, constant.PlaybackErrorMessage)
				So(h.last().destroyed, ShouldBeTrue)
			})

			Convey("Switching sources closes the old session first", func() {
				stale := h.last()
				h.element.Emit(media.Event{Kind: media.Playing})

				p.SetSource(Source{URL: "https://cdn.test/other/index.m3u8", AutoPlay: true})
				So(h.journal, ShouldResemble, []string{"open 1", "destroy 1", "open 2"})
				So(h.element.Subscribers(), ShouldEqual, 1)

				Convey("Events from the old session are dropped", func() {
					stale.emit(hls.Event{Kind: hls.ManifestParsed, Levels: levels})
					p.Dispatch()

					So(p.View().State.Playing, ShouldBeFalse)
					So(p.View().Levels, ShouldBeEmpty)
					So(p.View().State.Loading, ShouldBeTrue)
				})
			})

			Convey("Setting the same URL again does not rebuild", func() {
				generation := p.View().Generation
				p.SetSource(Source{URL: manifest, Title: "Renamed"})
				So(p.View().Generation, ShouldEqual, generation)
				So(p.View().Source.Title, ShouldEqual, "Renamed")
				So(h.engines, ShouldHaveLength, 1)
			})

			Convey("The load watchdog", func() {
				timers := p.Timers()
				So(timers, ShouldHaveLength, 1)
				So(timers[0].Kind, ShouldEqual, LoadTimeout)
				So(timers[0].After, ShouldEqual, 10*time.Second)

				Convey("fails a stream that never became ready", func() {
					p.Fire(timers[0])
					So(p.View().State.Error.IsPresent(), ShouldBeTrue)
					So(h.last().destroyed, ShouldBeTrue)
				})

				Convey("is ignored once ready", func() {
					h.last().emit(hls.Event{Kind: hls.ManifestParsed, Levels: levels})
					p.Dispatch()
					p.Fire(timers[0])
					So(p.View().State.Error.IsAbsent(), ShouldBeTrue)
				})

				Convey("is ignored for an earlier source", func() {
					p.SetSource(Source{URL: "https://cdn.test/movie.mp4"})
					p.Fire(timers[0])
					So(p.View().State.Error.IsAbsent(), ShouldBeTrue)
				})
			})

			Convey("Unmount closes the session then releases the element", func() {
				p.Unmount()
				So(h.last().destroyed, ShouldBeTrue)
				So(h.element.Stops(), ShouldEqual, 1)
				So(h.element.Subscribers(), ShouldEqual, 0)

				h.last().emit(hls.Event{Kind: hls.ManifestParsed, Levels: levels})
				p.Dispatch()
				So(p.View().Levels, ShouldBeEmpty)

				So(func() { p.Unmount() }, ShouldNotPanic)
			})
		})

		Convey("Controls auto-hide while playing", func() {
			p.SetSource(Source{URL: "https://cdn.test/movie.mp4", AutoPlay: true})
			p.Timers()

			h.element.Emit(media.Event{Kind: media.Playing})
			p.Dispatch()

			p.PointerMoved()
			timers := p.Timers()
			So(timers, ShouldHaveLength, 1)
			So(timers[0].Kind, ShouldEqual, IdleHide)
			So(timers[0].After, ShouldEqual, time.Second)

			Convey("when the idle timer fires", func() {
				p.Fire(timers[0])
				So(p.View().Controls, ShouldEqual, controls.Hidden)
			})

			Convey("but not while the menu is open", func() {
				p.ToggleMenu()
				p.Fire(timers[0])
				So(p.View().Controls, ShouldEqual, controls.VisiblePinned)
			})

			Convey("and not after the source changed", func() {
				p.SetSource(Source{URL: "https://cdn.test/other.mp4"})
				p.Fire(timers[0])
				So(p.View().Controls, ShouldEqual, controls.VisibleTransient)
			})

			Convey("pausing brings them back", func() {
				p.Fire(timers[0])
				h.element.Emit(media.Event{Kind: media.Paused})
				p.Dispatch()
				So(p.View().Controls, ShouldEqual, controls.VisibleTransient)
			})
		})

		Convey("Volume intents step and clamp", func() {
			p.SetSource(Source{URL: "https://cdn.test/movie.mp4"})

			p.VolumeUp()
			So(p.View().State.Volume, ShouldEqual, 1)

			p.VolumeDown()
			So(p.View().State.Volume, ShouldAlmostEqual, 0.9)

			p.SetVolume(0)
			So(p.View().State.Muted, ShouldBeTrue)

			p.ToggleMute()
			So(p.View().State.Muted, ShouldBeFalse)
			So(p.View().State.Volume, ShouldEqual, 1)
		})

		Convey("Fullscreen goes through the container", func() {
			p.SetSource(Source{URL: "https://cdn.test/movie.mp4"})
			p.ToggleFullscreen()
			So(h.element.IsFullscreen(), ShouldBeTrue)
			So(p.View().State.Fullscreen, ShouldBeTrue)
		})

		Convey("Intents without a source are harmless", func() {
			So(func() {
				p.TogglePlay()
				p.ToggleMute()
				p.SelectQuality(session.Auto)
				p.Dispatch()
				p.Unmount()
			}, ShouldNotPanic)
		})
	})
}

func TestRecoveryCap(t *testing.T) {
	Convey("Given a master whose only rendition is gone", t, func() {
		var fetches atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/master.m3u8" {
				http.NotFound(w, r)
				return
			}
			fetches.Add(1)
			_, _ = w.Write([]byte("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360\n360/index.m3u8\n"))
		}))
		defer server.Close()

		element := mediatest.New()
		p := New(element, element, Options{
			IdleTimeout: time.Second,
			LoadTimeout: 10 * time.Second,
			Session: session.Options{
				Factory:       hls.NewFactory(),
				Client:        server.Client(),
				MaxRecoveries: 3,
			},
		})
		defer p.Unmount()

		p.SetSource(Source{URL: server.URL + "/master.m3u8", AutoPlay: true})

		deadline := time.After(2 * time.Second)
	loop:
		for p.View().State.Error.IsAbsent() {
			select {
			case <-p.Notify():
				p.Dispatch()
			case <-deadline:
				break loop
			}
		}

		Convey("Playback gives up after the configured retries", func() {
			So(p.View().State.Error.OrEmpty(), ShouldEqual, constant.PlaybackErrorMessage)
			So(p.View().State.Loading, ShouldBeFalse)
			So(fetches.Load(), ShouldEqual, 4)
		})
	})
}
