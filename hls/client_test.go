package hls

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const (
	masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=5000000,RESOLUTION=1920x1080,CODECS="avc1.640028,mp4a.40.2"
1080/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
360/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2500000,RESOLUTION=1280x720
720/index.m3u8
`
	mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:1
#EXTINF:6.0,
seg1.ts
#EXTINF:6.0,
seg2.ts
`
	singleVariant = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
360/index.m3u8
`
	emptyPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-ENDLIST
`
)

type fakeMedia struct {
	mu      sync.Mutex
	sources []string
	bitrate int
	height  int
	fail    error
}

func (f *fakeMedia) SetSource(uri string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sources = append(f.sources, uri)
	return nil
}

func (f *fakeMedia) SetMaxBitrate(bps int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bitrate = bps
	return nil
}

func (f *fakeMedia) VideoSize() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height * 16 / 9, f.height
}

func (f *fakeMedia) Sources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sources...)
}

func (f *fakeMedia) Bitrate() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bitrate
}

type recorder struct {
	events chan Event
}

func newRecorder() *recorder {
	return &recorder{events: make(chan Event, 32)}
}

func (r *recorder) emit(ev Event) {
	r.events <- ev
}

func (r *recorder) next() (Event, bool) {
	select {
	case ev := <-r.events:
		return ev, true
	case <-time.After(2 * time.Second):
		return Event{}, false
	}
}

func (r *recorder) quiet(d time.Duration) bool {
	select {
	case <-r.events:
		return false
	case <-time.After(d):
		return true
	}
}

func eventually(check func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func serve(routes map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		_, _ = w.Write([]byte(body))
	}))
}

func TestClient(t *testing.T) {
	Convey("Given a server with a master playlist", t, func() {
		server := serve(map[string]string{
			"/live/master.m3u8":     masterPlaylist,
			"/live/1080/index.m3u8": mediaPlaylist,
			"/live/720/index.m3u8":  mediaPlaylist,
			"/live/360/index.m3u8":  mediaPlaylist,
		})
		defer server.Close()

		rec := newRecorder()
		media := &fakeMedia{height: 720}
		engine := New(Config{AutoStartLoad: true, CapLevelToPlayerSize: true}, rec.emit)
		defer engine.Destroy()

		master := server.URL + "/live/master.m3u8"
		engine.LoadSource(master)
		engine.AttachMedia(media)

		Convey("It emits the parsed ladder with resolved URIs", func() {
			ev, ok := rec.next()
			So(ok, ShouldBeTrue)
			So(ev.Kind, ShouldEqual, ManifestParsed)
			So(ev.Levels, ShouldHaveLength, 3)
			So(ev.Levels[0].Height, ShouldEqual, 1080)
			So(ev.Levels[0].Width, ShouldEqual, 1920)
			So(ev.Levels[0].Codecs, ShouldEqual, "avc1.640028,mp4a.40.2")
			So(ev.Levels[1].URI, ShouldEqual, server.URL+"/live/360/index.m3u8")
			So(ev.Levels[2].Bandwidth, ShouldEqual, 2500000)

			Convey("And attaches the master URI capped to the player size", func() {
				So(eventually(func() bool { return len(media.Sources()) == 1 }), ShouldBeTrue)
				So(media.Sources()[0], ShouldEqual, master)
				So(media.Bitrate(), ShouldEqual, 2500000)
				So(engine.CurrentLevel(), ShouldEqual, -1)
			})

			Convey("Pinning a level switches the media to that rendition", func() {
				So(eventually(func() bool { return len(media.Sources()) == 1 }), ShouldBeTrue)
				engine.SetCurrentLevel(1)

				ev, ok := rec.next()
				So(ok, ShouldBeTrue)
				So(ev.Kind, ShouldEqual, LevelSwitched)
				So(ev.Level, ShouldEqual, 1)
				So(media.Sources()[1], ShouldEqual, server.URL+"/live/360/index.m3u8")
				So(media.Bitrate(), ShouldEqual, 0)
			})

			Convey("Out of range levels are ignored", func() {
				engine.SetCurrentLevel(7)
				So(engine.CurrentLevel(), ShouldEqual, -1)
			})
		})
	})

	Convey("Given a missing manifest", t, func() {
		server := serve(map[string]string{})
		defer server.Close()

		rec := newRecorder()
		engine := New(Config{AutoStartLoad: true}, rec.emit)
		defer engine.Destroy()
		engine.LoadSource(server.URL + "/nope.m3u8")
		engine.AttachMedia(&fakeMedia{})

		Convey("It reports a fatal network error", func() {
			ev, ok := rec.next()
			So(ok, ShouldBeTrue)
			So(ev.Kind, ShouldEqual, Error)
			So(ev.Error.Fatal, ShouldBeTrue)
			So(ev.Error.Type, ShouldEqual, NetworkError)
			So(ev.Error.Details, ShouldEqual, "manifestLoadError")
		})
	})

	Convey("Given a body that is not a playlist", t, func() {
		server := serve(map[string]string{"/bad.m3u8": "<html>nope</html>"})
		defer server.Close()

		rec := newRecorder()
		engine := New(Config{AutoStartLoad: true}, rec.emit)
		defer engine.Destroy()
		engine.LoadSource(server.URL + "/bad.m3u8")
		engine.AttachMedia(&fakeMedia{})

		Convey("It reports a fatal error that is neither network nor media", func() {
			ev, ok := rec.next()
			So(ok, ShouldBeTrue)
			So(ev.Kind, ShouldEqual, Error)
			So(ev.Error.Fatal, ShouldBeTrue)
			So(ev.Error.Type, ShouldEqual, OtherError)
		})
	})

	Convey("Given an empty media playlist", t, func() {
		server := serve(map[string]string{"/empty.m3u8": emptyPlaylist})
		defer server.Close()

		rec := newRecorder()
		engine := New(Config{AutoStartLoad: true}, rec.emit)
		defer engine.Destroy()
		engine.LoadSource(server.URL + "/empty.m3u8")
		engine.AttachMedia(&fakeMedia{})

		Convey("It reports a fatal media error", func() {
			ev, ok := rec.next()
			So(ok, ShouldBeTrue)
			So(ev.Error.Fatal, ShouldBeTrue)
			So(ev.Error.Type, ShouldEqual, MediaError)
		})
	})

	Convey("Given a master whose first rendition is missing", t, func() {
		server := serve(map[string]string{
			"/master.m3u8":    masterPlaylist,
			"/720/index.m3u8": mediaPlaylist,
			"/360/index.m3u8": mediaPlaylist,
		})
		defer server.Close()

		rec := newRecorder()
		media := &fakeMedia{}
		engine := New(Config{AutoStartLoad: true}, rec.emit)
		defer engine.Destroy()
		engine.LoadSource(server.URL + "/master.m3u8")
		engine.AttachMedia(media)

		Convey("The level error is not fatal and playback still attaches", func() {
			ev, _ := rec.next()
			So(ev.Kind, ShouldEqual, ManifestParsed)

			ev, ok := rec.next()
			So(ok, ShouldBeTrue)
			So(ev.Kind, ShouldEqual, Error)
			So(ev.Error.Fatal, ShouldBeFalse)
			So(ev.Error.Type, ShouldEqual, NetworkError)
			So(eventually(func() bool { return len(media.Sources()) == 1 }), ShouldBeTrue)
		})
	})

	Convey("Given a single-variant master whose rendition is missing", t, func() {
		server := serve(map[string]string{"/master.m3u8": singleVariant})
		defer server.Close()

		rec := newRecorder()
		engine := New(Config{AutoStartLoad: true}, rec.emit)
		defer engine.Destroy()
		engine.LoadSource(server.URL + "/master.m3u8")
		engine.AttachMedia(&fakeMedia{})

		Convey("The level error is fatal", func() {
			ev, _ := rec.next()
			So(ev.Kind, ShouldEqual, ManifestParsed)

			ev, ok := rec.next()
			So(ok, ShouldBeTrue)
			So(ev.Kind, ShouldEqual, Error)
			So(ev.Error.Fatal, ShouldBeTrue)

			Convey("And reloading does not announce the manifest again", func() {
				engine.StartLoad()

				ev, ok := rec.next()
				So(ok, ShouldBeTrue)
				So(ev.Kind, ShouldEqual, Error)
				So(ev.Error.Fatal, ShouldBeTrue)
			})
		})
	})

	Convey("Given a media sink that rejects the source", t, func() {
		server := serve(map[string]string{"/index.m3u8": mediaPlaylist})
		defer server.Close()

		rec := newRecorder()
		engine := New(Config{AutoStartLoad: true}, rec.emit)
		defer engine.Destroy()
		engine.LoadSource(server.URL + "/index.m3u8")
		engine.AttachMedia(&fakeMedia{fail: errors.New("decoder gone")})

		Convey("It reports a fatal media error after parsing", func() {
			ev, _ := rec.next()
			So(ev.Kind, ShouldEqual, ManifestParsed)
			So(ev.Levels, ShouldHaveLength, 1)
			So(ev.Levels[0].Height, ShouldEqual, 0)

			ev, ok := rec.next()
			So(ok, ShouldBeTrue)
			So(ev.Error.Type, ShouldEqual, MediaError)
			So(errors.Unwrap(ev.Error), ShouldNotBeNil)
		})
	})

	Convey("Given a slow server", t, func() {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
			_, _ = w.Write([]byte(mediaPlaylist))
		}))
		defer server.Close()
		defer close(release)

		rec := newRecorder()
		engine := New(Config{AutoStartLoad: true}, rec.emit)
		engine.LoadSource(server.URL + "/index.m3u8")
		engine.AttachMedia(&fakeMedia{})

		Convey("Nothing is emitted once destroyed", func() {
			engine.Destroy()
			engine.Destroy()
			So(rec.quiet(300*time.Millisecond), ShouldBeTrue)

			engine.StartLoad()
			engine.SetCurrentLevel(0)
			So(rec.quiet(100*time.Millisecond), ShouldBeTrue)
		})
	})
}

func TestProbe(t *testing.T) {
	Convey("Probe", t, func() {
		server := serve(map[string]string{
			"/master.m3u8": masterPlaylist,
			"/live.m3u8":   mediaPlaylist,
		})
		defer server.Close()

		Convey("Decodes a master playlist", func() {
			m, err := Probe(context.Background(), http.DefaultClient, server.URL+"/master.m3u8")
			So(err, ShouldBeNil)
			So(m.Master, ShouldBeTrue)
			So(m.Levels, ShouldHaveLength, 3)
		})

		Convey("Decodes a live media playlist", func() {
			m, err := Probe(context.Background(), http.DefaultClient, server.URL+"/live.m3u8")
			So(err, ShouldBeNil)
			So(m.Master, ShouldBeFalse)
			So(m.Live, ShouldBeTrue)
			So(m.Segments, ShouldEqual, 2)
			So(m.TargetDuration, ShouldEqual, 6)
		})

		Convey("Classifies failures", func() {
			_, err := Probe(context.Background(), http.DefaultClient, server.URL+"/missing.m3u8")
			var data *ErrorData
			So(errors.As(err, &data), ShouldBeTrue)
			So(data.Type, ShouldEqual, NetworkError)
			So(data.Error(), ShouldContainSubstring, "fatal NETWORK error")
		})
	})
}

func TestCapBitrate(t *testing.T) {
	Convey("capBitrate", t, func() {
		levels := []Level{
			{Index: 0, Height: 1080, Bandwidth: 5000},
			{Index: 1, Height: 360, Bandwidth: 800},
			{Index: 2, Height: 720, Bandwidth: 2500},
			{Index: 3, Height: 720, Bandwidth: 3000},
		}

		So(capBitrate(levels, 1080), ShouldEqual, 5000)
		So(capBitrate(levels, 800), ShouldEqual, 3000)
		So(capBitrate(levels, 240), ShouldEqual, 800)
		So(capBitrate(levels, 0), ShouldEqual, 0)
		So(capBitrate([]Level{{Bandwidth: 1}}, 720), ShouldEqual, 0)
	})
}
