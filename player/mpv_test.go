package player

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/livetv-cli/livetv/media"
	. "github.com/smartystreets/goconvey/convey"
)

func socketPath() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return filepath.Join(os.TempDir(), fmt.Sprintf("livetv-test-%x.sock", b))
}

// fakeIPC answers every command with reply, preceded by an unrelated event line.
func fakeIPC(path, reply string) (net.Listener, error) {
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			go func(conn net.Conn) {
				defer conn.Close()
				if _, err := bufio.NewReader(conn).ReadBytes('\n'); err != nil {
					return
				}
				_, _ = conn.Write([]byte(`{"event":"playback-restart"}` + "\n" + reply + "\n"))
			}(conn)
		}
	}()

	return listener, nil
}

func TestMPV(t *testing.T) {
	Convey("Given an mpv backend that was never started", t, func() {
		mpv := NewMPV("")

		Convey("It uses mpv from PATH", func() {
			So(mpv.path, ShouldEqual, "mpv")
		})

		Convey("Commands report that it is not running", func() {
			So(errors.Is(mpv.Play(), ErrNotRunning), ShouldBeTrue)
			So(errors.Is(mpv.SetSource("https://a.b/c.m3u8"), ErrNotRunning), ShouldBeTrue)
			So(mpv.IsRunning(), ShouldBeFalse)
			So(mpv.Close(), ShouldBeNil)

			w, h := mpv.VideoSize()
			So(w, ShouldEqual, 0)
			So(h, ShouldEqual, 0)
		})

		Convey("It starts paused", func() {
			So(mpv.Paused(), ShouldBeTrue)
		})

		Convey("The launch arguments keep mpv idle behind an IPC socket", func() {
			mpv.socketPath = "/tmp/x.sock"
			args := mpv.args()
			So(args, ShouldContain, "--input-ipc-server=/tmp/x.sock")
			So(args, ShouldContain, "--idle=yes")
			So(args, ShouldContain, "--pause=yes")
		})
	})

	Convey("Given subscribers", t, func() {
		mpv := NewMPV("mpv")
		var got []media.Event
		unsubscribe := mpv.Subscribe(func(ev media.Event) { got = append(got, ev) })
		startEntry(mpv, 1)

		Convey("mpv notifications become element events", func() {
			mpv.onEvent("pause", false)
			So(got, ShouldBeEmpty)

			mpv.onEvent("file-loaded", map[string]any{})
			So(got[len(got)-1].Kind, ShouldEqual, media.Playing)
			So(mpv.Paused(), ShouldBeFalse)

			mpv.onEvent("playback-restart", map[string]any{})
			So(got[len(got)-1].Kind, ShouldEqual, media.DataReady)

			mpv.onEvent("pause", true)
			So(got[len(got)-1].Kind, ShouldEqual, media.Paused)
			So(mpv.Paused(), ShouldBeTrue)

			mpv.onEvent("fullscreen", true)
			So(got[len(got)-1].Kind, ShouldEqual, media.FullscreenChanged)
			So(got[len(got)-1].Fullscreen, ShouldBeTrue)
			So(mpv.IsFullscreen(), ShouldBeTrue)
		})

		Convey("A failed file is an element error", func() {
			mpv.onEvent("end-file", map[string]any{"reason": "error", "file_error": "loading failed"})
			So(got, ShouldHaveLength, 1)
			So(got[0].Kind, ShouldEqual, media.ElementError)
			So(got[0].Err.Error(), ShouldContainSubstring, "loading failed")
		})

		Convey("A stopped file is not an error", func() {
			mpv.onEvent("end-file", map[string]any{"reason": "stop"})
			So(got, ShouldBeEmpty)
		})

		Convey("Unsubscribing stops delivery", func() {
			unsubscribe()
			mpv.onEvent("playback-restart", nil)
			So(got, ShouldBeEmpty)
		})
	})
}

func startEntry(mpv *MPV, id int) {
	mpv.beginEntry(true)
	mpv.onEvent("start-file", map[string]any{"playlist_entry_id": float64(id)})
}

func TestFileEntries(t *testing.T) {
	Convey("Given a subscriber for the second file", t, func() {
		mpv := NewMPV("mpv")
		startEntry(mpv, 1)

		unsubscribe := mpv.Subscribe(func(media.Event) {})
		unsubscribe()

		var got []media.Event
		mpv.Subscribe(func(ev media.Event) { got = append(got, ev) })
		mpv.beginEntry(true)

		Convey("Late events of the first file are dropped", func() {
			mpv.onEvent("end-file", map[string]any{"reason": "error", "file_error": "loading failed", "playlist_entry_id": float64(1)})
			mpv.onEvent("playback-restart", map[string]any{})
			So(got, ShouldBeEmpty)

			Convey("Until the new file starts", func() {
				mpv.onEvent("start-file", map[string]any{"playlist_entry_id": float64(2)})
				mpv.onEvent("playback-restart", map[string]any{})
				So(got, ShouldHaveLength, 1)
				So(got[0].Kind, ShouldEqual, media.DataReady)

				mpv.onEvent("end-file", map[string]any{"reason": "error", "playlist_entry_id": float64(1)})
				So(got, ShouldHaveLength, 1)
			})
		})

		Convey("A start-file that is not the loaded entry is ignored", func() {
			mpv.expectEntry(3)
			mpv.onEvent("start-file", map[string]any{"playlist_entry_id": float64(2)})
			mpv.onEvent("playback-restart", map[string]any{})
			So(got, ShouldBeEmpty)

			mpv.onEvent("start-file", map[string]any{"playlist_entry_id": float64(3)})
			mpv.onEvent("playback-restart", map[string]any{})
			So(got, ShouldHaveLength, 1)
		})

		Convey("A reply read after its start-file corrects the entry", func() {
			mpv.onEvent("start-file", map[string]any{"playlist_entry_id": float64(1)})
			mpv.expectEntry(2)
			mpv.onEvent("end-file", map[string]any{"reason": "error", "playlist_entry_id": float64(2)})
			So(got, ShouldHaveLength, 1)
			So(got[0].Kind, ShouldEqual, media.ElementError)
		})
	})

	Convey("Without a loaded file, file events are dropped", t, func() {
		mpv := NewMPV("mpv")
		var got []media.Event
		mpv.Subscribe(func(ev media.Event) { got = append(got, ev) })

		mpv.onEvent("file-loaded", map[string]any{})
		mpv.onEvent("playback-restart", map[string]any{})
		So(got, ShouldBeEmpty)
	})
}

func TestIPC(t *testing.T) {
	Convey("Given an IPC socket", t, func() {
		path := socketPath()
		listener, err := fakeIPC(path, `{"data":720,"error":"success","request_id":0}`)
		So(err, ShouldBeNil)
		defer listener.Close()

		Convey("Replies are read past broadcast events", func() {
			data, err := doSendCommand(path, []any{"get_property", "osd-height"})
			So(err, ShouldBeNil)
			So(data, ShouldEqual, 720.0)
		})
	})

	Convey("Given an IPC socket that rejects commands", t, func() {
		path := socketPath()
		listener, err := fakeIPC(path, `{"error":"property unavailable"}`)
		So(err, ShouldBeNil)
		defer listener.Close()

		Convey("mpv errors are returned as command errors", func() {
			_, err := doSendCommand(path, []any{"get_property", "osd-height"})
			var cmdErr *commandError
			So(errors.As(err, &cmdErr), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "property unavailable")
		})
	})

	Convey("Without a socket the dial fails", t, func() {
		_, err := doSendCommand(socketPath(), []any{"quit"})
		So(err, ShouldNotBeNil)
	})
}

func TestSanitize(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		for _, ok := range []string{"https://a.b/live.m3u8", "rtmp://a.b/live", "/home/me/clip.mp4"} {
			_, err := sanitizeMediaTarget(ok)
			So(err, ShouldBeNil)
		}

		for _, bad := range []string{"", "--script=evil.lua", "file:///etc/passwd", "https://a.b/\nx"} {
			_, err := sanitizeMediaTarget(bad)
			So(err, ShouldNotBeNil)
		}
	})

	Convey("sanitizeTitle", t, func() {
		So(sanitizeTitle(" News\n24\t"), ShouldEqual, "News 24")
	})
}
