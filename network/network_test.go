package network

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/livetv-cli/livetv/config"
	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	_ = config.Setup()
}

func TestNew(t *testing.T) {
	Convey("New", t, func() {
		Convey("uses a tuned transport by default", func() {
			client := New(5*time.Second, false)
			So(client.Timeout, ShouldEqual, 5*time.Second)
			_, ok := client.Transport.(*http.Transport)
			So(ok, ShouldBeTrue)
		})

		Convey("uses the fingerprinting transport when impersonating", func() {
			client := New(5*time.Second, true)
			_, ok := client.Transport.(*impersonatingTransport)
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Given a plain http server", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("#EXTM3U"))
		}))
		defer server.Close()

		Convey("the impersonating client passes plain requests through", func() {
			resp, err := New(5*time.Second, true).Get(server.URL)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			So(string(body), ShouldEqual, "#EXTM3U")
		})
	})
}

func TestFromConfig(t *testing.T) {
	Convey("FromConfig reads the network settings", t, func() {
		viper.Set(key.NetworkTimeout, 7)
		viper.Set(key.NetworkImpersonate, false)
		defer viper.Set(key.NetworkTimeout, 15)

		client := FromConfig()
		So(client.Timeout, ShouldEqual, 7*time.Second)

		viper.Set(key.NetworkTimeout, 0)
		So(FromConfig().Timeout, ShouldEqual, 15*time.Second)
	})
}
