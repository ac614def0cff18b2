// Package network provides the HTTP clients used for manifest and playlist requests.
package network

import (
	"net/http"
	"time"

	"github.com/livetv-cli/livetv/key"
	"github.com/spf13/viper"
)

// Client is the shared client for everything that is not a manifest request.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

// newTransport initializes a tuned http.Transport with pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 20
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 1 * time.Second
	return t
}

// New returns a client with the given timeout. With impersonate set, TLS
// handshakes carry a browser fingerprint.
func New(timeout time.Duration, impersonate bool) *http.Client {
	client := &http.Client{Timeout: timeout}
	if impersonate {
		client.Transport = newImpersonatingTransport(timeout)
	} else {
		client.Transport = newTransport()
	}
	return client
}

// FromConfig builds the manifest client from the network settings.
func FromConfig() *http.Client {
	timeout := time.Duration(viper.GetInt(key.NetworkTimeout)) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return New(timeout, viper.GetBool(key.NetworkImpersonate))
}
