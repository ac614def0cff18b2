package network

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/livetv-cli/livetv/log"
	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

var errNotH2 = errors.New("server did not negotiate h2")

// impersonatingTransport dials TLS with a Chrome ClientHello. It tries HTTP/2
// first and falls back to HTTP/1.1 when the server does not negotiate h2.
type impersonatingTransport struct {
	timeout time.Duration
	plain   *http.Transport
	h1      *http.Transport
	h2      *http2.Transport
}

func newImpersonatingTransport(timeout time.Duration) *impersonatingTransport {
	t := &impersonatingTransport{
		timeout: timeout,
		plain:   newTransport(),
	}

	t.h1 = &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return t.dial(ctx, network, addr, []string{"http/1.1"})
		},
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     30 * time.Second,
	}

	t.h2 = &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			conn, err := t.dial(ctx, network, addr, nil)
			if err != nil {
				return nil, err
			}

			if conn.ConnectionState().NegotiatedProtocol != http2.NextProtoTLS {
				conn.Close()
				return nil, errNotH2
			}
			return conn, nil
		},
	}

	return t
}

func (t *impersonatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.plain.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	if req.Body != nil && req.GetBody == nil {
		return nil, err
	}

	log.Debugf("h2 request to %s failed, retrying over http/1.1: %v", req.URL.Host, err)

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		if retry.Body, err = req.GetBody(); err != nil {
			return nil, fmt.Errorf("rewind body: %w", err)
		}
	}
	return t.h1.RoundTrip(retry)
}

// dial opens a TLS connection mimicking Chrome. A nil protos keeps Chrome's default ALPN (h2, http/1.1).
func (t *impersonatingTransport) dial(ctx context.Context, network, addr string, protos []string) (*utls.UConn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	config := &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	tlsConn := utls.UClient(conn, config, utls.HelloChrome_120)
	if protos != nil {
		// the Chrome preset carries its own ALPN list; narrow it on a copy
		hello, err := utls.UTLSIdToSpec(utls.HelloChrome_120)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("client hello preset: %w", err)
		}
		for _, ext := range hello.Extensions {
			if alpn, ok := ext.(*utls.ALPNExtension); ok {
				alpn.AlpnProtocols = protos
			}
		}

		tlsConn = utls.UClient(conn, config, utls.HelloCustom)
		if err := tlsConn.ApplyPreset(&hello); err != nil {
			conn.Close()
			return nil, fmt.Errorf("apply client hello: %w", err)
		}
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
