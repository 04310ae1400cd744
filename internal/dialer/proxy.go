// Ported from the teacher's internal/net_proxy.go: dial the proxy,
// optionally TLS-upgrade to it, then CONNECT-tunnel to the real
// target. Adapted to the new transport.Write/Read signatures and the
// model.PreparedRequest shape.
package dialer

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/frankli0324/go-fetch/internal/model"
	"github.com/frankli0324/go-fetch/internal/transport"
)

// ProxyConfig carries a TLS client config for https proxies, distinct
// from the CoreDialer's own TLSConfig for the real destination.
type ProxyConfig struct {
	TLSConfig *tls.Config
}

func (c *ProxyConfig) Clone() *ProxyConfig {
	if c == nil {
		return nil
	}
	return &ProxyConfig{TLSConfig: c.TLSConfig.Clone()}
}

func (d *CoreDialer) dialViaProxy(ctx context.Context, target, proxy *url.URL) (net.Conn, error) {
	if proxy.Scheme != "http" && proxy.Scheme != "https" { // TODO: socks
		return nil, errors.New("dialer: unsupported proxy scheme: " + proxy.Scheme)
	}
	hp := proxy.Host
	if proxy.Port() == "" {
		hp = net.JoinHostPort(proxy.Hostname(), defaultPorts[proxy.Scheme])
	}
	conn, err := zeroDialer.DialContext(ctx, "tcp", hp)
	if err != nil {
		return nil, err
	}

	if proxy.Scheme == "https" {
		cfg := d.TLSConfig
		if d.ProxyConfig != nil && d.ProxyConfig.TLSConfig != nil {
			cfg = d.ProxyConfig.TLSConfig
		}
		if cfg == nil {
			cfg = &tls.Config{}
		} else {
			cfg = cfg.Clone()
		}
		cfg.ServerName = proxy.Hostname()
		tc := tls.Client(conn, cfg)
		if err := tc.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		conn = tc
	}

	addrport := target.Host
	if target.Port() == "" {
		addrport = net.JoinHostPort(target.Hostname(), defaultPorts[target.Scheme])
	}

	header := http.Header{}
	if auth := proxy.User.String(); auth != "" {
		header.Set("Proxy-Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	}
	connReq := &model.PreparedRequest{
		Request:       &model.Request{Method: "CONNECT"},
		U:             &url.URL{Opaque: addrport},
		HeaderHost:    addrport,
		Header:        header,
		ContentLength: 0,
		GetBody:       func() (io.Reader, error) { return http.NoBody, nil },
	}
	if err := transport.Write(ctx, conn, connReq); err != nil {
		conn.Close()
		return nil, err
	}
	resp := &transport.RawResponse{}
	if err := transport.Read(ctx, conn, resp); err != nil {
		conn.Close()
		return nil, err
	}
	if resp.StatusCode != 200 {
		s, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		conn.Close()
		return nil, fmt.Errorf("dialer: proxy returned status %d: %s", resp.StatusCode, s)
	}
	return conn, nil
}
