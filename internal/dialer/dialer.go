// Package dialer is the TCP/TLS half of the "platform HTTP stack"
// spec.md treats as an external collaborator: it resolves a URL to a
// connection, optionally through an HTTP/HTTPS CONNECT proxy. Adapted
// from the teacher's internal/net.go, net_dialer.go, net_dns.go, and
// net_proxy.go — merged into one coherent generation (the teacher repo
// carries a second, unused generation of the same idea in
// internal/dialer/* and internal/http/*, which this module does not
// reuse; see DESIGN.md).
package dialer

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"
)

var defaultPorts = map[string]string{"http": "80", "https": "443"}

var zeroDialer net.Dialer

// ResolveConfig overrides name resolution for a CoreDialer: a static
// hosts-file-like map, and/or a single custom DNS server.
type ResolveConfig struct {
	CustomDNSServer string
	StaticHosts     map[string]string
}

func (c *ResolveConfig) Clone() *ResolveConfig {
	if c == nil {
		return nil
	}
	hosts := make(map[string]string, len(c.StaticHosts))
	for k, v := range c.StaticHosts {
		hosts[k] = v
	}
	return &ResolveConfig{CustomDNSServer: c.CustomDNSServer, StaticHosts: hosts}
}

// CoreDialer resolves a request URL to a live connection: optional
// static-hosts/custom-DNS override, optional HTTP/HTTPS CONNECT proxy,
// and TLS for https destinations.
type CoreDialer struct {
	TLSConfig   *tls.Config
	ResolveConfig *ResolveConfig

	// GetProxy, when non-nil, is consulted for every dial; an empty
	// string return means "no proxy for this destination".
	GetProxy    func(ctx context.Context, target *url.URL) (string, error)
	ProxyConfig *ProxyConfig
}

func (d *CoreDialer) Clone() *CoreDialer {
	return &CoreDialer{
		TLSConfig:     d.TLSConfig.Clone(),
		ResolveConfig: d.ResolveConfig.Clone(),
		GetProxy:      d.GetProxy,
		ProxyConfig:   d.ProxyConfig.Clone(),
	}
}

// Dial resolves and connects to target, handling the https TLS
// handshake and any configured proxy tunnel.
func (d *CoreDialer) Dial(ctx context.Context, target *url.URL) (net.Conn, error) {
	if d.GetProxy != nil {
		proxy, err := d.GetProxy(ctx, target)
		if err != nil {
			return nil, err
		}
		if proxy != "" {
			proxyURL, err := url.Parse(proxy)
			if err != nil {
				return nil, err
			}
			return d.dialViaProxy(ctx, target, proxyURL)
		}
	}

	addr, err := d.resolveAddr(ctx, target)
	if err != nil {
		return nil, err
	}
	conn, err := zeroDialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if target.Scheme == "https" {
		return d.upgradeTLS(ctx, conn, target.Hostname())
	}
	return conn, nil
}

func (d *CoreDialer) upgradeTLS(ctx context.Context, conn net.Conn, serverName string) (net.Conn, error) {
	cfg := d.TLSConfig
	if cfg == nil {
		cfg = &tls.Config{}
	} else {
		cfg = cfg.Clone()
	}
	cfg.ServerName = serverName
	tc := tls.Client(conn, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tc, nil
}

func (d *CoreDialer) resolveAddr(ctx context.Context, target *url.URL) (string, error) {
	host := target.Hostname()
	port := target.Port()
	if port == "" {
		port = defaultPorts[target.Scheme]
	}

	if d.ResolveConfig != nil {
		if ip, ok := d.ResolveConfig.StaticHosts[host]; ok {
			host = ip
		} else if d.ResolveConfig.CustomDNSServer != "" {
			ips, err := d.lookup(ctx, d.ResolveConfig.CustomDNSServer, host)
			if err != nil {
				return "", err
			}
			if len(ips) == 0 {
				return "", errors.New("dialer: no such host: " + host)
			}
			host = ips[0].String()
		}
	}
	return net.JoinHostPort(host, port), nil
}
