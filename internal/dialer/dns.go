package dialer

import (
	"context"
	"net"
)

// dnsServerCtx lets customServerResolver's Dial func recover which
// custom server a particular lookup should hit, without leaking that
// key to unrelated context users. Ported from the teacher's
// internal/net_dns.go.
type dnsServerCtx struct {
	context.Context
	server string
}

var dnsServerCtxKey = &dnsServerCtx{}

func (c dnsServerCtx) Value(key any) any {
	if key == dnsServerCtxKey {
		return c.server
	}
	return c.Context.Value(key)
}

var customServerResolver = net.Resolver{
	PreferGo: true,
	Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
		if v, ok := ctx.Value(dnsServerCtxKey).(string); ok && v != "" {
			if _, _, err := net.SplitHostPort(v); err != nil {
				v = net.JoinHostPort(v, "53")
			}
			return zeroDialer.DialContext(ctx, network, v)
		}
		return zeroDialer.DialContext(ctx, network, address)
	},
}

func (d *CoreDialer) lookup(ctx context.Context, server, host string) ([]net.IP, error) {
	return customServerResolver.LookupIP(dnsServerCtx{ctx, server}, "ip", host)
}
