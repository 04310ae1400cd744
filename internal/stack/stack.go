// Package stack is the "platform HTTP stack" spec.md treats as an
// external collaborator, made concrete: it resolves a PreparedRequest
// to a pooled connection and runs one HTTP/1.1 exchange over it.
// Adapted from the teacher's internal/client.go (the dial+write+read
// sequence) and internal/net_dialer.go (keying the connection pool by
// destination host:port).
package stack

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/frankli0324/go-fetch/internal/dialer"
	"github.com/frankli0324/go-fetch/internal/model"
	"github.com/frankli0324/go-fetch/internal/netpool"
	"github.com/frankli0324/go-fetch/internal/transport"
)

// Stack owns the connection pool and core dialer a Fetch client
// dispatches exchanges through. New builds one that dials directly
// with no proxy and default TLS; the zero value has no pool or dialer
// and cannot run an Exchange.
type Stack struct {
	Dialer *dialer.CoreDialer
	pool   *netpool.Group
}

// New builds a Stack with the given connection limits per destination.
func New(maxConn, maxIdle uint) *Stack {
	return &Stack{
		Dialer: &dialer.CoreDialer{TLSConfig: &tls.Config{}},
		pool:   netpool.NewGroup(maxConn, maxIdle),
	}
}

func destKey(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	switch u.Scheme {
	case "https":
		return net.JoinHostPort(u.Hostname(), "443")
	default:
		return net.JoinHostPort(u.Hostname(), "80")
	}
}

// Exchange writes pr to a pooled (or freshly dialed) connection to its
// destination and reads back the raw response. Network failures
// surface unwrapped: the Redirect Driver is responsible for tagging
// them as spec.md's "system" error kind.
//
// pr.Agent, when a *netpool.Group, overrides the Stack's own shared
// pool for this exchange — the concrete shape spec.md's opaque "agent"
// handle takes in this module.
func (s *Stack) Exchange(ctx context.Context, pr *model.PreparedRequest) (*transport.RawResponse, error) {
	pool := s.pool
	if g, ok := pr.Agent.(*netpool.Group); ok && g != nil {
		pool = g
	}
	conn, err := pool.Connect(ctx, destKey(pr.U), func(ctx context.Context) (net.Conn, error) {
		return s.Dialer.Dial(ctx, pr.U)
	})
	if err != nil {
		return nil, err
	}

	// spec.md's request-level timeout covers dispatch through
	// headers-received; a deadline on the raw connection underneath
	// the pool's bookkeeping enforces it directly on the wire, so a
	// blocked Write/Read unblocks with an error instead of leaving the
	// connection (and the goroutine driving this Exchange) dangling
	// past the Redirect Driver's own timer. It's lifted again once
	// headers are in, handing the body off to body.Mixin's own timer.
	raw, hasDeadline := conn.(interface{ Raw() net.Conn })
	if hasDeadline && pr.Timeout > 0 {
		raw.Raw().SetDeadline(time.Now().Add(pr.Timeout))
	}

	if err := transport.Write(ctx, conn, pr); err != nil {
		abort(conn)
		return nil, err
	}
	resp := &transport.RawResponse{}
	if err := transport.Read(ctx, conn, resp); err != nil {
		abort(conn)
		return nil, err
	}
	if hasDeadline && pr.Timeout > 0 {
		raw.Raw().SetDeadline(time.Time{})
	}
	return resp, nil
}

// abort tears a connection down instead of returning it to its pool,
// for a write/read that failed or ran past its deadline and left the
// wire framing in an unknown state.
func abort(c io.Closer) {
	if a, ok := c.(interface{ Abort() error }); ok {
		a.Abort()
		return
	}
	c.Close()
}
