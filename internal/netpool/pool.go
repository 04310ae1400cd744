// Package netpool is the connection pool that backs Request.Agent
// (spec.md §3's opaque "agent" handle): a per-destination pool of idle
// TCP/TLS connections, adapted from the teacher's netpool/pool.go and
// utils/netpool/group.go.
package netpool

import (
	"context"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
)

// conn wraps a net.Conn with the bookkeeping a pool needs: whether it
// has been torn down, and whether it looks alive before reuse.
type conn struct {
	net.Conn
	closed atomic.Bool
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if err != nil {
		if err != io.EOF {
			log.Printf("netpool: error on write: %v", err)
		}
		c.Close()
	}
	return n, err
}

func (c *conn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if err != nil {
		if err != io.EOF {
			log.Printf("netpool: error on read: %v", err)
		}
		c.Close()
	}
	return n, err
}

func (c *conn) Close() error {
	err := c.Conn.Close()
	c.closed.Store(true)
	return err
}

func (c *conn) Available() bool {
	return !c.closed.Load() && !peerClosed(c.Conn)
}

// releaser is what callers actually hold: closing it returns the
// connection to the pool instead of tearing it down.
type releaser struct {
	p *Pool
	*conn
}

func (r releaser) Close() error {
	r.p.release(r.conn)
	return nil
}

// Abort hard-closes the connection instead of returning it to the
// pool. Callers that stop reading a response body before it reaches
// EOF can no longer trust where the wire framing of the next message
// would start, so the connection must not be handed back for reuse.
func (r releaser) Abort() error {
	r.conn.Close()
	r.p.release(r.conn)
	return nil
}

func (r releaser) Raw() net.Conn { return r.conn.Conn }

// Pool bounds concurrent and idle connections to one destination.
type Pool struct {
	connTicket chan struct{}
	idleTicket chan struct{}
	mu         sync.Mutex
	idle       []*conn
}

func newPool(maxIdle, maxConn uint) *Pool {
	return &Pool{
		connTicket: make(chan struct{}, maxConn),
		idleTicket: make(chan struct{}, maxIdle),
	}
}

// Connect returns an idle connection if one is alive and available,
// otherwise dials a fresh one via dial.
func (p *Pool) Connect(ctx context.Context, dial func(ctx context.Context) (net.Conn, error)) (io.ReadWriteCloser, error) {
	select {
	case p.connTicket <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	for {
		select {
		case <-p.idleTicket:
			p.mu.Lock()
			c := p.idle[len(p.idle)-1]
			p.idle = p.idle[:len(p.idle)-1]
			p.mu.Unlock()
			if c.Available() {
				return releaser{p, c}, nil
			}
			c.Close()
		default:
			raw, err := dial(ctx)
			if err != nil {
				<-p.connTicket
				return nil, err
			}
			return releaser{p, &conn{Conn: raw}}, nil
		}
	}
}

func (p *Pool) release(c *conn) {
	<-p.connTicket
	if c.closed.Load() {
		return
	}
	select {
	case p.idleTicket <- struct{}{}:
		p.mu.Lock()
		p.idle = append(p.idle, c)
		p.mu.Unlock()
	default:
		c.Close()
	}
}

// Group keys independent Pools by destination (host:port), mirroring
// the teacher's PoolGroup.
type Group struct {
	mu               sync.RWMutex
	pools            map[string]*Pool
	maxConn, maxIdle uint
}

func NewGroup(maxConn, maxIdle uint) *Group {
	return &Group{pools: map[string]*Pool{}, maxConn: maxConn, maxIdle: maxIdle}
}

func (g *Group) Connect(ctx context.Context, key string, dial func(ctx context.Context) (net.Conn, error)) (io.ReadWriteCloser, error) {
	g.mu.RLock()
	p, ok := g.pools[key]
	g.mu.RUnlock()
	if !ok {
		g.mu.Lock()
		if p, ok = g.pools[key]; !ok {
			p = newPool(g.maxIdle, g.maxConn)
			g.pools[key] = p
		}
		g.mu.Unlock()
	}
	return p.Connect(ctx, dial)
}
