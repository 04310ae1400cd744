//go:build linux || darwin

package netpool

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// peerClosed non-blockingly polls c for read-readiness: a raw TCP
// connection that has gone idle but become readable almost always
// means the peer half-closed it, so it is not safe to reuse. Adapted
// from the teacher's utils/nettools/net_poll.go, trimmed to the single
// poll(2)-based check this pool needs (no epoll/select fallback ladder).
func peerClosed(c net.Conn) bool {
	sc, ok := unwrapSyscallConn(c)
	if !ok {
		return false
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return false
	}
	var readable bool
	err = raw.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, perr := unix.Poll(fds, 0)
		readable = perr == nil && n > 0 && fds[0].Revents&unix.POLLIN != 0
	})
	return err == nil && readable
}

func unwrapSyscallConn(c net.Conn) (syscall.Conn, bool) {
	if t, ok := c.(interface{ NetConn() net.Conn }); ok {
		c = t.NetConn()
	}
	sc, ok := c.(syscall.Conn)
	return sc, ok
}
