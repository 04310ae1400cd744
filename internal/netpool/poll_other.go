//go:build !linux && !darwin

package netpool

import "net"

// peerClosed has no portable non-blocking readability check on this
// platform, so idle connections are optimistically assumed reusable —
// the same fallback shape as the teacher's nettools.picked default.
func peerClosed(c net.Conn) bool { return false }
