package socket

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// maxDatagram is large enough for any message this protocol defines; UDP
// carries no framing, so each Send/Recv call is exactly one datagram (spec §4.5).
const maxDatagram = 2048

// UDP implements the unframed datagram transport described in spec §4.5.
type UDP struct {
	mu      sync.Mutex
	conn    *net.UDPConn
	addr    string
	scratch [maxDatagram]byte
}

// NewUDP returns an unconnected UDP transport for addr ("host:port").
func NewUDP(addr string) *UDP {
	return &UDP{addr: addr}
}

// Connect resolves addr and "connects" the UDP socket so Write/Read can be
// used without repeating the peer address on every call.
func (u *UDP) Connect(ctx context.Context) error {
	raddr, err := net.ResolveUDPAddr("udp", u.addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDial, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDial, err)
	}
	u.mu.Lock()
	u.conn = conn
	u.mu.Unlock()
	return nil
}

// IsConnected reports whether Connect has succeeded and Close has not since
// been called.
func (u *UDP) IsConnected() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.conn != nil
}

// Send writes payload as a single datagram.
func (u *UDP) Send(payload []byte) error {
	u.mu.Lock()
	conn := u.conn
	u.mu.Unlock()
	if conn == nil {
		return ErrNotConn
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Recv blocks (honoring ctx's deadline, if any) for the next datagram and
// returns a copy of its payload.
func (u *UDP) Recv(ctx context.Context) ([]byte, error) {
	u.mu.Lock()
	conn := u.conn
	u.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConn
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}
	n, err := conn.Read(u.scratch[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	out := make([]byte, n)
	copy(out, u.scratch[:n])
	return out, nil
}

// TryRecv is a bounded variant of Recv: it waits at most timeout for the
// next datagram and returns (nil, nil) if none arrives in time.
func (u *UDP) TryRecv(timeout time.Duration) ([]byte, error) {
	u.mu.Lock()
	conn := u.conn
	u.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConn
	}
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	n, err := conn.Read(u.scratch[:])
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	out := make([]byte, n)
	copy(out, u.scratch[:n])
	return out, nil
}

// Close closes the underlying socket, if any. It is idempotent.
func (u *UDP) Close() error {
	u.mu.Lock()
	conn := u.conn
	u.conn = nil
	u.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
