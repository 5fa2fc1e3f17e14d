package socket

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/kstaniek/tradec/internal/frame"
	"github.com/kstaniek/tradec/internal/logging"
)

// connectBackoffMax bounds how long Connect retries a failing dial before
// giving up and returning the last error (spec §4.5: Auto transport probes
// TCP before falling back to UDP, so this must stay well under the probe's
// overall budget).
const connectBackoffMax = 750 * time.Millisecond

// TCP implements the length-prefixed framed transport described in spec
// §4.5. It is not safe for concurrent Send/Recv from multiple goroutines
// each, mirroring internal/server's one-reader-one-writer-per-conn model.
type TCP struct {
	mu      sync.Mutex
	conn    net.Conn
	rd      *frame.Reader
	addr    string
	scratch []byte
}

// NewTCP returns an unconnected TCP transport for addr ("host:port").
func NewTCP(addr string) *TCP {
	return &TCP{addr: addr, rd: frame.NewReader()}
}

// Connect dials addr, retrying with exponential backoff (bounded by
// connectBackoffMax) so a momentarily unready server doesn't fail the whole
// Auto-transport probe on its first attempt.
func (t *TCP) Connect(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxElapsedTime = connectBackoffMax

	var d net.Dialer
	var lastErr error
	op := func() error {
		conn, err := d.DialContext(ctx, "tcp", t.addr)
		if err != nil {
			lastErr = err
			return err
		}
		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		logging.L().Debug("tcp_connect_failed", "addr", t.addr, "error", lastErr)
		return fmt.Errorf("%w: %v", ErrDial, lastErr)
	}
	return nil
}

// IsConnected reports whether Connect has succeeded and Close has not since
// been called.
func (t *TCP) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Send frames payload with a 4-byte length prefix and writes it in full,
// retrying on short writes the way internal/server's writer does.
func (t *TCP) Send(payload []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConn
	}
	out := frame.EncodeFrame(payload)
	for written := 0; written < len(out); {
		n, err := conn.Write(out[written:])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		written += n
	}
	return nil
}

// Recv blocks (honoring ctx) until a full frame payload is available and
// returns it. The returned slice is only valid until the next Recv call.
func (t *TCP) Recv(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConn
	}
	for {
		msg, err := t.rd.NextMessage()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOversized, err)
		}
		if msg != nil {
			return msg, nil
		}
		if dl, ok := ctx.Deadline(); ok {
			_ = conn.SetReadDeadline(dl)
		} else {
			_ = conn.SetReadDeadline(time.Time{})
		}
		region := t.rd.WriteRegion()
		if len(region) == 0 {
			return nil, fmt.Errorf("%w: frame buffer exhausted", ErrOversized)
		}
		n, err := conn.Read(region)
		if n > 0 {
			t.rd.Advance(n)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRead, err)
		}
	}
}

// TryRecv is a non-blocking variant of Recv: timeout bounds how long it
// waits for new bytes to arrive (it never waits longer to finish a frame
// already in progress), returning (nil, nil) if nothing completes in time.
func (t *TCP) TryRecv(timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConn
	}
	if msg, err := t.rd.NextMessage(); msg != nil || err != nil {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOversized, err)
		}
		return msg, nil
	}
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	region := t.rd.WriteRegion()
	n, err := conn.Read(region)
	if n > 0 {
		t.rd.Advance(n)
	}
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	msg, err := t.rd.NextMessage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOversized, err)
	}
	return msg, nil
}

// Close closes the underlying connection, if any. It is idempotent.
func (t *TCP) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
