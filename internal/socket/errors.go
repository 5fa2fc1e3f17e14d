package socket

import "errors"

// Sentinel errors used for wrapping so callers can classify via errors.Is
// (same convention as internal/server's sentinels).
var (
	ErrDial      = errors.New("dial")
	ErrNotConn   = errors.New("not_connected")
	ErrWrite     = errors.New("conn_write")
	ErrRead      = errors.New("conn_read")
	ErrOversized = errors.New("oversized_frame")
)
