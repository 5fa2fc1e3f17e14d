package client

import "errors"

// Sentinel errors used for wrapping so callers can classify via errors.Is
// (same convention as internal/server's sentinels).
var (
	ErrConnect     = errors.New("connect")
	ErrProbeFailed = errors.New("protocol_probe_failed")
	ErrSend        = errors.New("send")
	ErrRecv        = errors.New("recv")
	ErrNotConnected = errors.New("not_connected")
)
