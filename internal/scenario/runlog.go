package scenario

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/kstaniek/tradec/internal/logging"
	"github.com/kstaniek/tradec/internal/transport"
)

// runLogBuffer bounds how many log lines may queue before Write starts
// dropping them; a slow disk must never stall a scenario's send/drain loop.
const runLogBuffer = 4096

// RunLog is an optional, non-blocking sink for a scenario's per-message
// trace. Lines are funnelled through internal/transport.AsyncTx so a slow
// disk (or slow zstd compressor) never stalls the scenario loop that calls
// Write; a full buffer simply drops the line and counts it.
type RunLog struct {
	tx      *transport.AsyncTx[string]
	closer  io.Closer
	dropped int
}

// OpenRunLog opens path for the scenario's run log. A path ending in ".zst"
// is written through a streaming zstd encoder (klauspost/compress); any
// other path is written as plain text. An empty path returns a RunLog whose
// Write is a no-op, so callers can always construct one unconditionally.
func OpenRunLog(path string) (*RunLog, error) {
	if path == "" {
		return &RunLog{}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}

	var w io.Writer = f
	closer := io.Closer(f)
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("runlog: zstd writer: %w", err)
		}
		w = enc
		closer = multiCloser{enc, f}
	}

	rl := &RunLog{closer: closer}
	rl.tx = transport.NewAsyncTx(context.Background(), runLogBuffer, func(line string) error {
		_, err := io.WriteString(w, line)
		return err
	}, transport.Hooks[string]{
		OnDrop: func() error {
			rl.dropped++
			return nil
		},
		OnError: func(err error) {
			logging.L().Error("runlog_write_error", "error", err)
		},
	})
	return rl, nil
}

// Write enqueues line (without a trailing newline; Write appends one) for
// the background writer. It never blocks: if the buffer is full the line is
// dropped and counted.
func (rl *RunLog) Write(line string) {
	if rl.tx == nil {
		return
	}
	_ = rl.tx.Send(line + "\n")
}

// Dropped returns how many lines were dropped due to a full buffer.
func (rl *RunLog) Dropped() int { return rl.dropped }

// Close flushes and closes the run log, if one was opened.
func (rl *RunLog) Close() error {
	if rl.tx != nil {
		rl.tx.Close()
	}
	if rl.closer != nil {
		return rl.closer.Close()
	}
	return nil
}

// multiCloser closes each io.Closer in order, stopping at (and returning)
// the first error, the way the zstd encoder must be closed before the
// underlying file it wraps.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	for _, c := range m {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}
