package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestRunLogEmptyPathIsNoOp(t *testing.T) {
	rl, err := OpenRunLog("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rl.Write("line one")
	if err := rl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunLogPlainTextRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	rl, err := OpenRunLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rl.Write("first")
	rl.Write("second")
	if err := rl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "first\n") || !strings.Contains(got, "second\n") {
		t.Fatalf("unexpected log contents: %q", got)
	}
}

func TestRunLogZstdRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log.zst")
	rl, err := OpenRunLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rl.Write("compressed line")
	if err := rl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	defer dec.Close()
	plain, err := dec.DecodeAll(data, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(string(plain), "compressed line\n") {
		t.Fatalf("unexpected decompressed contents: %q", plain)
	}
}
