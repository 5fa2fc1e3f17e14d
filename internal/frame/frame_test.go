package frame

import (
	"bytes"
	"testing"
)

func TestReaderReassemblesAcrossReads(t *testing.T) {
	r := NewReader()
	whole := EncodeFrame([]byte("hello"))

	// Feed the frame in awkward, arbitrary-sized chunks; the payload must
	// come out exactly once, as soon as its last byte has arrived.
	chunks := [][]byte{whole[:1], whole[1:3], whole[3:]}
	var msg []byte
	for _, c := range chunks {
		region := r.WriteRegion()
		n := copy(region, c)
		if n != len(c) {
			t.Fatalf("write region too small: got %d, want %d", n, len(c))
		}
		r.Advance(n)

		got, err := r.NextMessage()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil && !bytes.Equal(got, []byte("hello")) {
			t.Fatalf("got early/garbled message %q", got)
		}
		if got != nil {
			if msg != nil {
				t.Fatalf("frame delivered twice")
			}
			msg = got
		}
	}

	if extra, err := r.NextMessage(); extra != nil || err != nil {
		t.Fatalf("expected drained reader, got msg=%q err=%v", extra, err)
	}
	if !bytes.Equal(msg, []byte("hello")) {
		t.Fatalf("got %q, want %q", msg, "hello")
	}
}

func TestReaderMultipleFramesInOneWrite(t *testing.T) {
	r := NewReader()
	var buf bytes.Buffer
	buf.Write(EncodeFrame([]byte("a")))
	buf.Write(EncodeFrame([]byte("bb")))
	buf.Write(EncodeFrame([]byte("ccc")))

	region := r.WriteRegion()
	n := copy(region, buf.Bytes())
	r.Advance(n)

	want := []string{"a", "bb", "ccc"}
	for _, w := range want {
		msg, err := r.NextMessage()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(msg) != w {
			t.Fatalf("got %q, want %q", msg, w)
		}
	}
	if msg, err := r.NextMessage(); msg != nil || err != nil {
		t.Fatalf("expected drained reader, got msg=%q err=%v", msg, err)
	}
}

func TestReaderOversizedFramePoisons(t *testing.T) {
	r := NewReader()
	hdr := []byte{0xFF, 0xFF, 0xFF, 0xFF} // N far beyond MaxPayload
	region := r.WriteRegion()
	n := copy(region, hdr)
	r.Advance(n)

	if _, err := r.NextMessage(); err != ErrOversizedFrame {
		t.Fatalf("got err=%v, want ErrOversizedFrame", err)
	}
	if !r.Poisoned() {
		t.Fatalf("expected reader to be poisoned")
	}
	if _, err := r.NextMessage(); err != ErrOversizedFrame {
		t.Fatalf("poisoned reader should keep returning ErrOversizedFrame, got %v", err)
	}
}

func TestReaderIncompleteHeaderWaits(t *testing.T) {
	r := NewReader()
	region := r.WriteRegion()
	n := copy(region, []byte{0, 0})
	r.Advance(n)

	msg, err := r.NextMessage()
	if msg != nil || err != nil {
		t.Fatalf("expected (nil, nil) on incomplete header, got msg=%q err=%v", msg, err)
	}
}
