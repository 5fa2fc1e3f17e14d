package socket

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

func startEchoUDP(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	go func() {
		buf := make([]byte, 2048)
		for {
			n, raddr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			_, _ = conn.WriteToUDP(buf[:n], raddr)
		}
	}()
	t.Cleanup(func() { _ = conn.Close() })
	return conn.LocalAddr().String()
}

func TestUDPSendRecvRoundTrip(t *testing.T) {
	addr := startEchoUDP(t)
	u := NewUDP(addr)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := u.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer u.Close()

	if err := u.Send([]byte("ping")); err != nil {
		t.Fatalf("send: %v", err)
	}
	msg, err := u.Recv(ctx)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if !bytes.Equal(msg, []byte("ping")) {
		t.Fatalf("got %q, want %q", msg, "ping")
	}
}

func TestUDPTryRecvTimesOutWhenIdle(t *testing.T) {
	addr := startEchoUDP(t)
	u := NewUDP(addr)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := u.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer u.Close()

	msg, err := u.TryRecv(5 * time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != nil {
		t.Fatalf("expected nil message, got %q", msg)
	}
}
