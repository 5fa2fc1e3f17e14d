package client

import (
	"context"
	"net"
	"testing"
	"time"

	binarycodec "github.com/kstaniek/tradec/internal/codec/binary"
	"github.com/kstaniek/tradec/internal/frame"
	"github.com/kstaniek/tradec/internal/wire"
)

// startFakeEngine runs a minimal matching-engine stand-in: it replies to
// every NewOrder it decodes with an Ack using respond, echoing back whatever
// codec respond chooses regardless of what the client sent.
func startFakeEngine(t *testing.T, respond func(userOrderID uint32) []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		rd := frame.NewReader()
		for {
			msg, err := rd.NextMessage()
			if err != nil {
				return
			}
			if msg == nil {
				n, err := conn.Read(rd.WriteRegion())
				if err != nil {
					return
				}
				rd.Advance(n)
				continue
			}
			var orderID uint32
			if binarycodec.IsBinary(msg) && len(msg) >= 27 {
				orderID = uint32(msg[23])<<24 | uint32(msg[24])<<16 | uint32(msg[25])<<8 | uint32(msg[26])
			}
			reply := respond(orderID)
			if reply == nil {
				continue
			}
			if _, err := conn.Write(frame.EncodeFrame(reply)); err != nil {
				return
			}
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return ln.Addr().String()
}

func binaryAckReply(userOrderID uint32) []byte {
	return binarycodec.EncodeAck(wire.Ack{Symbol: "ZZPROBE", UserOrderID: userOrderID})
}

func TestClientProtocolProbeDetectsBinary(t *testing.T) {
	addr := startFakeEngine(t, binaryAckReply)
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	cfg := Config{Host: host, Port: mustAtoi(t, portStr), Transport: TCP, Protocol: AutoProtocol}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()
	if c.Protocol() != Binary {
		t.Fatalf("got protocol %v, want Binary", c.Protocol())
	}
}

func TestClientSendRecvBinary(t *testing.T) {
	addr := startFakeEngine(t, binaryAckReply)
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	cfg := Config{Host: host, Port: mustAtoi(t, portStr), Transport: TCP, Protocol: Binary}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	if err := c.SendNewOrder(1, "IBM", 100, 10, wire.Buy, 42); err != nil {
		t.Fatalf("send new order: %v", err)
	}
	out, err := c.Recv(ctx)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	ack, ok := out.(wire.Ack)
	if !ok {
		t.Fatalf("got %T, want wire.Ack", out)
	}
	if ack.UserOrderID != 42 {
		t.Fatalf("got order id %d, want 42", ack.UserOrderID)
	}

	snap := c.Stats()
	if snap.SentNewOrder != 1 || snap.Received != 1 {
		t.Fatalf("unexpected stats: %+v", snap)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Host: "", Port: 1}).Validate(); err == nil {
		t.Fatalf("expected error for empty host")
	}
	if err := (Config{Host: "x", Port: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero port")
	}
	if err := (Config{Host: "x", Port: 1}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			t.Fatalf("not numeric: %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n
}
