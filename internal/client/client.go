// Package client composes a socket transport with a wire codec behind the
// unified engine-client API described in spec §4.6: transport/protocol
// auto-discovery, send/recv with saturating stats, and a pre-allocated CSV
// staging buffer.
package client

import (
	"context"
	"fmt"
	"time"

	binarycodec "github.com/kstaniek/tradec/internal/codec/binary"
	csvcodec "github.com/kstaniek/tradec/internal/codec/csv"
	"github.com/kstaniek/tradec/internal/discovery"
	"github.com/kstaniek/tradec/internal/logging"
	"github.com/kstaniek/tradec/internal/metrics"
	"github.com/kstaniek/tradec/internal/satcount"
	"github.com/kstaniek/tradec/internal/socket"
	"github.com/kstaniek/tradec/internal/wire"
)

// wireTransport is the subset of socket.TCP / socket.UDP the client needs.
// Both concrete types satisfy it identically, which is what lets Client stay
// agnostic of which one Auto-transport discovery picked.
type wireTransport interface {
	Connect(ctx context.Context) error
	Send([]byte) error
	Recv(ctx context.Context) ([]byte, error)
	TryRecv(timeout time.Duration) ([]byte, error)
	IsConnected() bool
	Close() error
}

var (
	_ wireTransport = (*socket.TCP)(nil)
	_ wireTransport = (*socket.UDP)(nil)
)

// Client is the unified engine-client surface.
type Client struct {
	cfg      Config
	tr       wireTransport
	isTCP    bool
	protocol Protocol // resolved: Binary or CSV, never AutoProtocol
	csvBuf   []byte
	stats    Stats
}

// New validates cfg, resolves an empty host via mDNS discovery, connects
// (running transport/protocol auto-discovery as configured), and returns a
// ready-to-use Client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Host == "" {
		host, port, err := discovery.Lookup(ctx)
		if err != nil {
			return nil, fmt.Errorf("client: discovery: %w", err)
		}
		cfg.Host, cfg.Port = host, port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg, csvBuf: make([]byte, 0, csvcodec.MaxLen)}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	switch cfg.Transport {
	case TCP:
		tr := socket.NewTCP(addr)
		if err := tr.Connect(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnect, err)
		}
		c.tr, c.isTCP = tr, true
	case UDP:
		tr := socket.NewUDP(addr)
		if err := tr.Connect(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnect, err)
		}
		c.tr, c.isTCP = tr, false
	case AutoTransport:
		tcp := socket.NewTCP(addr)
		if err := tcp.Connect(ctx); err == nil {
			c.tr, c.isTCP = tcp, true
		} else {
			logging.L().Debug("tcp_connect_refused_falling_back_to_udp", "addr", addr, "error", err)
			udp := socket.NewUDP(addr)
			if err := udp.Connect(ctx); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrConnect, err)
			}
			c.tr, c.isTCP = udp, false
		}
	default:
		return nil, fmt.Errorf("%w: unknown transport %v", ErrInvalidConfig, cfg.Transport)
	}

	switch cfg.Protocol {
	case Binary, CSV:
		c.protocol = cfg.Protocol
	case AutoProtocol:
		if !c.isTCP {
			// spec §4.6: UDP has no response path to probe, default to CSV.
			c.protocol = CSV
		} else {
			p, err := c.probeProtocol(ctx)
			if err != nil {
				_ = c.tr.Close()
				return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
			}
			c.protocol = p
		}
	default:
		return nil, fmt.Errorf("%w: unknown protocol %v", ErrInvalidConfig, cfg.Protocol)
	}

	logging.L().Info("client_ready", "addr", addr, "transport", map[bool]string{true: "tcp", false: "udp"}[c.isTCP], "protocol", c.protocol)
	return c, nil
}

// Protocol reports the resolved wire protocol (never AutoProtocol).
func (c *Client) Protocol() Protocol { return c.protocol }

// IsTCP reports whether the resolved transport is TCP.
func (c *Client) IsTCP() bool { return c.isTCP }

// Stats returns a point-in-time snapshot of send/receive counters.
func (c *Client) Stats() Snapshot { return c.stats.snapshot() }

// SendNewOrder encodes and sends a NewOrder message per the resolved protocol.
func (c *Client) SendNewOrder(userID uint32, symbol string, price, qty uint32, side wire.Side, orderID uint32) error {
	var payload []byte
	switch c.protocol {
	case Binary:
		payload = binarycodec.EncodeNewOrder(wire.NewOrder{
			UserID: userID, Symbol: symbol, Price: price, Quantity: qty, Side: side, UserOrderID: orderID,
		})
	default:
		payload = csvcodec.FormatNewOrder(c.csvBuf[:0], userID, symbol, price, qty, side, orderID)
	}
	if err := c.send(payload); err != nil {
		return err
	}
	satcount.Inc(&c.stats.SentNewOrder)
	metrics.IncSentNewOrder()
	return nil
}

// SendCancel encodes and sends a Cancel message. symbol is accepted for API
// symmetry with SendNewOrder but is not part of the canonical wire form
// (spec §6.1 note: the symbol-less 11-byte Cancel is canonical).
func (c *Client) SendCancel(userID uint32, symbol string, orderID uint32) error {
	_ = symbol
	var payload []byte
	switch c.protocol {
	case Binary:
		payload = binarycodec.EncodeCancel(wire.Cancel{UserID: userID, UserOrderID: orderID})
	default:
		payload = csvcodec.FormatCancel(c.csvBuf[:0], userID, orderID)
	}
	if err := c.send(payload); err != nil {
		return err
	}
	satcount.Inc(&c.stats.SentCancel)
	metrics.IncSentCancel()
	return nil
}

// SendFlush encodes and sends a Flush message.
func (c *Client) SendFlush() error {
	var payload []byte
	switch c.protocol {
	case Binary:
		payload = binarycodec.EncodeFlush()
	default:
		payload = csvcodec.FormatFlush(c.csvBuf[:0])
	}
	if err := c.send(payload); err != nil {
		return err
	}
	satcount.Inc(&c.stats.SentFlush)
	metrics.IncSentFlush()
	return nil
}

func (c *Client) send(payload []byte) error {
	if err := c.tr.Send(payload); err != nil {
		satcount.Inc(&c.stats.SendErrors)
		metrics.IncError(metrics.ErrSend)
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	return nil
}

// Recv blocks for the next message and decodes it, auto-detecting the codec
// from the first byte so mixed binary/CSV replies are tolerated.
func (c *Client) Recv(ctx context.Context) (wire.OutputMessage, error) {
	raw, err := c.tr.Recv(ctx)
	if err != nil {
		satcount.Inc(&c.stats.RecvErrors)
		metrics.IncError(metrics.ErrRecv)
		return nil, fmt.Errorf("%w: %v", ErrRecv, err)
	}
	return c.decode(raw)
}

// TryRecv is a non-blocking variant of Recv. It returns (nil, nil) if no
// message is available within timeout.
func (c *Client) TryRecv(timeout time.Duration) (wire.OutputMessage, error) {
	raw, err := c.tr.TryRecv(timeout)
	if err != nil {
		satcount.Inc(&c.stats.RecvErrors)
		metrics.IncError(metrics.ErrRecv)
		return nil, fmt.Errorf("%w: %v", ErrRecv, err)
	}
	if raw == nil {
		return nil, nil
	}
	return c.decode(raw)
}

// TryRecvRaw is a non-blocking transport-level read with no decoding: it
// returns the raw frame/datagram payload, or (nil,nil) if nothing arrived
// within timeout. Of Client's stats it counts only RecvErrors; Received is
// not incremented. Drain primitives in internal/scenario
// use this so a single malformed line doesn't abort a drain loop the way a
// decode error returned from TryRecv would.
func (c *Client) TryRecvRaw(timeout time.Duration) ([]byte, error) {
	raw, err := c.tr.TryRecv(timeout)
	if err != nil {
		satcount.Inc(&c.stats.RecvErrors)
		metrics.IncError(metrics.ErrRecv)
		return nil, fmt.Errorf("%w: %v", ErrRecv, err)
	}
	return raw, nil
}

// DecodeMessage decodes a raw frame/datagram payload, auto-detecting the
// codec from its first byte. It does not touch Client's stats; callers that
// want stats bookkeeping should use Recv/TryRecv instead.
func (c *Client) DecodeMessage(raw []byte) (wire.OutputMessage, error) {
	if binarycodec.IsBinary(raw) {
		return binarycodec.DecodeOutput(raw)
	}
	return csvcodec.ParseOutput(string(raw))
}

func (c *Client) decode(raw []byte) (wire.OutputMessage, error) {
	var (
		msg wire.OutputMessage
		err error
	)
	if binarycodec.IsBinary(raw) {
		msg, err = binarycodec.DecodeOutput(raw)
	} else {
		msg, err = csvcodec.ParseOutput(string(raw))
	}
	if err != nil {
		metrics.IncParseError()
		return nil, err
	}
	satcount.Inc(&c.stats.Received)
	countByKind(msg)
	return msg, nil
}

func countByKind(msg wire.OutputMessage) {
	switch msg.(type) {
	case wire.Ack:
		metrics.IncRecvAck()
	case wire.CancelAck:
		metrics.IncRecvCancelAck()
	case wire.Trade:
		metrics.IncRecvTrade()
	case wire.TopOfBook:
		metrics.IncRecvTopOfBook()
	case wire.Reject:
		metrics.IncRecvReject()
	}
}

// Close releases the underlying transport.
func (c *Client) Close() error { return c.tr.Close() }
