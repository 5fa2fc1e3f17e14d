// Package binary implements the packed wire codec described in spec §4.2 and
// §6.1: fixed-size, big-endian messages beginning with the magic byte 0x4D
// and a one-byte kind discriminator. Encoding never allocates beyond the
// returned slice; decoding allocates the symbol string and the boxed
// OutputMessage value.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/kstaniek/tradec/internal/wire"
)

// Decode error sentinels (see spec §7 "Decode").
var (
	ErrInvalidMagic = errors.New("binary: invalid magic byte")
	ErrUnknownKind  = errors.New("binary: unknown message kind")
	ErrTruncated    = errors.New("binary: truncated message")
)

// IsBinary reports whether b looks like a binary-framed message: at least
// one byte, and the first byte is the magic.
func IsBinary(b []byte) bool {
	return len(b) >= 1 && b[0] == wire.Magic
}

// EncodeNewOrder returns the 30-byte wire image of m.
func EncodeNewOrder(m wire.NewOrder) []byte {
	buf := make([]byte, wire.Size[wire.KindNewOrder])
	buf[0] = wire.Magic
	buf[1] = byte(wire.KindNewOrder)
	binary.BigEndian.PutUint32(buf[2:6], m.UserID)
	wire.PutSymbol(buf[6:14], m.Symbol)
	binary.BigEndian.PutUint32(buf[14:18], m.Price)
	binary.BigEndian.PutUint32(buf[18:22], m.Quantity)
	buf[22] = byte(m.Side)
	binary.BigEndian.PutUint32(buf[23:27], m.UserOrderID)
	// buf[27:30] left zero (pad)
	return buf
}

// EncodeCancel returns the 11-byte wire image of m (canonical symbol-less form).
func EncodeCancel(m wire.Cancel) []byte {
	buf := make([]byte, wire.Size[wire.KindCancel])
	buf[0] = wire.Magic
	buf[1] = byte(wire.KindCancel)
	binary.BigEndian.PutUint32(buf[2:6], m.UserID)
	binary.BigEndian.PutUint32(buf[6:10], m.UserOrderID)
	// buf[10] left zero (pad)
	return buf
}

// EncodeFlush returns the 2-byte wire image of a Flush message.
func EncodeFlush() []byte {
	return []byte{wire.Magic, byte(wire.KindFlush)}
}

// DecodeOutput inspects the magic byte and kind discriminator of b and
// decodes the corresponding output message. The returned value is a plain
// struct copied out of b (it does not alias b); its symbol string and the
// interface value holding it are heap-allocated.
func DecodeOutput(b []byte) (wire.OutputMessage, error) {
	if !IsBinary(b) {
		return nil, ErrInvalidMagic
	}
	if len(b) < 2 {
		return nil, ErrTruncated
	}
	k := wire.Kind(b[1])
	size, known := wire.Size[k]
	switch k {
	case wire.KindAck, wire.KindCancelAck, wire.KindTrade, wire.KindTopOfBook, wire.KindReject:
		if !known {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	if len(b) < size {
		return nil, ErrTruncated
	}
	switch k {
	case wire.KindAck:
		return wire.Ack{
			Symbol:      wire.Symbol(b[2:10]),
			UserID:      binary.BigEndian.Uint32(b[10:14]),
			UserOrderID: binary.BigEndian.Uint32(b[14:18]),
		}, nil
	case wire.KindCancelAck:
		return wire.CancelAck{
			Symbol:      wire.Symbol(b[2:10]),
			UserID:      binary.BigEndian.Uint32(b[10:14]),
			UserOrderID: binary.BigEndian.Uint32(b[14:18]),
		}, nil
	case wire.KindTrade:
		return wire.Trade{
			Symbol:      wire.Symbol(b[2:10]),
			BuyUserID:   binary.BigEndian.Uint32(b[10:14]),
			BuyOrderID:  binary.BigEndian.Uint32(b[14:18]),
			SellUserID:  binary.BigEndian.Uint32(b[18:22]),
			SellOrderID: binary.BigEndian.Uint32(b[22:26]),
			Price:       binary.BigEndian.Uint32(b[26:30]),
			Quantity:    binary.BigEndian.Uint32(b[30:34]),
		}, nil
	case wire.KindTopOfBook:
		side, err := wire.ParseSide(b[10])
		if err != nil {
			return nil, fmt.Errorf("binary: top of book: %w", err)
		}
		return wire.TopOfBook{
			Symbol:   wire.Symbol(b[2:10]),
			Side:     side,
			Price:    binary.BigEndian.Uint32(b[12:16]),
			Quantity: binary.BigEndian.Uint32(b[16:20]),
		}, nil
	case wire.KindReject:
		return wire.Reject{
			Symbol:      wire.Symbol(b[2:10]),
			UserID:      binary.BigEndian.Uint32(b[10:14]),
			UserOrderID: binary.BigEndian.Uint32(b[14:18]),
			Reason:      b[18],
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
}

// EncodeAck, EncodeCancelAck, EncodeTrade, EncodeTopOfBook and EncodeReject
// round out the codec for tests and test stand-in servers that build server
// replies and assert decode(encode(m)) == m; the client itself never sends
// them.

func EncodeAck(m wire.Ack) []byte       { return encodeAckLike(wire.KindAck, m.Symbol, m.UserID, m.UserOrderID) }
func EncodeCancelAck(m wire.CancelAck) []byte {
	return encodeAckLike(wire.KindCancelAck, m.Symbol, m.UserID, m.UserOrderID)
}

func encodeAckLike(k wire.Kind, symbol string, userID, orderID uint32) []byte {
	buf := make([]byte, wire.Size[k])
	buf[0] = wire.Magic
	buf[1] = byte(k)
	wire.PutSymbol(buf[2:10], symbol)
	binary.BigEndian.PutUint32(buf[10:14], userID)
	binary.BigEndian.PutUint32(buf[14:18], orderID)
	return buf
}

func EncodeTrade(m wire.Trade) []byte {
	buf := make([]byte, wire.Size[wire.KindTrade])
	buf[0] = wire.Magic
	buf[1] = byte(wire.KindTrade)
	wire.PutSymbol(buf[2:10], m.Symbol)
	binary.BigEndian.PutUint32(buf[10:14], m.BuyUserID)
	binary.BigEndian.PutUint32(buf[14:18], m.BuyOrderID)
	binary.BigEndian.PutUint32(buf[18:22], m.SellUserID)
	binary.BigEndian.PutUint32(buf[22:26], m.SellOrderID)
	binary.BigEndian.PutUint32(buf[26:30], m.Price)
	binary.BigEndian.PutUint32(buf[30:34], m.Quantity)
	return buf
}

func EncodeTopOfBook(m wire.TopOfBook) []byte {
	buf := make([]byte, wire.Size[wire.KindTopOfBook])
	buf[0] = wire.Magic
	buf[1] = byte(wire.KindTopOfBook)
	wire.PutSymbol(buf[2:10], m.Symbol)
	buf[10] = byte(m.Side)
	// buf[11] pad
	binary.BigEndian.PutUint32(buf[12:16], m.Price)
	binary.BigEndian.PutUint32(buf[16:20], m.Quantity)
	return buf
}

func EncodeReject(m wire.Reject) []byte {
	buf := make([]byte, wire.Size[wire.KindReject])
	buf[0] = wire.Magic
	buf[1] = byte(wire.KindReject)
	wire.PutSymbol(buf[2:10], m.Symbol)
	binary.BigEndian.PutUint32(buf[10:14], m.UserID)
	binary.BigEndian.PutUint32(buf[14:18], m.UserOrderID)
	buf[18] = m.Reason
	return buf
}

func init() {
	// Startup self-test (spec §4.1): fail fast if the hand-packed encoders
	// drift from the documented fixed sizes.
	checks := []struct {
		k    wire.Kind
		want int
		got  int
	}{
		{wire.KindNewOrder, wire.Size[wire.KindNewOrder], len(EncodeNewOrder(wire.NewOrder{Symbol: "X"}))},
		{wire.KindCancel, wire.Size[wire.KindCancel], len(EncodeCancel(wire.Cancel{}))},
		{wire.KindFlush, wire.Size[wire.KindFlush], len(EncodeFlush())},
		{wire.KindAck, wire.Size[wire.KindAck], len(EncodeAck(wire.Ack{Symbol: "X"}))},
		{wire.KindCancelAck, wire.Size[wire.KindCancelAck], len(EncodeCancelAck(wire.CancelAck{Symbol: "X"}))},
		{wire.KindTrade, wire.Size[wire.KindTrade], len(EncodeTrade(wire.Trade{Symbol: "X"}))},
		{wire.KindTopOfBook, wire.Size[wire.KindTopOfBook], len(EncodeTopOfBook(wire.TopOfBook{Symbol: "X", Side: wire.Buy}))},
		{wire.KindReject, wire.Size[wire.KindReject], len(EncodeReject(wire.Reject{Symbol: "X"}))},
	}
	for _, c := range checks {
		if c.got != c.want {
			panic(fmt.Sprintf("binary codec: %v layout is %d bytes, want %d", c.k, c.got, c.want))
		}
	}
}
