// Package csv implements the tolerant text wire format described in spec
// §4.3 and §6.2: comma-and-space separated ASCII lines, one per message.
package csv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kstaniek/tradec/internal/wire"
)

// Parse error sentinels (see spec §7 "Decode").
var (
	ErrEmptyMessage        = errors.New("csv: empty message")
	ErrUnknownMessageType  = errors.New("csv: unknown message type")
	ErrInsufficientFields  = errors.New("csv: insufficient fields")
	ErrInvalidNumber       = errors.New("csv: invalid number")
	ErrInvalidSide         = errors.New("csv: invalid side")
)

// MaxLen is the longest plausible formatted line; callers size staging
// buffers to at least this (spec §4.6 MAX_CSV_LEN).
const MaxLen = 128

// FormatNewOrder appends an "N, ..." line (with trailing "\n") to dst[:0] and
// returns the written slice.
func FormatNewOrder(dst []byte, userID uint32, symbol string, price, qty uint32, side wire.Side, orderID uint32) []byte {
	buf := dst[:0]
	buf = append(buf, 'N', ',', ' ')
	buf = strconv.AppendUint(buf, uint64(userID), 10)
	buf = append(buf, ',', ' ')
	buf = append(buf, symbol...)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(price), 10)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(qty), 10)
	buf = append(buf, ',', ' ')
	buf = append(buf, byte(side))
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(orderID), 10)
	buf = append(buf, '\n')
	return buf
}

// FormatCancel appends a "C, ..." line to dst[:0] and returns the written slice.
func FormatCancel(dst []byte, userID, orderID uint32) []byte {
	buf := dst[:0]
	buf = append(buf, 'C', ',', ' ')
	buf = strconv.AppendUint(buf, uint64(userID), 10)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(orderID), 10)
	buf = append(buf, '\n')
	return buf
}

// FormatFlush appends "F\n" to dst[:0] and returns the written slice.
func FormatFlush(dst []byte) []byte {
	buf := dst[:0]
	buf = append(buf, 'F', '\n')
	return buf
}

// FormatAck, FormatCancelAck, FormatTrade and FormatTopOfBook format the
// output-direction lines, the inverse of ParseOutput; they serve round-trip
// tests, and the client itself never sends them.

func FormatAck(dst []byte, m wire.Ack) []byte {
	return formatAckLike(dst, 'A', m.Symbol, m.UserID, m.UserOrderID)
}

func FormatCancelAck(dst []byte, m wire.CancelAck) []byte {
	return formatAckLike(dst, 'C', m.Symbol, m.UserID, m.UserOrderID)
}

func formatAckLike(dst []byte, tag byte, symbol string, userID, orderID uint32) []byte {
	buf := dst[:0]
	buf = append(buf, tag, ',', ' ')
	buf = append(buf, symbol...)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(userID), 10)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(orderID), 10)
	buf = append(buf, '\n')
	return buf
}

func FormatTrade(dst []byte, m wire.Trade) []byte {
	buf := dst[:0]
	buf = append(buf, 'T', ',', ' ')
	buf = append(buf, m.Symbol...)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(m.BuyUserID), 10)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(m.BuyOrderID), 10)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(m.SellUserID), 10)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(m.SellOrderID), 10)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(m.Price), 10)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(m.Quantity), 10)
	buf = append(buf, '\n')
	return buf
}

func FormatTopOfBook(dst []byte, m wire.TopOfBook) []byte {
	buf := dst[:0]
	buf = append(buf, 'B', ',', ' ')
	buf = append(buf, m.Symbol...)
	buf = append(buf, ',', ' ')
	buf = append(buf, byte(m.Side))
	buf = append(buf, ',', ' ')
	if m.Empty() {
		buf = append(buf, '-', ',', ' ', '-')
	} else {
		buf = strconv.AppendUint(buf, uint64(m.Price), 10)
		buf = append(buf, ',', ' ')
		buf = strconv.AppendUint(buf, uint64(m.Quantity), 10)
	}
	buf = append(buf, '\n')
	return buf
}

// ParseOutput trims line, splits on ",", trims each field, and dispatches on
// the first field's single-character kind tag.
func ParseOutput(line string) (wire.OutputMessage, error) {
	line = strings.Trim(line, " \t\r\n")
	if line == "" {
		return nil, ErrEmptyMessage
	}
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[0] == "" {
		return nil, ErrEmptyMessage
	}
	if len(fields[0]) != 1 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, fields[0])
	}
	switch fields[0][0] {
	case 'A':
		return parseAckLike(fields, func(symbol string, userID, orderID uint32) wire.OutputMessage {
			return wire.Ack{Symbol: symbol, UserID: userID, UserOrderID: orderID}
		})
	case 'C':
		return parseAckLike(fields, func(symbol string, userID, orderID uint32) wire.OutputMessage {
			return wire.CancelAck{Symbol: symbol, UserID: userID, UserOrderID: orderID}
		})
	case 'T':
		if len(fields) < 8 {
			return nil, fmt.Errorf("%w: trade needs 8 fields, got %d", ErrInsufficientFields, len(fields))
		}
		buyUser, err := parseUint(fields[2])
		if err != nil {
			return nil, err
		}
		buyOrder, err := parseUint(fields[3])
		if err != nil {
			return nil, err
		}
		sellUser, err := parseUint(fields[4])
		if err != nil {
			return nil, err
		}
		sellOrder, err := parseUint(fields[5])
		if err != nil {
			return nil, err
		}
		price, err := parseUintOrDash(fields[6])
		if err != nil {
			return nil, err
		}
		qty, err := parseUintOrDash(fields[7])
		if err != nil {
			return nil, err
		}
		return wire.Trade{
			Symbol:      fields[1],
			BuyUserID:   buyUser,
			BuyOrderID:  buyOrder,
			SellUserID:  sellUser,
			SellOrderID: sellOrder,
			Price:       price,
			Quantity:    qty,
		}, nil
	case 'B':
		if len(fields) < 5 {
			return nil, fmt.Errorf("%w: top-of-book needs 5 fields, got %d", ErrInsufficientFields, len(fields))
		}
		if len(fields[2]) != 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSide, fields[2])
		}
		side, err := wire.ParseSide(fields[2][0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSide, fields[2])
		}
		price, err := parseUintOrDash(fields[3])
		if err != nil {
			return nil, err
		}
		qty, err := parseUintOrDash(fields[4])
		if err != nil {
			return nil, err
		}
		return wire.TopOfBook{Symbol: fields[1], Side: side, Price: price, Quantity: qty}, nil
	case 'R':
		if len(fields) < 4 {
			return nil, fmt.Errorf("%w: reject needs 4 fields, got %d", ErrInsufficientFields, len(fields))
		}
		userID, err := parseUint(fields[2])
		if err != nil {
			return nil, err
		}
		orderID, err := parseUint(fields[3])
		if err != nil {
			return nil, err
		}
		return wire.Reject{Symbol: fields[1], UserID: userID, UserOrderID: orderID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, fields[0])
	}
}

func parseAckLike(fields []string, build func(symbol string, userID, orderID uint32) wire.OutputMessage) (wire.OutputMessage, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: needs 4 fields, got %d", ErrInsufficientFields, len(fields))
	}
	userID, err := parseUint(fields[2])
	if err != nil {
		return nil, err
	}
	orderID, err := parseUint(fields[3])
	if err != nil {
		return nil, err
	}
	return build(fields[1], userID, orderID), nil
}

func parseUint(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return uint32(n), nil
}

// parseUintOrDash treats the literal "-" as zero (spec §4.3: empty top-of-book side).
func parseUintOrDash(s string) (uint32, error) {
	if s == "-" {
		return 0, nil
	}
	return parseUint(s)
}
