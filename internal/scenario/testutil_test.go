package scenario

import (
	"context"
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	binarycodec "github.com/kstaniek/tradec/internal/codec/binary"
	"github.com/kstaniek/tradec/internal/client"
	"github.com/kstaniek/tradec/internal/frame"
	"github.com/kstaniek/tradec/internal/wire"
)

// restingOrder is one resting book entry held by the fake matching engine.
type restingOrder struct {
	userID, orderID, price, quantity uint32
}

// symbolBook holds resting buy/sell queues for one symbol. Matching is
// price-blind FIFO: enough for these scenarios, which only ever cross
// orders placed at the same price.
type symbolBook struct {
	buys, sells []restingOrder
}

// fakeEngine is a minimal, single-goroutine matching-engine stand-in good
// enough to drive the scenario strategies' send/drain loops: it acks every
// order, matches against the resting book, and emits a Trade plus two
// TopOfBook updates on a cross, or one TopOfBook update when an order rests.
type fakeEngine struct {
	mu    sync.Mutex
	books map[string]*symbolBook
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{books: make(map[string]*symbolBook)}
}

func (e *fakeEngine) bookFor(symbol string) *symbolBook {
	b, ok := e.books[symbol]
	if !ok {
		b = &symbolBook{}
		e.books[symbol] = b
	}
	return b
}

func (e *fakeEngine) handleNewOrder(no wire.NewOrder) [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	replies := [][]byte{binarycodec.EncodeAck(wire.Ack{Symbol: no.Symbol, UserID: no.UserID, UserOrderID: no.UserOrderID})}
	book := e.bookFor(no.Symbol)

	if no.Side == wire.Buy {
		if len(book.sells) > 0 {
			opp := book.sells[0]
			book.sells = book.sells[1:]
			replies = append(replies,
				binarycodec.EncodeTrade(wire.Trade{Symbol: no.Symbol, BuyUserID: no.UserID, BuyOrderID: no.UserOrderID, SellUserID: opp.userID, SellOrderID: opp.orderID, Price: no.Price, Quantity: no.Quantity}),
				binarycodec.EncodeTopOfBook(wire.TopOfBook{Symbol: no.Symbol, Side: wire.Buy}),
				binarycodec.EncodeTopOfBook(wire.TopOfBook{Symbol: no.Symbol, Side: wire.Sell}),
			)
			return replies
		}
		book.buys = append(book.buys, restingOrder{userID: no.UserID, orderID: no.UserOrderID, price: no.Price, quantity: no.Quantity})
		replies = append(replies, binarycodec.EncodeTopOfBook(wire.TopOfBook{Symbol: no.Symbol, Side: wire.Buy, Price: no.Price, Quantity: no.Quantity}))
		return replies
	}

	if len(book.buys) > 0 {
		opp := book.buys[0]
		book.buys = book.buys[1:]
		replies = append(replies,
			binarycodec.EncodeTrade(wire.Trade{Symbol: no.Symbol, BuyUserID: opp.userID, BuyOrderID: opp.orderID, SellUserID: no.UserID, SellOrderID: no.UserOrderID, Price: no.Price, Quantity: no.Quantity}),
			binarycodec.EncodeTopOfBook(wire.TopOfBook{Symbol: no.Symbol, Side: wire.Buy}),
			binarycodec.EncodeTopOfBook(wire.TopOfBook{Symbol: no.Symbol, Side: wire.Sell}),
		)
		return replies
	}
	book.sells = append(book.sells, restingOrder{userID: no.UserID, orderID: no.UserOrderID, price: no.Price, quantity: no.Quantity})
	replies = append(replies, binarycodec.EncodeTopOfBook(wire.TopOfBook{Symbol: no.Symbol, Side: wire.Sell, Price: no.Price, Quantity: no.Quantity}))
	return replies
}

// decodeNewOrder parses the 30-byte wire image the client's binary codec
// produces. The engine only ever needs to read NewOrder, never Cancel or
// Flush, since none of the scenario strategies validate cancel responses.
func decodeNewOrder(b []byte) (wire.NewOrder, bool) {
	if len(b) < int(wire.Size[wire.KindNewOrder]) || wire.Kind(b[1]) != wire.KindNewOrder {
		return wire.NewOrder{}, false
	}
	return wire.NewOrder{
		UserID:      binary.BigEndian.Uint32(b[2:6]),
		Symbol:      wire.Symbol(b[6:14]),
		Price:       binary.BigEndian.Uint32(b[14:18]),
		Quantity:    binary.BigEndian.Uint32(b[18:22]),
		Side:        wire.Side(b[22]),
		UserOrderID: binary.BigEndian.Uint32(b[23:27]),
	}, true
}

// startFakeMatchingEngine runs one fakeEngine behind a TCP listener, handling
// exactly one connection for the lifetime of the test.
func startFakeMatchingEngine(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	engine := newFakeEngine()
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
			no, ok := decodeNewOrder(msg)
			if !ok {
				continue // Cancel/Flush: no reply needed by these scenarios
			}
			for _, reply := range engine.handleNewOrder(no) {
				if _, err := conn.Write(frame.EncodeFrame(reply)); err != nil {
					return
				}
			}
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return ln.Addr().String()
}

func newTestClient(t *testing.T, addr string) *client.Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	cfg := client.Config{Host: host, Port: mustAtoiTest(t, portStr), Transport: client.TCP, Protocol: client.Binary}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := client.New(ctx, cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func mustAtoiTest(t *testing.T, s string) int {
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
