package csv

import (
	"testing"

	"github.com/kstaniek/tradec/internal/wire"
)

func TestFormatNewOrder(t *testing.T) {
	buf := FormatNewOrder(make([]byte, 0, MaxLen), 1, "IBM", 10000, 50, wire.Buy, 1001)
	want := "N, 1, IBM, 10000, 50, B, 1001\n"
	if string(buf) != want {
		t.Fatalf("got %q, want %q", buf, want)
	}
}

func TestParseOutputTrade(t *testing.T) {
	// spec §8 fixture: "T, IBM, 1, 100, 2, 200, 10000, 50"
	out, err := ParseOutput("T, IBM, 1, 100, 2, 200, 10000, 50")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	trade, ok := out.(wire.Trade)
	if !ok {
		t.Fatalf("got %T, want wire.Trade", out)
	}
	want := wire.Trade{Symbol: "IBM", BuyUserID: 1, BuyOrderID: 100, SellUserID: 2, SellOrderID: 200, Price: 10000, Quantity: 50}
	if trade != want {
		t.Fatalf("got %+v, want %+v", trade, want)
	}
}

func TestParseOutputEmptyTopOfBook(t *testing.T) {
	out, err := ParseOutput("B, IBM, S, -, -")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tob := out.(wire.TopOfBook)
	if !tob.Empty() {
		t.Fatalf("expected empty top of book, got %+v", tob)
	}
	if tob.Side != wire.Sell {
		t.Fatalf("got side %v, want Sell", tob.Side)
	}
}

func TestParseOutputRoundTripsFormat(t *testing.T) {
	trade := wire.Trade{Symbol: "IBM", BuyUserID: 1, BuyOrderID: 2, SellUserID: 3, SellOrderID: 4, Price: 100, Quantity: 5}
	line := FormatTrade(make([]byte, 0, MaxLen), trade)
	out, err := ParseOutput(string(line))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.(wire.Trade) != trade {
		t.Fatalf("got %+v, want %+v", out, trade)
	}
}

func TestParseOutputEmptyLine(t *testing.T) {
	if _, err := ParseOutput("   \n"); err != ErrEmptyMessage {
		t.Fatalf("got %v, want ErrEmptyMessage", err)
	}
}

func TestParseOutputUnknownType(t *testing.T) {
	if _, err := ParseOutput("Q, IBM, 1, 2"); err == nil {
		t.Fatalf("expected error for unknown message type")
	}
}

func TestParseOutputInsufficientFields(t *testing.T) {
	if _, err := ParseOutput("A, IBM, 1"); err == nil {
		t.Fatalf("expected error for insufficient fields")
	}
}

func TestParseOutputInvalidNumber(t *testing.T) {
	if _, err := ParseOutput("A, IBM, abc, 1"); err == nil {
		t.Fatalf("expected error for invalid number")
	}
}
