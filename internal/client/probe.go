package client

import (
	"context"
	"fmt"
	"time"

	binarycodec "github.com/kstaniek/tradec/internal/codec/binary"
	csvcodec "github.com/kstaniek/tradec/internal/codec/csv"
	"github.com/kstaniek/tradec/internal/logging"
	"github.com/kstaniek/tradec/internal/wire"
)

// Protocol probe constants (spec §4.6). The two order ids must differ so a
// server that rejects duplicate keys doesn't confound the second attempt
// with the first.
const (
	probeSymbol   = "ZZPROBE"
	probeBinaryID = 999_999_998
	probeCSVID    = 999_999_999
	probeWait     = 200 * time.Millisecond
	probeDrainCap = 20
)

// probeProtocol runs the TCP-only protocol probe sequence and returns the
// detected wire protocol, leaving the connection clean of residual probe
// traffic.
func (c *Client) probeProtocol(ctx context.Context) (Protocol, error) {
	binPayload := binarycodec.EncodeNewOrder(wire.NewOrder{
		Symbol: probeSymbol, Price: 1, Quantity: 1, Side: wire.Buy, UserOrderID: probeBinaryID,
	})
	if err := c.tr.Send(binPayload); err != nil {
		return 0, fmt.Errorf("probe: send binary new order: %w", err)
	}
	if raw, err := c.waitProbeReply(ctx); err == nil && raw != nil {
		if binarycodec.IsBinary(raw) {
			c.cleanupProbe(ctx, Binary, probeBinaryID)
			return Binary, nil
		}
	}

	csvPayload := csvcodec.FormatNewOrder(c.csvBuf[:0], 0, probeSymbol, 1, 1, wire.Buy, probeCSVID)
	if err := c.tr.Send(csvPayload); err != nil {
		return 0, fmt.Errorf("probe: send csv new order: %w", err)
	}
	raw, err := c.waitProbeReply(ctx)
	if err != nil {
		return 0, fmt.Errorf("probe: csv reply: %w", err)
	}
	if raw == nil {
		return 0, fmt.Errorf("probe: no reply within %s to either probe", probeWait)
	}
	if binarycodec.IsBinary(raw) {
		c.cleanupProbe(ctx, Binary, probeCSVID)
		return Binary, nil
	}
	c.cleanupProbe(ctx, CSV, probeCSVID)
	return CSV, nil
}

func (c *Client) waitProbeReply(ctx context.Context) ([]byte, error) {
	return c.tr.TryRecv(probeWait)
}

// cleanupProbe cancels the order the probe just placed and drains up to
// probeDrainCap residual messages so the probe leaves no traffic behind for
// the caller's first real recv to trip over.
func (c *Client) cleanupProbe(ctx context.Context, protocol Protocol, orderID uint32) {
	var cancelPayload []byte
	if protocol == Binary {
		cancelPayload = binarycodec.EncodeCancel(wire.Cancel{UserOrderID: orderID})
	} else {
		cancelPayload = csvcodec.FormatCancel(c.csvBuf[:0], 0, orderID)
	}
	if err := c.tr.Send(cancelPayload); err != nil {
		logging.L().Debug("probe_cleanup_cancel_failed", "error", err)
	}
	for i := 0; i < probeDrainCap; i++ {
		raw, err := c.tr.TryRecv(10 * time.Millisecond)
		if err != nil || raw == nil {
			return
		}
	}
}
