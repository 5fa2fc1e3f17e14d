// Package metrics exposes Prometheus counters/gauges for the engine client
// and scenario engine, plus a cheap local-atomic mirror for in-process
// logging (same shape as the teacher's metrics package, re-themed for the
// client side of a trading protocol instead of a CAN bus).
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/kstaniek/tradec/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters/gauges.
var (
	SentNewOrder = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradec_sent_new_order_total",
		Help: "Total NewOrder messages sent.",
	})
	SentCancel = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradec_sent_cancel_total",
		Help: "Total Cancel messages sent.",
	})
	SentFlush = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradec_sent_flush_total",
		Help: "Total Flush messages sent.",
	})
	RecvAck = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradec_recv_ack_total",
		Help: "Total Ack messages received.",
	})
	RecvCancelAck = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradec_recv_cancel_ack_total",
		Help: "Total CancelAck messages received.",
	})
	RecvTrade = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradec_recv_trade_total",
		Help: "Total Trade messages received.",
	})
	RecvTopOfBook = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradec_recv_top_of_book_total",
		Help: "Total TopOfBook messages received.",
	})
	RecvReject = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradec_recv_reject_total",
		Help: "Total Reject messages received.",
	})
	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradec_parse_errors_total",
		Help: "Total messages that failed to decode in a drain loop.",
	})
	AdaptiveDeficit = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradec_adaptive_deficit",
		Help: "Current pairs_sent - trades_observed deficit in the adaptive matching-stress scenario.",
	})
	ThreadedQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradec_threaded_queue_depth",
		Help: "Approximate messages_received lag behind 5*pairs_sent in the threaded scenario.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradec_errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality).
const (
	ErrDial   = "dial"
	ErrSend   = "send"
	ErrRecv   = "recv"
	ErrProbe  = "protocol_probe"
	ErrDecode = "decode"
)

// StartHTTP serves Prometheus metrics at /metrics and readiness at /ready.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process).
var (
	localSentNewOrder    uint64
	localSentCancel      uint64
	localSentFlush       uint64
	localRecvAck         uint64
	localRecvCancelAck   uint64
	localRecvTrade       uint64
	localRecvTopOfBook   uint64
	localRecvReject      uint64
	localParseErrors     uint64
	localErrors          uint64
	localAdaptiveDeficit uint64
	localThreadedQDepth  uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	SentNewOrder    uint64
	SentCancel      uint64
	SentFlush       uint64
	RecvAck         uint64
	RecvCancelAck   uint64
	RecvTrade       uint64
	RecvTopOfBook   uint64
	RecvReject      uint64
	ParseErrors     uint64
	Errors          uint64
	AdaptiveDeficit uint64
	ThreadedQDepth  uint64
}

func Snap() Snapshot {
	return Snapshot{
		SentNewOrder:    atomic.LoadUint64(&localSentNewOrder),
		SentCancel:      atomic.LoadUint64(&localSentCancel),
		SentFlush:       atomic.LoadUint64(&localSentFlush),
		RecvAck:         atomic.LoadUint64(&localRecvAck),
		RecvCancelAck:   atomic.LoadUint64(&localRecvCancelAck),
		RecvTrade:       atomic.LoadUint64(&localRecvTrade),
		RecvTopOfBook:   atomic.LoadUint64(&localRecvTopOfBook),
		RecvReject:      atomic.LoadUint64(&localRecvReject),
		ParseErrors:     atomic.LoadUint64(&localParseErrors),
		Errors:          atomic.LoadUint64(&localErrors),
		AdaptiveDeficit: atomic.LoadUint64(&localAdaptiveDeficit),
		ThreadedQDepth:  atomic.LoadUint64(&localThreadedQDepth),
	}
}

func IncSentNewOrder() {
	SentNewOrder.Inc()
	atomic.AddUint64(&localSentNewOrder, 1)
}

func IncSentCancel() {
	SentCancel.Inc()
	atomic.AddUint64(&localSentCancel, 1)
}

func IncSentFlush() {
	SentFlush.Inc()
	atomic.AddUint64(&localSentFlush, 1)
}

func IncRecvAck() {
	RecvAck.Inc()
	atomic.AddUint64(&localRecvAck, 1)
}

func IncRecvCancelAck() {
	RecvCancelAck.Inc()
	atomic.AddUint64(&localRecvCancelAck, 1)
}

func IncRecvTrade() {
	RecvTrade.Inc()
	atomic.AddUint64(&localRecvTrade, 1)
}

func IncRecvTopOfBook() {
	RecvTopOfBook.Inc()
	atomic.AddUint64(&localRecvTopOfBook, 1)
}

func IncRecvReject() {
	RecvReject.Inc()
	atomic.AddUint64(&localRecvReject, 1)
}

func IncParseError() {
	ParseErrors.Inc()
	atomic.AddUint64(&localParseErrors, 1)
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

func SetAdaptiveDeficit(n int) {
	AdaptiveDeficit.Set(float64(n))
	atomic.StoreUint64(&localAdaptiveDeficit, uint64(n))
}

func SetThreadedQueueDepth(n int) {
	ThreadedQueueDepth.Set(float64(n))
	atomic.StoreUint64(&localThreadedQDepth, uint64(n))
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{ErrDial, ErrSend, ErrRecv, ErrProbe, ErrDecode} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }
