package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/camlink/camerad/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters, one per engine.Stats field plus transport-level
// accounting the engine itself doesn't track.
var (
	FramesTX = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camerad_frames_tx_total",
		Help: "Total protocol frames transmitted.",
	})
	FramesRX = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camerad_frames_rx_total",
		Help: "Total protocol frames received.",
	})
	ChecksumErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camerad_checksum_errors_total",
		Help: "Total header or payload CRC failures.",
	})
	SequenceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camerad_sequence_errors_total",
		Help: "Total out-of-order SEQ values observed.",
	})
	TransportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camerad_transport_errors_total",
		Help: "Total transport write failures and exhausted retransmissions.",
	})
	FragmentErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camerad_fragment_errors_total",
		Help: "Total fragment reassembly mismatches and overflows.",
	})
	Retransmits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camerad_retransmits_total",
		Help: "Total frames retransmitted by the RTX queue.",
	})
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camerad_events_dropped_total",
		Help: "Total events dropped for lack of queue headroom, an unready transport, or a failed write.",
	})
	AckQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "camerad_ack_queue_depth",
		Help: "Current RTX/ACK queue depth.",
	})
	AckQueueDepthMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "camerad_ack_queue_depth_max",
		Help: "High-water mark of the RTX/ACK queue depth.",
	})
	ChannelsRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "camerad_channels_registered",
		Help: "Current number of registered channels.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camerad_errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality).
const (
	ErrTransportRead  = "transport_read"
	ErrTransportWrite = "transport_write"
	ErrTransportOpen  = "transport_open"
	ErrChannelIO      = "channel_io"
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

// Local mirrored counters, exposed via Snap for periodic structured-log
// summaries without hitting the Prometheus registry from the hot path.
var (
	localFramesTX   uint64
	localFramesRX   uint64
	localChecksum   uint64
	localSequence   uint64
	localTransport  uint64
	localFragment   uint64
	localRetransmit uint64
	localEventsDrop uint64
	localErrors     uint64
)

// Snapshot is a cheap copy of the local counters.
type Snapshot struct {
	FramesTX        uint64
	FramesRX        uint64
	ChecksumErrors  uint64
	SequenceErrors  uint64
	TransportErrors uint64
	FragmentErrors  uint64
	Retransmits     uint64
	EventsDropped   uint64
	Errors          uint64
}

func Snap() Snapshot {
	return Snapshot{
		FramesTX:        atomic.LoadUint64(&localFramesTX),
		FramesRX:        atomic.LoadUint64(&localFramesRX),
		ChecksumErrors:  atomic.LoadUint64(&localChecksum),
		SequenceErrors:  atomic.LoadUint64(&localSequence),
		TransportErrors: atomic.LoadUint64(&localTransport),
		FragmentErrors:  atomic.LoadUint64(&localFragment),
		Retransmits:     atomic.LoadUint64(&localRetransmit),
		EventsDropped:   atomic.LoadUint64(&localEventsDrop),
		Errors:          atomic.LoadUint64(&localErrors),
	}
}

// Observe mirrors an engine.Stats snapshot into both Prometheus and the
// local counters. Counters are monotonic on both sides, so Observe adds the
// delta since the previous call to each Prometheus counter.
var lastObserved Snapshot

func Observe(s Snapshot, ackQueueDepth, ackQueueDepthMax int, channelsRegistered int) {
	addDelta := func(c prometheus.Counter, cur, prev uint64) {
		if cur > prev {
			c.Add(float64(cur - prev))
		}
	}
	addDelta(FramesTX, s.FramesTX, lastObserved.FramesTX)
	addDelta(FramesRX, s.FramesRX, lastObserved.FramesRX)
	addDelta(ChecksumErrors, s.ChecksumErrors, lastObserved.ChecksumErrors)
	addDelta(SequenceErrors, s.SequenceErrors, lastObserved.SequenceErrors)
	addDelta(TransportErrors, s.TransportErrors, lastObserved.TransportErrors)
	addDelta(FragmentErrors, s.FragmentErrors, lastObserved.FragmentErrors)
	addDelta(Retransmits, s.Retransmits, lastObserved.Retransmits)
	addDelta(EventsDropped, s.EventsDropped, lastObserved.EventsDropped)

	atomic.StoreUint64(&localFramesTX, s.FramesTX)
	atomic.StoreUint64(&localFramesRX, s.FramesRX)
	atomic.StoreUint64(&localChecksum, s.ChecksumErrors)
	atomic.StoreUint64(&localSequence, s.SequenceErrors)
	atomic.StoreUint64(&localTransport, s.TransportErrors)
	atomic.StoreUint64(&localFragment, s.FragmentErrors)
	atomic.StoreUint64(&localRetransmit, s.Retransmits)
	atomic.StoreUint64(&localEventsDrop, s.EventsDropped)
	lastObserved = s

	AckQueueDepth.Set(float64(ackQueueDepth))
	AckQueueDepthMax.Set(float64(ackQueueDepthMax))
	ChannelsRegistered.Set(float64(channelsRegistered))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{ErrTransportRead, ErrTransportWrite, ErrTransportOpen, ErrChannelIO} {
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
