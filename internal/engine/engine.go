package engine

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/camlink/camerad/internal/channel"
	"github.com/camlink/camerad/internal/logging"
)

// MaxPayloadDefault is the negotiated max_payload before any PROTO_SET_CAPS
// exchange, chosen well inside [MinMaxPayload, MaxMaxPayload].
const MaxPayloadDefault = 1024

// Caps mirrors the protocol state's negotiated capability set (§3).
type Caps struct {
	CRC        bool
	Seq        bool
	Ack        bool
	Events     bool
	MaxPayload int
}

// DefaultCaps is the capability set a freshly constructed Engine starts
// with: every protocol feature enabled, max_payload at its default.
func DefaultCaps() Caps {
	return Caps{CRC: true, Seq: true, Ack: true, Events: true, MaxPayload: MaxPayloadDefault}
}

// Engine is the protocol core: framing, sequencing, fragmentation,
// retransmission, channel dispatch, and event emission, driven by Feed and
// Tick. One Engine serves one byte-stream connection; it is not safe for
// concurrent use from multiple goroutines without external synchronization,
// matching the single-threaded cooperative core loop the protocol assumes.
type Engine struct {
	transport Transport
	channels  *channel.Registry
	caps      Caps
	sysInfo   SysInfo

	seqack seqAck
	reasm  *reassembler
	rtx    *rtxQueue
	events *eventQueue
	stats  statBlock

	rxBuf     bytes.Buffer
	rxFraming bool
	rxDeadline time.Time

	onRTXFailure OnRTXFailure
	onReset      func()
	onBoot       func()

	logger *slog.Logger
	nowFn  func() time.Time
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithTransport supplies the byte-stream transport the engine reads from
// and writes to. Required; New panics without one.
func WithTransport(t Transport) Option { return func(e *Engine) { e.transport = t } }

// WithSysInfo overrides the record returned by SYS_INFO.
func WithSysInfo(info SysInfo) Option { return func(e *Engine) { e.sysInfo = info } }

// WithCaps overrides the initial capability negotiation state.
func WithCaps(c Caps) Option { return func(e *Engine) { e.caps = c } }

// WithRTXQueueDepth overrides the RTX/ACK queue's hard depth bound.
func WithRTXQueueDepth(n int) Option {
	return func(e *Engine) { e.rtx = newRTXQueue(n) }
}

// WithEventQueueCapacity overrides the pending-event queue's capacity.
func WithEventQueueCapacity(n int) Option {
	return func(e *Engine) { e.events = newEventQueue(n) }
}

// WithOnRTXFailure sets the callback invoked when a pending ACK_REQ frame
// exhausts its retries.
func WithOnRTXFailure(fn OnRTXFailure) Option { return func(e *Engine) { e.onRTXFailure = fn } }

// WithOnReset sets the side effect SYS_RESET schedules.
func WithOnReset(fn func()) Option { return func(e *Engine) { e.onReset = fn } }

// WithOnBoot sets the side effect SYS_BOOT schedules.
func WithOnBoot(fn func()) Option { return func(e *Engine) { e.onBoot = fn } }

// WithLogger overrides the engine's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// withNow overrides the engine's clock source; used by tests only.
func withNow(fn func() time.Time) Option { return func(e *Engine) { e.nowFn = fn } }

// New constructs an Engine bound to registry reg, applying opts over the
// defaults. reg's ID 0 PHYSICAL route must already be installed via
// RegisterReserved; the engine does not install one itself since the
// physical/control channel's semantics are caller-defined.
func New(reg *channel.Registry, opts ...Option) *Engine {
	e := &Engine{
		channels: reg,
		caps:     DefaultCaps(),
		reasm:    newReassembler(MaxPayloadDefault),
		rtx:      newRTXQueue(defaultMaxAckQueue),
		events:   newEventQueue(defaultEventQueueCapacity),
		logger:   logging.L(),
		nowFn:    time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.transport == nil {
		panic("engine: New requires WithTransport")
	}
	if reg != nil {
		reg.OnChange = e.onChannelChange
	}
	return e
}

func (e *Engine) now() time.Time {
	if e.nowFn != nil {
		return e.nowFn()
	}
	return time.Now()
}

// onChannelChange is the registry's EventSink, wired at construction so
// DYNAMIC register/unregister transitions surface as system events without
// the registry holding a back-pointer to the engine.
func (e *Engine) onChannelChange(channelID byte, registered bool) {
	code := EventChannelUnregistered
	if registered {
		code = EventChannelRegistered
	}
	e.logger.Debug("channel_change", "channel", channelID, "registered", registered)
	e.EmitSystemEvent(code, []byte{channelID})
}

// SendCommand transmits an application command on chanID with the given
// opcode and payload, fragmenting as needed and, if ackReq is set, tracking
// it in the RTX queue. Either side of the connection may call this; a
// device implementation typically only uses it for rare engine-initiated
// requests, since most traffic flows as ACK/NAK responses to the host.
func (e *Engine) SendCommand(chanID, opcode byte, payload []byte, ackReq bool) error {
	return e.sendFragmented(chanID, opcode, 0, payload, ackReq)
}

// Caps returns the engine's current negotiated capability set.
func (e *Engine) Caps() Caps { return e.caps }

// Registry returns the engine's bound channel registry.
func (e *Engine) Registry() *channel.Registry { return e.channels }
