package engine

import (
	"time"

	"github.com/camlink/camerad/internal/wire"
)

const (
	defaultRTXRetries    = 3
	defaultRTXTimeout    = 500 * time.Millisecond
	defaultMaxAckQueue   = 32
)

// rtxEntry is a pending-ACK outbound frame awaiting retransmission, per the
// §3 ACK/RTX queue data model.
type rtxEntry struct {
	seq       byte
	header    wire.Header
	payload   []byte
	deadline  time.Time
	timeout   time.Duration
	retriesLeft int
}

// rtxQueue is the bounded FIFO of rtxEntry. maxDepth bounds the hard depth;
// enqueueing while full fails immediately, per spec.
type rtxQueue struct {
	maxDepth int
	entries  []*rtxEntry
}

func newRTXQueue(maxDepth int) *rtxQueue {
	if maxDepth <= 0 {
		maxDepth = defaultMaxAckQueue
	}
	return &rtxQueue{maxDepth: maxDepth}
}

func (q *rtxQueue) len() int { return len(q.entries) }

func (q *rtxQueue) enqueue(e *rtxEntry) error {
	if len(q.entries) >= q.maxDepth {
		return ErrRTXQueueFull
	}
	q.entries = append(q.entries, e)
	return nil
}

// removeBySeq removes and reports the entry whose seq matches exactly.
func (q *rtxQueue) removeBySeq(seq byte) (*rtxEntry, bool) {
	for i, e := range q.entries {
		if e.seq == seq {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return e, true
		}
	}
	return nil, false
}

// removeOldest pops the longest-pending entry. Used as a fallback ACK
// correlation strategy - see DESIGN.md for why.
func (q *rtxQueue) removeOldest() (*rtxEntry, bool) {
	if len(q.entries) == 0 {
		return nil, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}

// OnRTXFailure is invoked when a pending frame exhausts its retries.
type OnRTXFailure func(seq byte, header wire.Header)

// sendWithACKReq transmits a frame and, if it carries ACK_REQ, enqueues it
// for retransmission with the default retry/backoff budget. An ACK_REQ frame
// offered while the queue is full fails with ErrRTXQueueFull before anything
// is written.
func (e *Engine) sendWithACKReq(h wire.Header, payload []byte) error {
	if h.HasFlag(wire.FlagACKReq) && e.rtx.len() >= e.rtx.maxDepth {
		return ErrRTXQueueFull
	}
	if err := e.transmitFrame(h, payload); err != nil {
		return err
	}
	if !h.HasFlag(wire.FlagACKReq) {
		return nil
	}
	entry := &rtxEntry{
		seq:         h.Seq,
		header:      h,
		payload:     append([]byte(nil), payload...),
		deadline:    e.now().Add(defaultRTXTimeout),
		timeout:     defaultRTXTimeout,
		retriesLeft: defaultRTXRetries,
	}
	if err := e.rtx.enqueue(entry); err != nil {
		return err
	}
	e.stats.observeRTXDepth(e.rtx.len())
	return nil
}

// handleACK retires the RTX entry a peer's ACK acknowledges, reporting
// whether anything was retired.
func (e *Engine) handleACK(seq byte) bool {
	if _, ok := e.rtx.removeBySeq(seq); ok {
		return true
	}
	// Fallback for peers whose ACK doesn't mirror the original SEQ (see
	// DESIGN.md): retire the oldest outstanding entry when exactly one is
	// in flight, matching this protocol's mostly-synchronous usage.
	if e.rtx.len() == 1 {
		_, ok := e.rtx.removeOldest()
		return ok
	}
	return false
}

// RTXTick drives the retransmission queue's timeouts: expired entries are
// resent with RTX set and exponential backoff, or dropped and reported
// once retries are exhausted.
func (e *Engine) RTXTick(now time.Time) {
	var remaining []*rtxEntry
	for _, ent := range e.rtx.entries {
		if now.Before(ent.deadline) {
			remaining = append(remaining, ent)
			continue
		}
		if ent.retriesLeft <= 0 {
			e.stats.inc(statTransportErrors)
			e.logger.Warn("rtx_exhausted", "seq", ent.seq, "chan", ent.header.Chan, "opcode", ent.header.Opcode)
			if e.onRTXFailure != nil {
				e.onRTXFailure(ent.seq, ent.header)
			}
			continue
		}
		h := ent.header
		h.Flags |= wire.FlagRTX
		_ = e.transmitFrame(h, ent.payload)
		e.stats.inc(statRetransmits)
		ent.retriesLeft--
		ent.timeout *= 2
		ent.deadline = now.Add(ent.timeout)
		remaining = append(remaining, ent)
	}
	e.rtx.entries = remaining
}
