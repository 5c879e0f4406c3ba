package engine

import (
	"encoding/binary"

	"github.com/camlink/camerad/internal/wire"
)

const defaultEventQueueCapacity = 64

// EmitSystemEvent enqueues a system event (opcode SysEvent, channel 0) for
// emission on the next drain, returning false without error if events are
// disabled or the queue is momentarily full - dropped events never block
// the caller and are never retried.
func (e *Engine) EmitSystemEvent(code uint32, data []byte) bool {
	if !e.caps.Events {
		return false
	}
	ok := e.events.push(eventItem{system: true, code: code, data: data})
	if !ok {
		e.stats.inc(statEventsDropped)
	}
	return ok
}

// EmitChannelEvent enqueues a channel event (opcode ChannelEvent, the
// source channel's ID) under the same rules as EmitSystemEvent.
func (e *Engine) EmitChannelEvent(chanID byte, code uint32, data []byte) bool {
	if !e.caps.Events {
		return false
	}
	ok := e.events.push(eventItem{chanID: chanID, code: code, data: data})
	if !ok {
		e.stats.inc(statEventsDropped)
	}
	return ok
}

// drainEvents is invoked once per Tick. Each queued event is emitted only
// if the transport is ready and the RTX queue has headroom (used as the
// ACK-queue-headroom proxy, since events share the same outbound budget);
// otherwise it is dropped and not retried. Events never set ACK_REQ and
// never enter the RTX queue.
func (e *Engine) drainEvents() {
	items := e.events.drain()
	for _, it := range items {
		if !e.transport.Ready() || e.rtx.len() >= e.rtx.maxDepth {
			e.stats.inc(statEventsDropped)
			continue
		}
		chanID, opcode := byte(0), wire.SysEvent
		if !it.system {
			chanID, opcode = it.chanID, wire.ChannelEvent
		}
		payload := make([]byte, 4+len(it.data))
		binary.LittleEndian.PutUint32(payload[:4], it.code)
		copy(payload[4:], it.data)
		seq := e.seqack.nextTX()
		h := wire.Header{Seq: seq, Chan: chanID, Flags: wire.FlagEvent, Opcode: opcode, Length: uint16(len(payload))}
		if err := e.transmitFrame(h, payload); err != nil {
			e.stats.inc(statEventsDropped)
		}
	}
}

// Known system event codes (§8 scenario E6 names CHANNEL_UNREGISTERED as
// 0x01 on the system event opcode).
const (
	EventChannelRegistered   uint32 = 0x00
	EventChannelUnregistered uint32 = 0x01
	EventSoftReboot          uint32 = 0x02
)
