package engine

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/camlink/camerad/internal/wire"
)

// defaultFrameTimeout bounds how long a partially-received frame may sit in
// HEADER/DATA/CRC before the receive state machine gives up and resyncs.
const defaultFrameTimeout = 500 * time.Millisecond

var syncPattern = []byte{wire.Sync0, wire.Sync1}

// Feed appends freshly-arrived transport bytes to the receive buffer and
// drives the state machine (IDLE -> SYNC -> HEADER -> DATA -> CRC ->
// PROCESS) as far as the buffered bytes allow.
func (e *Engine) Feed(data []byte, now time.Time) {
	e.rxBuf.Write(data)
	e.pump(now)
}

// Tick advances time-driven work: per-frame receive timeout, RTX backoff,
// and event draining. Callers invoke this on a regular cadence even when no
// bytes have arrived.
func (e *Engine) Tick(now time.Time) {
	if e.rxFraming && !now.Before(e.rxDeadline) {
		e.stats.inc(statTransportErrors)
		e.rxBuf.Next(1)
		e.rxFraming = false
		e.pump(now)
	}
	e.RTXTick(now)
	e.drainEvents()
}

// pump drains as many complete frames out of rxBuf as are present, resyncing
// on bad sync, bad header CRC, or bad payload CRC exactly as the teacher's
// stream codec resyncs on a bad preamble/checksum: advance one byte and
// retry, never discarding more than necessary.
func (e *Engine) pump(now time.Time) {
	for {
		compactRxBuf(&e.rxBuf)
		buf := e.rxBuf.Bytes()
		if len(buf) < 2 {
			return
		}
		idx := bytes.Index(buf, syncPattern)
		if idx < 0 {
			// Keep a single trailing byte in case it is the first half of
			// the sync pattern split across Feed calls.
			last := buf[len(buf)-1]
			e.rxBuf.Reset()
			if last == wire.Sync0 {
				e.rxBuf.WriteByte(last)
			}
			e.rxFraming = false
			return
		}
		if idx > 0 {
			e.rxBuf.Next(idx)
			continue
		}

		if !e.rxFraming {
			e.rxFraming = true
			e.rxDeadline = now.Add(defaultFrameTimeout)
		}

		if len(buf) < wire.HeaderSize {
			return
		}
		hdr, err := wire.DecodeHeader(buf, e.caps.CRC)
		if err != nil {
			e.stats.inc(statChecksumErrors)
			e.rxBuf.Next(1)
			e.rxFraming = false
			continue
		}

		total := wire.HeaderSize + int(hdr.Length)
		if hdr.Length > 0 {
			total += wire.DataCRCSize
		}
		if len(buf) < total {
			return
		}

		var payload []byte
		if hdr.Length > 0 {
			payload = buf[wire.HeaderSize : wire.HeaderSize+int(hdr.Length)]
			if e.caps.CRC {
				got := binary.LittleEndian.Uint32(buf[wire.HeaderSize+int(hdr.Length) : total])
				if got != wire.CRC32(payload) {
					e.stats.inc(statChecksumErrors)
					if hdr.HasFlag(wire.FlagACKReq) && e.caps.Ack {
						e.replyStatus(hdr, wire.StatusChecksum)
					}
					e.rxBuf.Next(1)
					e.rxFraming = false
					continue
				}
			}
		}

		e.stats.inc(statFramesRX)
		e.handleFrame(hdr, payload, now)
		e.rxBuf.Next(total)
		e.rxFraming = false
	}
}

// compactRxBuf reclaims the consumed prefix once the buffer has grown large
// relative to what remains unread.
func compactRxBuf(b *bytes.Buffer) {
	data := b.Bytes()
	if len(data) < 1024 {
		return
	}
	if cap(data) > 0 && len(data)*4 < cap(data) {
		clone := append([]byte(nil), data...)
		b.Reset()
		b.Write(clone)
	}
}

// handleFrame applies sequence bookkeeping, reassembly, and dispatch to one
// complete, CRC-valid inbound frame.
func (e *Engine) handleFrame(hdr wire.Header, payload []byte, now time.Time) {
	rtx := hdr.HasFlag(wire.FlagRTX)
	switch e.seqack.accept(hdr.Seq, rtx, e.caps.Seq) {
	case acceptedMismatch:
		e.stats.inc(statSequenceErrors)
		if hdr.HasFlag(wire.FlagACKReq) && e.caps.Ack {
			e.replyStatus(hdr, wire.StatusSequence)
		}
		return
	case acceptedDuplicate:
		if hdr.HasFlag(wire.FlagACKReq) && e.caps.Ack {
			e.replyStatus(hdr, wire.StatusSuccess)
		}
		return
	}

	if hdr.HasFlag(wire.FlagACK) || hdr.HasFlag(wire.FlagNAK) {
		e.handleACK(hdr.Seq)
		return
	}

	full := payload
	if hdr.HasFlag(wire.FlagFragment) || e.reasm.active {
		final := !hdr.HasFlag(wire.FlagFragment)
		assembled, err := e.reasm.append(hdr.Chan, hdr.Opcode, payload, final)
		if err != nil {
			e.stats.inc(statFragmentErrors)
			if hdr.HasFlag(wire.FlagACKReq) && e.caps.Ack {
				e.replyStatus(hdr, wire.StatusFragment)
			}
			return
		}
		if assembled == nil {
			if hdr.HasFlag(wire.FlagACKReq) && e.caps.Ack {
				e.replyStatus(hdr, wire.StatusSuccess)
			}
			return
		}
		full = assembled
	}

	status, respPayload := e.dispatch(hdr.Chan, hdr.Opcode, full, now)
	if !wire.NoResponseOpcode(hdr.Opcode) && e.caps.Ack {
		e.reply(hdr, status, respPayload)
	}

	// PROTO_SYNC resets sequence, reassembly, and RTX state only after its
	// response has been transmitted.
	if hdr.Opcode == wire.ProtoSync {
		e.seqack.reset()
		e.reasm.reset()
		e.rtx.entries = nil
	}
}

// replyStatus sends a 2-byte ACK/NAK status response echoing the request's
// channel and opcode, never ACK_REQ (a response is never itself acked).
func (e *Engine) replyStatus(req wire.Header, status wire.Status) {
	flag := byte(wire.FlagACK)
	if status != wire.StatusSuccess {
		flag = wire.FlagNAK
	}
	body := wire.StatusPayload(status)
	h := wire.Header{Seq: e.seqack.nextTX(), Chan: req.Chan, Flags: flag, Opcode: req.Opcode, Length: uint16(len(body))}
	_ = e.transmitFrame(h, body[:])
}

// reply sends a command's result, using the 2-byte status payload for
// failure or an empty success, or the handler's own payload on success -
// fragmenting it across frames if it exceeds the negotiated max_payload.
func (e *Engine) reply(req wire.Header, status wire.Status, payload []byte) {
	if status != wire.StatusSuccess || payload == nil {
		e.replyStatus(req, status)
		return
	}
	_ = e.sendFragmented(req.Chan, req.Opcode, wire.FlagACK, payload, false)
}
