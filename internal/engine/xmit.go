package engine

import (
	"encoding/binary"

	"github.com/camlink/camerad/internal/wire"
)

// Transport is the byte-stream sink/source the engine drives. It does not
// know USB CDC vs UART vs TCP (§6); WriteAll must block until p is fully
// accepted or return an error.
type Transport interface {
	WriteAll(p []byte) error
	Ready() bool
}

// transmitFrame builds the header, computes the payload CRC if present,
// and emits exactly three transport writes when there is a payload (header,
// payload, data-CRC) or one when there is not - the zero-copy contract:
// the payload is never copied into the header buffer.
func (e *Engine) transmitFrame(h wire.Header, payload []byte) error {
	hdr := wire.EncodeHeader(h.Seq, h.Chan, h.Flags, h.Opcode, uint16(len(payload)))
	if err := e.transport.WriteAll(hdr[:]); err != nil {
		e.stats.inc(statTransportErrors)
		return err
	}
	if len(payload) == 0 {
		e.stats.inc(statFramesTX)
		return nil
	}
	if err := e.transport.WriteAll(payload); err != nil {
		e.stats.inc(statTransportErrors)
		return err
	}
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], wire.CRC32(payload))
	if err := e.transport.WriteAll(crcBuf[:]); err != nil {
		e.stats.inc(statTransportErrors)
		return err
	}
	e.stats.inc(statFramesTX)
	return nil
}

// sendFragmented splits payload across as many frames as caps.MaxPayload
// requires, stamping FRAGMENT on all but the last. baseFlags (e.g. ACK/NAK)
// is stamped on every fragment; ackReq applies to every fragment so the
// host can recover any lost fragment individually.
func (e *Engine) sendFragmented(chanID, opcode, baseFlags byte, payload []byte, ackReq bool) error {
	chunks := Split(payload, e.caps.MaxPayload)
	for i, chunk := range chunks {
		flags := baseFlags
		if i < len(chunks)-1 {
			flags |= wire.FlagFragment
		}
		if ackReq {
			flags |= wire.FlagACKReq
		}
		h := wire.Header{Seq: e.seqack.nextTX(), Chan: chanID, Flags: flags, Opcode: opcode, Length: uint16(len(chunk))}
		var err error
		if ackReq {
			err = e.sendWithACKReq(h, chunk)
		} else {
			err = e.transmitFrame(h, chunk)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
