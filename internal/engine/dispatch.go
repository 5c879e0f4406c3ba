package engine

import (
	"encoding/binary"
	"time"

	"github.com/camlink/camerad/internal/channel"
	"github.com/camlink/camerad/internal/wire"
)

// capsRecordSize is the 16-byte PROTO_GET_CAPS/PROTO_SET_CAPS record: one
// flags byte, a little-endian max_payload u16, and 13 reserved bytes (the
// spec.md open question resolves the competing 16-vs-32-byte readings to
// 16 bytes).
const capsRecordSize = 16

const (
	capsFlagCRC byte = 1 << iota
	capsFlagSeq
	capsFlagAck
	capsFlagEvents
)

func (c Caps) encode() []byte {
	out := make([]byte, capsRecordSize)
	var flags byte
	if c.CRC {
		flags |= capsFlagCRC
	}
	if c.Seq {
		flags |= capsFlagSeq
	}
	if c.Ack {
		flags |= capsFlagAck
	}
	if c.Events {
		flags |= capsFlagEvents
	}
	out[0] = flags
	binary.LittleEndian.PutUint16(out[1:3], uint16(c.MaxPayload))
	return out
}

func decodeCaps(payload []byte) Caps {
	var flags byte
	maxPayload := MaxPayloadDefault
	if len(payload) >= 1 {
		flags = payload[0]
	}
	if len(payload) >= 3 {
		maxPayload = int(binary.LittleEndian.Uint16(payload[1:3]))
	}
	return Caps{
		CRC:        flags&capsFlagCRC != 0,
		Seq:        flags&capsFlagSeq != 0,
		Ack:        flags&capsFlagAck != 0,
		Events:     flags&capsFlagEvents != 0,
		MaxPayload: wire.ClampMaxPayload(maxPayload),
	}
}

// hostOwnerID is the fixed channel-lock owner identity for the single
// connected host on this transport. The channel registry's locking model
// supports multiple owners (for in-process callers holding a lock across
// suspension); the wire protocol only ever represents one remote owner.
const hostOwnerID = 1

// dispatch routes one fully-reassembled inbound payload to its handler and
// returns the status and optional response payload the caller should ACK.
// ProtoSync and NAK-worthy conditions are handled by the caller; dispatch
// never itself inspects ACK_REQ or sequencing.
func (e *Engine) dispatch(chanID, opcode byte, payload []byte, now time.Time) (wire.Status, []byte) {
	switch opcode {
	case wire.ProtoSync:
		return wire.StatusSuccess, nil
	case wire.ProtoGetCaps:
		return wire.StatusSuccess, e.caps.encode()
	case wire.ProtoSetCaps:
		e.caps = decodeCaps(payload)
		return wire.StatusSuccess, e.caps.encode()
	case wire.ProtoStats:
		return wire.StatusSuccess, e.stats.snapshot().Encode()
	case wire.SysReset:
		e.logger.Info("sys_reset")
		if e.onReset != nil {
			e.onReset()
		}
		return wire.StatusSuccess, nil
	case wire.SysBoot:
		e.logger.Info("sys_boot")
		if e.onBoot != nil {
			e.onBoot()
		}
		return wire.StatusSuccess, nil
	case wire.SysInfo:
		return wire.StatusSuccess, e.sysInfo.Encode()
	case wire.ChannelList:
		return e.dispatchChannelList()
	case wire.ChannelPoll:
		return e.dispatchChannelPoll()
	case wire.ChannelLock:
		return e.channels.Lock(chanID, hostOwnerID), nil
	case wire.ChannelUnlock:
		return e.channels.Unlock(chanID, hostOwnerID), nil
	case wire.ChannelShape:
		return e.dispatchChannelShape(chanID)
	case wire.ChannelSize:
		return e.dispatchChannelSize(chanID)
	case wire.ChannelRead:
		return e.dispatchChannelRead(chanID, payload)
	case wire.ChannelWrite:
		return e.dispatchChannelWrite(chanID, payload)
	case wire.ChannelIoctl:
		return e.dispatchChannelIoctl(chanID, payload)
	default:
		return wire.StatusUnknown, nil
	}
}

func (e *Engine) dispatchChannelList() (wire.Status, []byte) {
	descs := e.channels.List()
	out := make([]byte, 0, len(descs)*16)
	for _, d := range descs {
		out = append(out, d.ID, d.Flags)
		out = append(out, d.Name[:]...)
	}
	return wire.StatusSuccess, out
}

func (e *Engine) dispatchChannelPoll() (wire.Status, []byte) {
	var bitmap [4]byte
	for _, d := range e.channels.List() {
		ch := e.channels.Get(d.ID)
		if ch == nil {
			continue
		}
		ready := d.Flags&channel.FlagWrite != 0
		if d.Flags&channel.FlagRead != 0 && ch.Available() > 0 {
			ready = true
		}
		if ready {
			bitmap[d.ID/8] |= 1 << (d.ID % 8)
		}
	}
	return wire.StatusSuccess, bitmap[:]
}

func (e *Engine) dispatchChannelShape(chanID byte) (wire.Status, []byte) {
	ch := e.channels.Get(chanID)
	if ch == nil {
		return wire.StatusInvalid, nil
	}
	shape := ch.Shape()
	out := make([]byte, 16)
	for i, v := range shape {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return wire.StatusSuccess, out
}

func (e *Engine) dispatchChannelSize(chanID byte) (wire.Status, []byte) {
	ch := e.channels.Get(chanID)
	if ch == nil {
		return wire.StatusInvalid, nil
	}
	shape := ch.Shape()
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, shape[0])
	return wire.StatusSuccess, out
}

// dispatchChannelRead handles an 8-byte {offset u32, length u32} request,
// preferring the channel's zero-copy ReadP and falling back to a
// caller-owned buffer when the channel does not implement it.
func (e *Engine) dispatchChannelRead(chanID byte, payload []byte) (wire.Status, []byte) {
	if len(payload) < 8 {
		return wire.StatusInvalid, nil
	}
	offset := binary.LittleEndian.Uint32(payload[0:4])
	length := binary.LittleEndian.Uint32(payload[4:8])
	if status := e.channels.CheckAccess(chanID, hostOwnerID); status != wire.StatusSuccess {
		return status, nil
	}
	ch := e.channels.Get(chanID)
	if ch == nil {
		return wire.StatusInvalid, nil
	}
	if buf, status := ch.ReadP(offset, int(length)); status == wire.StatusSuccess {
		return status, buf
	} else if status != wire.StatusInvalid {
		return status, nil
	}
	buf := make([]byte, length)
	n, status := ch.Read(offset, buf)
	if status != wire.StatusSuccess {
		return status, nil
	}
	return status, buf[:n]
}

// dispatchChannelWrite handles a request whose first 8 bytes are
// {offset u32, length u32} and whose remainder is the data itself.
func (e *Engine) dispatchChannelWrite(chanID byte, payload []byte) (wire.Status, []byte) {
	if len(payload) < 8 {
		return wire.StatusInvalid, nil
	}
	offset := binary.LittleEndian.Uint32(payload[0:4])
	data := payload[8:]
	if status := e.channels.CheckAccess(chanID, hostOwnerID); status != wire.StatusSuccess {
		return status, nil
	}
	ch := e.channels.Get(chanID)
	if ch == nil {
		return wire.StatusInvalid, nil
	}
	return ch.Write(offset, data), nil
}

// dispatchChannelIoctl handles a request whose first 4 bytes are a
// little-endian request code and whose remainder is request-specific data.
func (e *Engine) dispatchChannelIoctl(chanID byte, payload []byte) (wire.Status, []byte) {
	if len(payload) < 4 {
		return wire.StatusInvalid, nil
	}
	request := binary.LittleEndian.Uint32(payload[0:4])
	if status := e.channels.CheckAccess(chanID, hostOwnerID); status != wire.StatusSuccess {
		return status, nil
	}
	ch := e.channels.Get(chanID)
	if ch == nil {
		return wire.StatusInvalid, nil
	}
	out, status := ch.IOCTL(request, payload[4:])
	return status, out
}
