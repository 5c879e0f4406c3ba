package engine

import "errors"

// Sentinel errors for the engine's error taxonomy (§7), following the
// teacher's internal/server/errors.go shape: plain sentinels returned as-is
// so callers can classify with errors.Is.
var (
	ErrBadSync           = errors.New("engine: bad sync")
	ErrHeaderChecksum    = errors.New("engine: header checksum")
	ErrPayloadChecksum   = errors.New("engine: payload checksum")
	ErrFrameTimeout      = errors.New("engine: frame timeout")
	ErrSequenceMismatch  = errors.New("engine: sequence mismatch")
	ErrFragmentMismatch  = errors.New("engine: fragment mismatch")
	ErrFragmentOverflow  = errors.New("engine: fragment overflow")
	ErrRTXExhausted      = errors.New("engine: retransmission exhausted")
	ErrRTXQueueFull      = errors.New("engine: retransmission queue full")
	ErrTransportWrite    = errors.New("engine: transport write failed")
	ErrUnknownOpcode     = errors.New("engine: unknown opcode")
)
