// Package channel defines the uniform channel vtable every addressable
// device resource implements, and the flag bits describing its
// capabilities.
package channel

import "github.com/camlink/camerad/internal/wire"

// Flag bits for a channel's capability record.
const (
	FlagRead     byte = 1 << 0
	FlagWrite    byte = 1 << 1
	FlagLock     byte = 1 << 2
	FlagDynamic  byte = 1 << 3
	FlagPhysical byte = 1 << 4
)

// NameSize is the fixed width of a channel's NUL-terminated name field in
// CHANNEL_LIST records.
const NameSize = 14

// Channel is the polymorphic operation set every registry entry implements.
// Unsupported operations return wire.StatusInvalid; embedding Unimplemented
// gives that behavior for free so a concrete channel only overrides what it
// actually supports.
type Channel interface {
	Init() wire.Status
	Read(offset uint32, p []byte) (int, wire.Status)
	ReadP(offset uint32, length int) ([]byte, wire.Status)
	Write(offset uint32, p []byte) wire.Status
	Flush() wire.Status
	Available() uint32
	Shape() [4]uint32
	IOCTL(request uint32, p []byte) ([]byte, wire.Status)
}

// Unimplemented is embeddable in a concrete Channel to make every
// status-returning operation except Init (which succeeds) default to INVALID
// until overridden; Available reports 0 and Shape all zeros.
type Unimplemented struct{}

func (Unimplemented) Init() wire.Status { return wire.StatusSuccess }
func (Unimplemented) Read(uint32, []byte) (int, wire.Status) {
	return 0, wire.StatusInvalid
}
func (Unimplemented) ReadP(uint32, int) ([]byte, wire.Status) { return nil, wire.StatusInvalid }
func (Unimplemented) Write(uint32, []byte) wire.Status        { return wire.StatusInvalid }
func (Unimplemented) Flush() wire.Status                      { return wire.StatusInvalid }
func (Unimplemented) Available() uint32                       { return 0 }
func (Unimplemented) Shape() [4]uint32                        { return [4]uint32{} }
func (Unimplemented) IOCTL(uint32, []byte) ([]byte, wire.Status) {
	return nil, wire.StatusInvalid
}
