package transport

// Byte is the minimal byte-stream contract the engine drives: three
// transport writes per framed packet (header, payload, data-CRC), never
// batched or reordered by the implementation. Read feeds the receive ring.
type Byte interface {
	Read(p []byte) (int, error)
	WriteAll(p []byte) error
	Ready() bool
	Close() error
}

// Compile-time assertions that every backend satisfies Byte.
var (
	_ Byte = (*UART)(nil)
	_ Byte = (*TCP)(nil)
)
