//go:build !linux

package main

import (
	"fmt"

	"github.com/camlink/camerad/internal/transport"
)

// Placeholder so non-linux builds compile; USB CDC-ACM character devices
// are a Linux-specific concept here.
func openUSBCDC(path string) (transport.Byte, error) {
	return nil, fmt.Errorf("usb-cdc transport unsupported on this platform")
}
