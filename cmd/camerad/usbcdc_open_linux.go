//go:build linux

package main

import "github.com/camlink/camerad/internal/transport"

func openUSBCDC(path string) (transport.Byte, error) {
	return transport.OpenUSBCDC(path)
}
