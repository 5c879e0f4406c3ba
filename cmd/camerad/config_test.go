package main

import (
	"testing"
	"time"
)

func baseConfig() *appConfig {
	return &appConfig{
		transport:     "tcp",
		uartBaud:      115200,
		uartReadTO:    10 * time.Millisecond,
		tcpListen:     ":20100",
		logFormat:     "text",
		logLevel:      "info",
		maxPayload:    1024,
		rtxQueueDepth: 16,
		eventQueueCap: 64,
	}
}

func TestConfigValidate_OK(t *testing.T) {
	if err := baseConfig().validate(); err != nil {
		t.Fatalf("expected ok got %v", err)
	}
}

func TestConfigValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*appConfig)
	}{
		{"badTransport", func(c *appConfig) { c.transport = "bluetooth" }},
		{"badFormat", func(c *appConfig) { c.logFormat = "xx" }},
		{"badLevel", func(c *appConfig) { c.logLevel = "nope" }},
		{"badBaud", func(c *appConfig) { c.uartBaud = 0 }},
		{"badUartTO", func(c *appConfig) { c.uartReadTO = 0 }},
		{"badMaxPayload", func(c *appConfig) { c.maxPayload = 0 }},
		{"badRTXQueueDepth", func(c *appConfig) { c.rtxQueueDepth = 0 }},
		{"badEventQueueCap", func(c *appConfig) { c.eventQueueCap = 0 }},
		{"badRedisDB", func(c *appConfig) { c.eventSinkRedisDB = -1 }},
	}
	for _, tc := range tests {
		base := baseConfig()
		tc.mod(base)
		if err := base.validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
