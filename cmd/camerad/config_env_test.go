package main

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvOverrides_Basic(t *testing.T) {
	base := baseConfig()

	os.Setenv("CAMERAD_UART_BAUD", "230400")
	os.Setenv("CAMERAD_MDNS_ENABLE", "true")
	os.Setenv("CAMERAD_LOG_METRICS_INTERVAL", "5s")
	os.Setenv("CAMERAD_TRANSPORT", "uart")
	t.Cleanup(func() {
		os.Unsetenv("CAMERAD_UART_BAUD")
		os.Unsetenv("CAMERAD_MDNS_ENABLE")
		os.Unsetenv("CAMERAD_LOG_METRICS_INTERVAL")
		os.Unsetenv("CAMERAD_TRANSPORT")
	})
	if err := applyEnvOverrides(base, map[string]struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.uartBaud != 230400 {
		t.Fatalf("expected uartBaud override, got %d", base.uartBaud)
	}
	if !base.mdnsEnable {
		t.Fatalf("expected mdnsEnable true")
	}
	if base.logMetricsEvery != 5*time.Second {
		t.Fatalf("expected logMetricsEvery 5s got %v", base.logMetricsEvery)
	}
	if base.transport != "uart" {
		t.Fatalf("expected transport uart got %s", base.transport)
	}
}

func TestApplyEnvOverrides_FlagPrecedence(t *testing.T) {
	base := &appConfig{uartBaud: 115200}
	os.Setenv("CAMERAD_UART_BAUD", "230400")
	t.Cleanup(func() { os.Unsetenv("CAMERAD_UART_BAUD") })
	if err := applyEnvOverrides(base, map[string]struct{}{"uart-baud": {}}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if base.uartBaud != 115200 {
		t.Fatalf("expected uartBaud unchanged 115200 got %d", base.uartBaud)
	}
}

func TestApplyEnvOverrides_BadInt(t *testing.T) {
	base := &appConfig{maxPayload: 1024}
	os.Setenv("CAMERAD_MAX_PAYLOAD", "notint")
	t.Cleanup(func() { os.Unsetenv("CAMERAD_MAX_PAYLOAD") })
	if err := applyEnvOverrides(base, map[string]struct{}{}); err == nil {
		t.Fatalf("expected error for bad integer")
	}
}
