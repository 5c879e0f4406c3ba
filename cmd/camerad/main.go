package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/camlink/camerad/internal/channel"
	"github.com/camlink/camerad/internal/engine"
	"github.com/camlink/camerad/internal/metrics"
	"github.com/camlink/camerad/internal/transport"
	"github.com/camlink/camerad/internal/wire"
)

// tickInterval drives the engine's Tick (frame timeout checks, RTX
// retransmission, event draining) independent of how often bytes arrive.
const tickInterval = 20 * time.Millisecond

func main() {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("camerad %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)
	l.Info("build_info", "version", version, "commit", commit, "date", date)

	backend, listenPort, err := openTransport(cfg)
	if err != nil {
		l.Error("transport_open_error", "error", err)
		metrics.IncError(metrics.ErrTransportOpen)
		os.Exit(1)
	}
	defer backend.Close()

	reg := channel.New()
	reg.RegisterReserved(channel.Unimplemented{})
	registerReferenceChannels(reg, cfg, l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(reg,
		engine.WithTransport(backend),
		engine.WithRTXQueueDepth(cfg.rtxQueueDepth),
		engine.WithEventQueueCapacity(cfg.eventQueueCap),
		engine.WithCaps(capsFromConfig(cfg)),
		engine.WithLogger(l),
		engine.WithOnRTXFailure(func(seq byte, hdr wire.Header) {
			l.Warn("rtx_failed_terminally", "seq", seq, "chan", hdr.Chan, "opcode", hdr.Opcode)
		}),
		engine.WithOnReset(func() { l.Info("engine_reset_by_peer") }),
		engine.WithOnBoot(func() { l.Info("engine_boot_by_peer") }),
	)

	var wg sync.WaitGroup
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, eng, &wg)

	pump := transport.NewRXPump(ctx, backend)
	defer pump.Close()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runCoreLoop(ctx, eng, pump, l)
	}()

	if cfg.mdnsEnable && cfg.transport == "tcp" {
		cleanupMDNS, err := startMDNS(ctx, cfg, listenPort)
		if err != nil {
			l.Warn("mdns_start_failed", "error", err)
		} else {
			l.Info("mdns_started", "service", mdnsServiceType, "port", listenPort)
			defer cleanupMDNS()
		}
	}

	metrics.SetReadinessFunc(func() bool { return ctx.Err() == nil && backend.Ready() })
	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())
	cancel()
	wg.Wait()
}

// openTransport opens the backend selected by cfg.transport and, for tcp,
// reports the bound port for mDNS advertisement.
func openTransport(cfg *appConfig) (transport.Byte, int, error) {
	switch cfg.transport {
	case "usb-cdc":
		dev, err := openUSBCDC(cfg.usbCDCDev)
		return dev, 0, err
	case "uart":
		u, err := transport.OpenUART(cfg.uartDev, cfg.uartBaud, cfg.uartReadTO)
		return u, 0, err
	case "tcp":
		ln, err := net.Listen("tcp", cfg.tcpListen)
		if err != nil {
			return nil, 0, fmt.Errorf("listen %s: %w", cfg.tcpListen, err)
		}
		port := 0
		if _, portStr, splitErr := net.SplitHostPort(ln.Addr().String()); splitErr == nil {
			port, _ = strconv.Atoi(portStr)
		}
		conn, err := ln.Accept()
		_ = ln.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("accept: %w", err)
		}
		return transport.NewTCP(conn), port, nil
	default:
		return nil, 0, fmt.Errorf("unknown transport: %s", cfg.transport)
	}
}

func capsFromConfig(cfg *appConfig) engine.Caps {
	c := engine.DefaultCaps()
	c.MaxPayload = cfg.maxPayload
	return c
}

// runCoreLoop is the engine's single-threaded cooperative driver: it feeds
// bytes as the RXPump delivers them and ticks on a fixed interval so frame
// timeouts, retransmission, and event draining all advance even during
// idle periods with no inbound traffic.
func runCoreLoop(ctx context.Context, eng *engine.Engine, pump *transport.RXPump, l *slog.Logger) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case chunk := <-pump.Chunks():
			eng.Feed(chunk, time.Now())
		case err := <-pump.Errors():
			l.Warn("transport_read_error", "error", err)
			metrics.IncError(metrics.ErrTransportRead)
			return
		case now := <-ticker.C:
			eng.Tick(now)
		}
	}
}
