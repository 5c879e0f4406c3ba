package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/camlink/camerad/internal/engine"
	"github.com/camlink/camerad/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, eng *engine.Engine, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s := eng.StatsSnapshot()
				metrics.Observe(metrics.Snapshot{
					FramesTX:        uint64(s.FramesTX),
					FramesRX:        uint64(s.FramesRX),
					ChecksumErrors:  uint64(s.ChecksumErrors),
					SequenceErrors:  uint64(s.SequenceErrors),
					TransportErrors: uint64(s.TransportErrors),
					FragmentErrors:  uint64(s.FragmentErrors),
					Retransmits:     uint64(s.Retransmits),
					EventsDropped:   uint64(s.EventsDropped),
				}, 0, int(s.MaxAckQueueDepth), len(eng.Registry().List()))
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"frames_tx", snap.FramesTX,
					"frames_rx", snap.FramesRX,
					"checksum_errors", snap.ChecksumErrors,
					"sequence_errors", snap.SequenceErrors,
					"transport_errors", snap.TransportErrors,
					"fragment_errors", snap.FragmentErrors,
					"retransmits", snap.Retransmits,
					"events_dropped", snap.EventsDropped,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
