package main

import (
	"context"
	"log/slog"

	"github.com/camlink/camerad/internal/channel"
	"github.com/camlink/camerad/internal/channels"
)

// Fixed slot assignments for the built-in reference channels, chosen so a
// host doesn't need CHANNEL_LIST just to talk to the well-known ones.
const (
	channelIDFrameBuffer = 1
	channelIDStdio       = 2
	channelIDScript      = 3
	channelIDProfiler    = 4
	channelIDEventSink   = 5
)

// registerReferenceChannels installs the daemon's built-in channels into
// reg. The event sink is optional, enabled only when a Redis address is
// configured.
func registerReferenceChannels(reg *channel.Registry, cfg *appConfig, l *slog.Logger) {
	fb := channels.NewFrameBuffer(1920, 1080, 1920*4)
	if _, err := reg.Register(channelIDFrameBuffer, channel.FlagRead|channel.FlagPhysical|channel.FlagLock, "framebuffer", fb); err != nil {
		l.Warn("channel_register_failed", "channel", "framebuffer", "error", err)
	}

	stdio := channels.NewStdioRing()
	if _, err := reg.Register(channelIDStdio, channel.FlagRead|channel.FlagWrite, "stdio", stdio); err != nil {
		l.Warn("channel_register_failed", "channel", "stdio", "error", err)
	}

	script := channels.NewScriptRunner()
	if _, err := reg.Register(channelIDScript, channel.FlagWrite, "script", script); err != nil {
		l.Warn("channel_register_failed", "channel", "script", "error", err)
	}

	profiler := channels.NewProfiler()
	if _, err := reg.Register(channelIDProfiler, channel.FlagRead, "profiler", profiler); err != nil {
		l.Warn("channel_register_failed", "channel", "profiler", "error", err)
	}

	if cfg.eventSinkRedisAddr != "" {
		sink, err := channels.NewEventSink(context.Background(), cfg.eventSinkRedisAddr, "", cfg.eventSinkRedisDB, cfg.eventSinkChannel)
		if err != nil {
			l.Warn("eventsink_unavailable", "error", err)
		} else if _, err := reg.Register(channelIDEventSink, channel.FlagWrite|channel.FlagDynamic, "eventsink", sink); err != nil {
			l.Warn("channel_register_failed", "channel", "eventsink", "error", err)
		}
	}
}
