package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type appConfig struct {
	transport    string // usb-cdc|uart|tcp
	usbCDCDev    string
	uartDev      string
	uartBaud     int
	uartReadTO   time.Duration
	tcpListen    string
	logFormat    string
	logLevel     string
	metricsAddr  string
	logMetricsEvery time.Duration

	maxPayload   int
	rtxQueueDepth int
	eventQueueCap int

	mdnsEnable bool
	mdnsName   string

	eventSinkRedisAddr string
	eventSinkRedisDB   int
	eventSinkChannel   string
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	transport := flag.String("transport", "tcp", "Byte-stream transport: usb-cdc|uart|tcp")
	usbCDCDev := flag.String("usb-cdc-dev", "/dev/ttyACM0", "USB CDC-ACM device path (when --transport=usb-cdc)")
	uartDev := flag.String("uart-dev", "/dev/ttyUSB0", "UART device path (when --transport=uart)")
	uartBaud := flag.Int("uart-baud", 115200, "UART baud rate")
	uartReadTO := flag.Duration("uart-read-timeout", 50*time.Millisecond, "UART read timeout")
	tcpListen := flag.String("tcp-listen", ":20100", "TCP listen address (when --transport=tcp)")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters")
	maxPayload := flag.Int("max-payload", 1024, "Default negotiated max payload size in bytes")
	rtxQueueDepth := flag.Int("rtx-queue-depth", 16, "Maximum in-flight ACK_REQ frames awaiting acknowledgment")
	eventQueueCap := flag.Int("event-queue-capacity", 64, "Maximum pending system/channel events before dropping")
	mdnsEnable := flag.Bool("mdns-enable", false, "Enable mDNS advertisement of the TCP transport")
	mdnsName := flag.String("mdns-name", "", "mDNS instance name (default camerad-<hostname>)")
	eventSinkRedisAddr := flag.String("eventsink-redis-addr", "", "Redis address for the event-sink reference channel; empty disables it")
	eventSinkRedisDB := flag.Int("eventsink-redis-db", 0, "Redis DB index for the event-sink channel")
	eventSinkChannel := flag.String("eventsink-redis-channel", "camerad:events", "Redis pub/sub channel name for the event-sink channel")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.transport = *transport
	cfg.usbCDCDev = *usbCDCDev
	cfg.uartDev = *uartDev
	cfg.uartBaud = *uartBaud
	cfg.uartReadTO = *uartReadTO
	cfg.tcpListen = *tcpListen
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.logMetricsEvery = *logMetricsEvery
	cfg.maxPayload = *maxPayload
	cfg.rtxQueueDepth = *rtxQueueDepth
	cfg.eventQueueCap = *eventQueueCap
	cfg.mdnsEnable = *mdnsEnable
	cfg.mdnsName = *mdnsName
	cfg.eventSinkRedisAddr = *eventSinkRedisAddr
	cfg.eventSinkRedisDB = *eventSinkRedisDB
	cfg.eventSinkChannel = *eventSinkChannel

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

// validate performs basic semantic validation of the parsed configuration.
// It does not attempt to open devices or listeners - only checks values/ranges.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.transport {
	case "usb-cdc", "uart", "tcp":
	default:
		return fmt.Errorf("invalid transport: %s", c.transport)
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.uartBaud <= 0 {
		return fmt.Errorf("uart-baud must be > 0 (got %d)", c.uartBaud)
	}
	if c.uartReadTO <= 0 {
		return fmt.Errorf("uart-read-timeout must be > 0")
	}
	if c.maxPayload <= 0 {
		return fmt.Errorf("max-payload must be > 0 (got %d)", c.maxPayload)
	}
	if c.rtxQueueDepth <= 0 {
		return fmt.Errorf("rtx-queue-depth must be > 0 (got %d)", c.rtxQueueDepth)
	}
	if c.eventQueueCap <= 0 {
		return fmt.Errorf("event-queue-capacity must be > 0 (got %d)", c.eventQueueCap)
	}
	if c.eventSinkRedisDB < 0 {
		return fmt.Errorf("eventsink-redis-db must be >= 0")
	}
	return nil
}

// applyEnvOverrides maps CAMERAD_* environment variables to config fields
// unless a corresponding flag was explicitly set (flag wins).
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }

	if _, ok := set["transport"]; !ok {
		if v, ok := get("CAMERAD_TRANSPORT"); ok && v != "" {
			c.transport = v
		}
	}
	if _, ok := set["usb-cdc-dev"]; !ok {
		if v, ok := get("CAMERAD_USB_CDC_DEV"); ok && v != "" {
			c.usbCDCDev = v
		}
	}
	if _, ok := set["uart-dev"]; !ok {
		if v, ok := get("CAMERAD_UART_DEV"); ok && v != "" {
			c.uartDev = v
		}
	}
	if _, ok := set["uart-baud"]; !ok {
		if v, ok := get("CAMERAD_UART_BAUD"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.uartBaud = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid CAMERAD_UART_BAUD: %w", err)
			}
		}
	}
	if _, ok := set["tcp-listen"]; !ok {
		if v, ok := get("CAMERAD_TCP_LISTEN"); ok && v != "" {
			c.tcpListen = v
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("CAMERAD_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("CAMERAD_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("CAMERAD_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("CAMERAD_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid CAMERAD_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	if _, ok := set["max-payload"]; !ok {
		if v, ok := get("CAMERAD_MAX_PAYLOAD"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.maxPayload = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid CAMERAD_MAX_PAYLOAD: %w", err)
			}
		}
	}
	if _, ok := set["mdns-enable"]; !ok {
		if v, ok := get("CAMERAD_MDNS_ENABLE"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.mdnsEnable = true
			case "0", "false", "no", "off":
				c.mdnsEnable = false
			}
		}
	}
	if _, ok := set["mdns-name"]; !ok {
		if v, ok := get("CAMERAD_MDNS_NAME"); ok && v != "" {
			c.mdnsName = v
		}
	}
	if _, ok := set["eventsink-redis-addr"]; !ok {
		if v, ok := get("CAMERAD_EVENTSINK_REDIS_ADDR"); ok {
			c.eventSinkRedisAddr = v
		}
	}
	if _, ok := set["eventsink-redis-channel"]; !ok {
		if v, ok := get("CAMERAD_EVENTSINK_REDIS_CHANNEL"); ok && v != "" {
			c.eventSinkChannel = v
		}
	}
	return firstErr
}
