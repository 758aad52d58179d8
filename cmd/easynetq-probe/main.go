// Package main implements easynetq-probe, a long-running prober that keeps
// a persistent RabbitMQ connection open, relays its lifecycle events as
// structured logs, and exposes connection metrics for Prometheus.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwillmer/easynetq/config"
	"github.com/jwillmer/easynetq/eventbus"
	"github.com/jwillmer/easynetq/metric"
	"github.com/jwillmer/easynetq/pkg/retry"
	"github.com/jwillmer/easynetq/rabbitclient"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "easynetq-probe"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Probe failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "hosts", len(cfg.Hosts))
		return nil
	}

	slog.Info("Starting broker probe",
		"config_path", cliCfg.ConfigPath,
		"hosts", hostList(cfg),
		"vhost", cfg.VirtualHost)

	registry := metric.NewMetricsRegistry()
	if cliCfg.MetricsPort > 0 {
		startMetricsServer(cliCfg.MetricsPort, registry)
	}

	bus := eventbus.NewAsyncBus()
	if err := subscribeLifecycleLogging(bus, logger); err != nil {
		return fmt.Errorf("wiring event subscriptions: %w", err)
	}

	clientLogger := &slogAdapter{logger: logger.With("component", "rabbitclient")}
	factory := rabbitclient.NewAMQPConnectionFactory(
		rabbitclient.WithFactoryLogger(clientLogger))

	pc, err := rabbitclient.NewPersistentConnection(cfg, factory,
		rabbitclient.WithLogger(clientLogger),
		rabbitclient.WithEventBus(bus),
		rabbitclient.WithMetrics(registry))
	if err != nil {
		return fmt.Errorf("creating connection manager: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The first connect gets retried with backoff; once it succeeds the
	// transport recovers on its own.
	if err := retry.Do(ctx, retry.Persistent(), pc.Connect); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}

	if cliCfg.ProbeInterval > 0 {
		go probeLoop(ctx, pc, cliCfg.ProbeInterval, logger)
	}

	<-ctx.Done()
	slog.Info("Shutting down", "timeout", cliCfg.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		_ = pc.Close()
		bus.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Shutdown complete")
	case <-time.After(cliCfg.ShutdownTimeout):
		slog.Warn("Shutdown timed out")
	}
	return nil
}

// probeLoop periodically opens and closes a channel to verify the managed
// connection can still do useful work, not just report itself open.
func probeLoop(ctx context.Context, pc *rabbitclient.PersistentConnection, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ch, err := pc.CreateModel()
			if err != nil {
				logger.Warn("Channel probe failed", "error", err)
				continue
			}
			logger.Debug("Channel probe succeeded", "channel_id", ch.ID())
			if err := ch.Close(); err != nil {
				logger.Warn("Closing probe channel failed", "error", err)
			}
		}
	}
}

// subscribeLifecycleLogging turns every lifecycle event into a structured
// log line. Handlers run async so slow sinks never stall the transport.
func subscribeLifecycleLogging(bus *eventbus.AsyncBus, logger *slog.Logger) error {
	if err := bus.SubscribeAsync(eventbus.TopicConnectionCreated,
		func(e eventbus.ConnectionCreated) {
			logger.Info("Connection created", "endpoint", e.Endpoint.String())
		}); err != nil {
		return err
	}
	if err := bus.SubscribeAsync(eventbus.TopicConnectionRecovered,
		func(e eventbus.ConnectionRecovered) {
			logger.Info("Connection recovered", "endpoint", e.Endpoint.String())
		}); err != nil {
		return err
	}
	if err := bus.SubscribeAsync(eventbus.TopicConnectionDisconnected,
		func(e eventbus.ConnectionDisconnected) {
			logger.Warn("Connection lost", "endpoint", e.Endpoint.String(), "reason", e.Reason)
		}); err != nil {
		return err
	}
	if err := bus.SubscribeAsync(eventbus.TopicConnectionBlocked,
		func(e eventbus.ConnectionBlocked) {
			logger.Warn("Connection blocked by broker", "reason", e.Reason)
		}); err != nil {
		return err
	}
	return bus.SubscribeAsync(eventbus.TopicConnectionUnblocked,
		func(eventbus.ConnectionUnblocked) {
			logger.Info("Connection unblocked by broker")
		})
}

func startMetricsServer(port int, registry *metric.MetricsRegistry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		registry.PrometheusRegistry(),
		promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
}

func hostList(cfg *config.ConnectionConfig) []string {
	hosts := make([]string, len(cfg.Hosts))
	for i, h := range cfg.Hosts {
		hosts[i] = h.String()
	}
	return hosts
}
