package rabbitclient

import (
	"log"

	"github.com/jwillmer/easynetq/eventbus"
	"github.com/jwillmer/easynetq/metric"
)

// Logger interface for injecting custom loggers
type Logger interface {
	Printf(format string, v ...any)
	Errorf(format string, v ...any)
	Debugf(format string, v ...any)
}

// defaultLogger implements Logger using standard log package
type defaultLogger struct{}

func (l *defaultLogger) Printf(format string, v ...any) {
	log.Printf("[RABBIT] "+format, v...)
}

func (l *defaultLogger) Errorf(format string, v ...any) {
	log.Printf("[RABBIT ERROR] "+format, v...)
}

func (l *defaultLogger) Debugf(_ string, _ ...any) {
	// Silent by default
}

// Option is a functional option for configuring the PersistentConnection
type Option func(*PersistentConnection) error

// WithLogger sets a custom logger scoped to this connection manager
func WithLogger(logger Logger) Option {
	return func(pc *PersistentConnection) error {
		if logger == nil {
			logger = &defaultLogger{}
		}
		pc.logger = logger
		return nil
	}
}

// WithEventBus sets the bus lifecycle events are published to.
// Defaults to a bus that discards everything.
func WithEventBus(bus eventbus.Bus) Option {
	return func(pc *PersistentConnection) error {
		if bus == nil {
			bus = eventbus.NopBus{}
		}
		pc.bus = bus
		return nil
	}
}

// WithMetrics enables connection metrics collection using the provided registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(pc *PersistentConnection) error {
		if registry == nil {
			return nil // No metrics
		}
		pc.metrics = newConnectionMetrics(registry)
		return nil
	}
}

// FactoryOption is a functional option for the AMQP connection factory
type FactoryOption func(*AMQPConnectionFactory)

// WithFactoryLogger sets a custom logger for the factory and the connections
// it creates
func WithFactoryLogger(logger Logger) FactoryOption {
	return func(f *AMQPConnectionFactory) {
		if logger == nil {
			logger = &defaultLogger{}
		}
		f.logger = logger
	}
}
