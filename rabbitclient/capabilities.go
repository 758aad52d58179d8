package rabbitclient

import (
	"github.com/jwillmer/easynetq/config"
)

// Subscription is the registration handle returned when a lifecycle callback
// is attached to a connection or channel. Cancel removes the callback;
// cancelling twice is harmless.
type Subscription interface {
	Cancel()
}

// NewSubscription wraps a release function as a Subscription. Implementations
// of the capability interfaces outside this package use it for their own
// callback registries.
func NewSubscription(cancel func()) Subscription {
	return &subscription{cancel: cancel}
}

type subscription struct {
	cancel func()
}

func (s *subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// ConnectionFactory produces broker connections from a connection
// configuration. The factory owns endpoint selection and the wire handshake;
// the connection manager only orchestrates the result.
type ConnectionFactory interface {
	CreateConnection(cfg *config.ConnectionConfig) (Connection, error)
}

// Connection is the transport capability the manager orchestrates. It is
// implemented by the AMQP transport in this package and by test doubles.
//
// Lifecycle callbacks fire on the transport's own goroutines, never on the
// caller's. Handlers must be quick and must not call back into the
// registering connection manager's locked paths.
type Connection interface {
	// IsOpen reports whether the transport currently considers the
	// connection open. Never blocks.
	IsOpen() bool

	// MaxChannels is the server-advertised cap on concurrently open
	// channels. Zero means unbounded.
	MaxChannels() uint16

	// Endpoint identifies the broker host this connection currently
	// targets. Recovery may move it to another configured host.
	Endpoint() config.HostConfig

	// CreateChannel opens a new channel over this connection.
	CreateChannel() (Channel, error)

	// OnShutdown registers a callback for connection shutdown from either
	// side. The reason is human-readable.
	OnShutdown(fn func(reason string)) Subscription

	// OnBlocked registers a callback for broker flow control engaging.
	OnBlocked(fn func(reason string)) Subscription

	// OnUnblocked registers a callback for broker flow control releasing.
	OnUnblocked(fn func()) Subscription

	// Close shuts the connection down, closing its channels transitively.
	Close() error
}

// RecoverableConnection is a Connection whose transport re-establishes itself
// after a loss while keeping its identity. The connection manager requires
// this capability and rejects factories that do not provide it.
type RecoverableConnection interface {
	Connection

	// OnRecovered registers a callback for a completed automatic recovery.
	OnRecovered(fn func()) Subscription
}

// Channel is one logical stream multiplexed over a Connection.
type Channel interface {
	// ID is the channel's numeric identity, unique within its connection
	// at a point in time.
	ID() int

	// Close closes the channel. The pool learns of it via OnShutdown.
	Close() error

	// OnShutdown registers a callback invoked once when the channel closes,
	// whether by the caller or by the broker.
	OnShutdown(fn func(reason string)) Subscription
}
