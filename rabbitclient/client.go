package rabbitclient

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jwillmer/easynetq/config"
	"github.com/jwillmer/easynetq/errors"
	"github.com/jwillmer/easynetq/eventbus"
)

// PersistentConnection owns at most one live broker connection at a time.
// The connection is created on first use, recovered by its own transport
// after network loss, and torn down exactly once by Close.
//
// All methods are safe for concurrent use.
type PersistentConnection struct {
	cfg     *config.ConnectionConfig
	factory ConnectionFactory
	bus     eventbus.Bus
	logger  Logger
	metrics *connectionMetrics

	// mu serializes connection creation and teardown. The conn pointer is
	// additionally readable without the lock for the fast path.
	mu     sync.Mutex
	conn   atomic.Pointer[liveConnection]
	closed atomic.Bool
}

// liveConnection bundles everything that lives and dies with one underlying
// connection: the transport, the relay subscriptions, and the channel pool.
type liveConnection struct {
	conn RecoverableConnection
	subs []Subscription
	pool *channelPool
}

// NewPersistentConnection creates a connection manager for the given
// configuration and factory. No connection is dialed until Connect or
// CreateModel is called.
func NewPersistentConnection(cfg *config.ConnectionConfig, factory ConnectionFactory, opts ...Option) (*PersistentConnection, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"PersistentConnection", "NewPersistentConnection", "nil configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err,
			"PersistentConnection", "NewPersistentConnection", "validate configuration")
	}
	if factory == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("connection factory is required"),
			"PersistentConnection", "NewPersistentConnection", "check factory")
	}

	pc := &PersistentConnection{
		cfg:     cfg,
		factory: factory,
		bus:     eventbus.NopBus{},
		logger:  &defaultLogger{},
	}

	for _, opt := range opts {
		if err := opt(pc); err != nil {
			return nil, errors.WrapInvalid(err,
				"PersistentConnection", "NewPersistentConnection", "apply option")
		}
	}

	return pc, nil
}

// Connect ensures the underlying connection exists, creating it via the
// factory if necessary. Idempotent: once a connection exists, Connect
// returns immediately. Concurrent first calls create exactly one connection.
//
// A factory failure is propagated and nothing is cached, so the next call
// retries from scratch.
func (pc *PersistentConnection) Connect() error {
	_, err := pc.ensureConnection()
	return err
}

// IsConnected reports whether a connection exists and its transport reports
// it open. Never blocks, never fails; false after Close.
func (pc *PersistentConnection) IsConnected() bool {
	live := pc.conn.Load()
	return live != nil && live.conn.IsOpen()
}

// CreateModel hands out a channel over the managed connection, creating the
// connection first if needed. Fails with errors.ErrNotConnected while the
// transport reports the connection closed (for example mid-recovery); the
// caller is expected to retry.
func (pc *PersistentConnection) CreateModel() (Channel, error) {
	live, err := pc.ensureConnection()
	if err != nil {
		return nil, err
	}

	if !live.conn.IsOpen() {
		pc.metrics.recordError("create_model")
		return nil, errors.WrapTransient(errors.ErrNotConnected,
			"PersistentConnection", "CreateModel", "check connection state")
	}

	ch, err := live.pool.Get()
	if err != nil {
		pc.metrics.recordError("create_channel")
		return nil, errors.WrapTransient(err,
			"PersistentConnection", "CreateModel", "acquire channel")
	}
	return ch, nil
}

// Close tears the manager down exactly once: it takes ownership of the
// current connection reference, releases the relay subscriptions, and closes
// the underlying connection. Teardown failures are logged and swallowed.
// Subsequent calls are no-ops. After Close, CreateModel fails with
// errors.ErrNotConnected and IsConnected reports false.
func (pc *PersistentConnection) Close() error {
	if !pc.closed.CompareAndSwap(false, true) {
		return nil
	}

	// Serialize with any in-flight creation so we never close a connection
	// that is still being wired up.
	pc.mu.Lock()
	defer pc.mu.Unlock()

	live := pc.conn.Swap(nil)
	if live == nil {
		return nil
	}

	for _, sub := range live.subs {
		sub.Cancel()
	}

	// Channels are abandoned, not closed individually: closing the
	// connection closes them transitively.
	if err := live.conn.Close(); err != nil {
		pc.logger.Errorf("Error closing connection to %s: %v", live.conn.Endpoint(), err)
	}

	pc.metrics.recordClosed()
	pc.logger.Printf("Disposed connection to %s", live.conn.Endpoint())
	return nil
}

// ensureConnection returns the live connection, creating it under the lock
// if absent. Check-lock-check: the unsynchronized read keeps the hot path
// off the mutex.
func (pc *PersistentConnection) ensureConnection() (*liveConnection, error) {
	if live := pc.conn.Load(); live != nil {
		return live, nil
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.closed.Load() {
		return nil, errors.WrapTransient(errors.ErrNotConnected,
			"PersistentConnection", "Connect", "manager closed")
	}

	if live := pc.conn.Load(); live != nil {
		return live, nil
	}

	conn, err := pc.factory.CreateConnection(pc.cfg)
	if err != nil {
		pc.metrics.recordError("connect")
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrConnectionCreationFailed, err),
			"PersistentConnection", "Connect", "create connection")
	}

	recoverable, ok := conn.(RecoverableConnection)
	if !ok {
		// The factory result is unusable; don't leak the socket.
		if closeErr := conn.Close(); closeErr != nil {
			pc.logger.Errorf("Error closing unsupported connection: %v", closeErr)
		}
		pc.metrics.recordError("connect")
		return nil, errors.WrapFatal(errors.ErrUnsupportedConnection,
			"PersistentConnection", "Connect", "verify recovery capability")
	}

	live := &liveConnection{
		conn: recoverable,
		pool: newChannelPool(recoverable, pc.logger, pc.metrics),
	}
	live.subs = pc.wireEvents(recoverable)

	pc.conn.Store(live)

	endpoint := recoverable.Endpoint()
	pc.logger.Printf("Connected to broker %s", endpoint)
	pc.metrics.recordCreated()

	// Published synchronously, before Connect returns.
	pc.bus.Publish(eventbus.ConnectionCreated{Endpoint: endpoint})

	return live, nil
}
