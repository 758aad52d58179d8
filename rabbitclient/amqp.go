package rabbitclient

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jwillmer/easynetq/config"
	"github.com/jwillmer/easynetq/errors"
)

// amqpConnection is the production RecoverableConnection, wrapping an AMQP
// 0-9-1 connection with an automatic recovery loop. When the broker drops
// the connection it redials with the same configuration on its own goroutine,
// keeps the caller-visible identity, and fires the recovered signal.
type amqpConnection struct {
	cfg    *config.ConnectionConfig
	logger Logger

	// Negotiated at first dial and kept stable across recovery.
	channelMax uint16

	mu       sync.Mutex
	conn     *amqp.Connection
	endpoint config.HostConfig

	closed        atomic.Bool
	nextChannelID atomic.Int64

	handlersMu        sync.Mutex
	nextSubID         int
	shutdownHandlers  map[int]func(string)
	blockedHandlers   map[int]func(string)
	unblockedHandlers map[int]func()
	recoveredHandlers map[int]func()
}

func newAMQPConnection(cfg *config.ConnectionConfig, conn *amqp.Connection, endpoint config.HostConfig, logger Logger) *amqpConnection {
	c := &amqpConnection{
		cfg:               cfg,
		logger:            logger,
		channelMax:        conn.Config.ChannelMax,
		conn:              conn,
		endpoint:          endpoint,
		shutdownHandlers:  make(map[int]func(string)),
		blockedHandlers:   make(map[int]func(string)),
		unblockedHandlers: make(map[int]func()),
		recoveredHandlers: make(map[int]func()),
	}
	go c.watch(conn)
	return c
}

// IsOpen implements Connection.
func (c *amqpConnection) IsOpen() bool {
	if c.closed.Load() {
		return false
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	return conn != nil && !conn.IsClosed()
}

// MaxChannels implements Connection.
func (c *amqpConnection) MaxChannels() uint16 {
	return c.channelMax
}

// Endpoint implements Connection.
func (c *amqpConnection) Endpoint() config.HostConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// CreateChannel implements Connection.
func (c *amqpConnection) CreateChannel() (Channel, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if c.closed.Load() || conn == nil || conn.IsClosed() {
		return nil, errors.WrapTransient(errors.ErrNotConnected,
			"amqpConnection", "CreateChannel", "check connection state")
	}

	raw, err := conn.Channel()
	if err != nil {
		return nil, errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrChannelCreationFailed, err),
			"amqpConnection", "CreateChannel", "open channel")
	}

	return newAMQPChannel(int(c.nextChannelID.Add(1)), raw, c.logger), nil
}

// Close implements Connection. Closing the connection closes its channels
// transitively; the recovery loop stops.
func (c *amqpConnection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}
	return conn.Close()
}

// OnShutdown implements Connection.
func (c *amqpConnection) OnShutdown(fn func(reason string)) Subscription {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.shutdownHandlers[id] = fn
	return NewSubscription(func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()
		delete(c.shutdownHandlers, id)
	})
}

// OnBlocked implements Connection.
func (c *amqpConnection) OnBlocked(fn func(reason string)) Subscription {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.blockedHandlers[id] = fn
	return NewSubscription(func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()
		delete(c.blockedHandlers, id)
	})
}

// OnUnblocked implements Connection.
func (c *amqpConnection) OnUnblocked(fn func()) Subscription {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.unblockedHandlers[id] = fn
	return NewSubscription(func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()
		delete(c.unblockedHandlers, id)
	})
}

// OnRecovered implements RecoverableConnection.
func (c *amqpConnection) OnRecovered(fn func()) Subscription {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.recoveredHandlers[id] = fn
	return NewSubscription(func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()
		delete(c.recoveredHandlers, id)
	})
}

// watch relays transport notifications for one underlying *amqp.Connection
// until it dies, then hands off to the recovery loop. Runs on its own
// goroutine; a recovered connection gets a fresh watcher.
func (c *amqpConnection) watch(conn *amqp.Connection) {
	closeCh := conn.NotifyClose(make(chan *amqp.Error, 1))
	blockCh := conn.NotifyBlocked(make(chan amqp.Blocking, 8))

	for {
		select {
		case blocking, ok := <-blockCh:
			if !ok {
				blockCh = nil
				continue
			}
			if blocking.Active {
				c.fireBlocked(blocking.Reason)
			} else {
				c.fireUnblocked()
			}

		case amqpErr, ok := <-closeCh:
			reason := "connection closed"
			if ok && amqpErr != nil {
				reason = amqpErr.Error()
			}
			c.fireShutdown(reason)

			if c.closed.Load() {
				return
			}
			go c.recoverLoop()
			return
		}
	}
}

// recoverLoop redials until it succeeds or the connection is closed for
// good. The interval comes from the configuration; there is no backoff
// escalation here, matching the transport's steady retry contract.
func (c *amqpConnection) recoverLoop() {
	interval := c.cfg.RecoveryInterval()

	for !c.closed.Load() {
		conn, endpoint, err := dialFirst(c.cfg, c.logger)
		if err != nil {
			c.logger.Errorf("Recovery attempt failed: %v", err)
			time.Sleep(interval)
			continue
		}

		c.mu.Lock()
		if c.closed.Load() {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.endpoint = endpoint
		c.mu.Unlock()

		c.logger.Printf("Recovered connection to %s", endpoint)
		go c.watch(conn)
		c.fireRecovered()
		return
	}
}

func (c *amqpConnection) fireShutdown(reason string) {
	for _, fn := range c.snapshotReasonHandlers(c.shutdownHandlers) {
		fn(reason)
	}
}

func (c *amqpConnection) fireBlocked(reason string) {
	for _, fn := range c.snapshotReasonHandlers(c.blockedHandlers) {
		fn(reason)
	}
}

func (c *amqpConnection) fireUnblocked() {
	c.handlersMu.Lock()
	fns := make([]func(), 0, len(c.unblockedHandlers))
	for _, fn := range c.unblockedHandlers {
		fns = append(fns, fn)
	}
	c.handlersMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *amqpConnection) fireRecovered() {
	c.handlersMu.Lock()
	fns := make([]func(), 0, len(c.recoveredHandlers))
	for _, fn := range c.recoveredHandlers {
		fns = append(fns, fn)
	}
	c.handlersMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// snapshotReasonHandlers copies a handler set out of the lock so callbacks
// run without holding it.
func (c *amqpConnection) snapshotReasonHandlers(m map[int]func(string)) []func(string) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	fns := make([]func(string), 0, len(m))
	for _, fn := range m {
		fns = append(fns, fn)
	}
	return fns
}

// amqpChannel wraps one *amqp.Channel with an identity and shutdown fan-out.
type amqpChannel struct {
	id     int
	logger Logger
	ch     *amqp.Channel

	closed     atomic.Bool
	userClosed atomic.Bool

	handlersMu       sync.Mutex
	nextSubID        int
	shutdownHandlers map[int]func(string)
}

func newAMQPChannel(id int, ch *amqp.Channel, logger Logger) *amqpChannel {
	c := &amqpChannel{
		id:               id,
		logger:           logger,
		ch:               ch,
		shutdownHandlers: make(map[int]func(string)),
	}
	go c.watch()
	return c
}

// ID implements Channel.
func (c *amqpChannel) ID() int {
	return c.id
}

// Raw exposes the underlying AMQP channel for publishing and consuming,
// which are outside the connection manager's responsibility.
func (c *amqpChannel) Raw() *amqp.Channel {
	return c.ch
}

// Close implements Channel. The shutdown callbacks fire via the transport's
// close notification, not synchronously here.
func (c *amqpChannel) Close() error {
	if c.closed.Load() || !c.userClosed.CompareAndSwap(false, true) {
		return nil
	}
	return c.ch.Close()
}

// OnShutdown implements Channel.
func (c *amqpChannel) OnShutdown(fn func(reason string)) Subscription {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.shutdownHandlers[id] = fn
	return NewSubscription(func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()
		delete(c.shutdownHandlers, id)
	})
}

// watch waits for the channel to die, from either side, and fans the reason
// out to the registered callbacks exactly once.
func (c *amqpChannel) watch() {
	amqpErr, ok := <-c.ch.NotifyClose(make(chan *amqp.Error, 1))
	reason := "channel closed"
	if ok && amqpErr != nil {
		reason = amqpErr.Error()
	}
	c.closed.Store(true)

	c.handlersMu.Lock()
	fns := make([]func(string), 0, len(c.shutdownHandlers))
	for _, fn := range c.shutdownHandlers {
		fns = append(fns, fn)
	}
	c.handlersMu.Unlock()

	c.logger.Debugf("Channel %d shut down: %s", c.id, reason)
	for _, fn := range fns {
		fn(reason)
	}
}
