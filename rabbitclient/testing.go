package rabbitclient

import (
	"sync"

	"github.com/jwillmer/easynetq/config"
)

// FakeConnectionFactory is an in-memory ConnectionFactory for tests. It
// counts creations, can be told to fail, and hands out the connection it
// was configured with.
type FakeConnectionFactory struct {
	mu        sync.Mutex
	creations int

	// Err, when set, is returned from every CreateConnection call.
	Err error
	// Conn is returned on success. When nil a fresh FakeConnection is
	// created per call.
	Conn Connection
}

// CreateConnection implements ConnectionFactory.
func (f *FakeConnectionFactory) CreateConnection(_ *config.ConnectionConfig) (Connection, error) {
	f.mu.Lock()
	f.creations++
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if f.Conn != nil {
		return f.Conn, nil
	}
	return NewFakeConnection(), nil
}

// Creations reports how many times CreateConnection was called.
func (f *FakeConnectionFactory) Creations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creations
}

// FakeConnection is an in-memory RecoverableConnection. Tests drive it with
// the Simulate methods to exercise the event relay without a broker.
type FakeConnection struct {
	mu         sync.Mutex
	open       bool
	maxChans   uint16
	endpoint   config.HostConfig
	nextChanID int
	closes     int

	nextSubID int
	shutdown  map[int]func(string)
	blocked   map[int]func(string)
	unblocked map[int]func()
	recovered map[int]func()
}

// NewFakeConnection returns an open fake connection with an unbounded
// channel budget.
func NewFakeConnection() *FakeConnection {
	return &FakeConnection{
		open:      true,
		endpoint:  config.HostConfig{Host: "fake", Port: config.DefaultPort},
		shutdown:  make(map[int]func(string)),
		blocked:   make(map[int]func(string)),
		unblocked: make(map[int]func()),
		recovered: make(map[int]func()),
	}
}

// SetOpen flips the reported liveness without firing any callbacks.
func (c *FakeConnection) SetOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

// SetMaxChannels sets the channel budget reported to the pool. Zero means
// unbounded.
func (c *FakeConnection) SetMaxChannels(n uint16) {
	c.mu.Lock()
	c.maxChans = n
	c.mu.Unlock()
}

// Closes reports how many times Close was called.
func (c *FakeConnection) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// IsOpen implements Connection.
func (c *FakeConnection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// MaxChannels implements Connection.
func (c *FakeConnection) MaxChannels() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxChans
}

// Endpoint implements Connection.
func (c *FakeConnection) Endpoint() config.HostConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// CreateChannel implements Connection. IDs are sequential starting at 1.
func (c *FakeConnection) CreateChannel() (Channel, error) {
	c.mu.Lock()
	c.nextChanID++
	id := c.nextChanID
	c.mu.Unlock()
	return NewFakeChannel(id), nil
}

// Close implements Connection.
func (c *FakeConnection) Close() error {
	c.mu.Lock()
	c.open = false
	c.closes++
	c.mu.Unlock()
	return nil
}

// OnShutdown implements Connection.
func (c *FakeConnection) OnShutdown(fn func(reason string)) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.shutdown[id] = fn
	return NewSubscription(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.shutdown, id)
	})
}

// OnBlocked implements Connection.
func (c *FakeConnection) OnBlocked(fn func(reason string)) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.blocked[id] = fn
	return NewSubscription(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.blocked, id)
	})
}

// OnUnblocked implements Connection.
func (c *FakeConnection) OnUnblocked(fn func()) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.unblocked[id] = fn
	return NewSubscription(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.unblocked, id)
	})
}

// OnRecovered implements RecoverableConnection.
func (c *FakeConnection) OnRecovered(fn func()) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.recovered[id] = fn
	return NewSubscription(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.recovered, id)
	})
}

// SimulateShutdown marks the connection closed and fires shutdown callbacks.
func (c *FakeConnection) SimulateShutdown(reason string) {
	c.mu.Lock()
	c.open = false
	fns := make([]func(string), 0, len(c.shutdown))
	for _, fn := range c.shutdown {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(reason)
	}
}

// SimulateBlocked fires the blocked callbacks.
func (c *FakeConnection) SimulateBlocked(reason string) {
	c.mu.Lock()
	fns := make([]func(string), 0, len(c.blocked))
	for _, fn := range c.blocked {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(reason)
	}
}

// SimulateUnblocked fires the unblocked callbacks.
func (c *FakeConnection) SimulateUnblocked() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.unblocked))
	for _, fn := range c.unblocked {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// SimulateRecovered marks the connection open again and fires recovered
// callbacks.
func (c *FakeConnection) SimulateRecovered() {
	c.mu.Lock()
	c.open = true
	fns := make([]func(), 0, len(c.recovered))
	for _, fn := range c.recovered {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// NonRecoverableConnection is a Connection that deliberately does not
// implement RecoverableConnection, for exercising the capability check.
type NonRecoverableConnection struct {
	inner *FakeConnection
}

// NewNonRecoverableConnection returns an open non-recoverable connection.
func NewNonRecoverableConnection() *NonRecoverableConnection {
	return &NonRecoverableConnection{inner: NewFakeConnection()}
}

// Closes reports how many times Close was called.
func (c *NonRecoverableConnection) Closes() int { return c.inner.Closes() }

// IsOpen implements Connection.
func (c *NonRecoverableConnection) IsOpen() bool { return c.inner.IsOpen() }

// MaxChannels implements Connection.
func (c *NonRecoverableConnection) MaxChannels() uint16 { return c.inner.MaxChannels() }

// Endpoint implements Connection.
func (c *NonRecoverableConnection) Endpoint() config.HostConfig { return c.inner.Endpoint() }

// CreateChannel implements Connection.
func (c *NonRecoverableConnection) CreateChannel() (Channel, error) { return c.inner.CreateChannel() }

// Close implements Connection.
func (c *NonRecoverableConnection) Close() error { return c.inner.Close() }

// OnShutdown implements Connection.
func (c *NonRecoverableConnection) OnShutdown(fn func(string)) Subscription {
	return c.inner.OnShutdown(fn)
}

// OnBlocked implements Connection.
func (c *NonRecoverableConnection) OnBlocked(fn func(string)) Subscription {
	return c.inner.OnBlocked(fn)
}

// OnUnblocked implements Connection.
func (c *NonRecoverableConnection) OnUnblocked(fn func()) Subscription {
	return c.inner.OnUnblocked(fn)
}

// FakeChannel is an in-memory Channel with a caller-assigned ID.
type FakeChannel struct {
	id int

	mu        sync.Mutex
	closed    bool
	nextSubID int
	shutdown  map[int]func(string)
}

// NewFakeChannel returns an open fake channel with the given ID.
func NewFakeChannel(id int) *FakeChannel {
	return &FakeChannel{
		id:       id,
		shutdown: make(map[int]func(string)),
	}
}

// ID implements Channel.
func (c *FakeChannel) ID() int { return c.id }

// Closed reports whether Close was called.
func (c *FakeChannel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close implements Channel. It fires the shutdown callbacks synchronously,
// once.
func (c *FakeChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	fns := make([]func(string), 0, len(c.shutdown))
	for _, fn := range c.shutdown {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn("channel closed")
	}
	return nil
}

// OnShutdown implements Channel.
func (c *FakeChannel) OnShutdown(fn func(reason string)) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	c.shutdown[id] = fn
	return NewSubscription(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.shutdown, id)
	})
}
