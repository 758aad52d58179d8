// Package rabbitclient provides a persistent RabbitMQ connection manager
// with lazy connection creation, automatic recovery, a bounded channel pool,
// and lifecycle event relay to an event bus.
//
// The rabbitclient package wraps the AMQP 0-9-1 Go client with the
// connection discipline a long-running message bus client needs: one broker
// connection per manager, created on first use and never more than once at a
// time, with channels multiplexed over it instead of extra connections. It
// serves as the foundation for all broker communication in this framework.
//
// # Core Features
//
// Lazy, at-most-once connection creation: the connection is dialed on the
// first Connect or CreateModel call. Concurrent first calls are serialized
// so exactly one connection is created; subsequent calls reuse it without
// taking the lock. A failed creation attempt caches nothing, so the next
// call simply retries.
//
// Automatic recovery: the transport redials a lost connection on its own,
// keeping the caller-visible identity, and announces completed recoveries.
// The manager requires this capability and rejects connections that lack it
// with errors.ErrUnsupportedConnection.
//
// Bounded channel pool: channels are tracked up to the server-advertised
// channel maximum. Below the cap every CreateModel opens a fresh channel
// that removes itself from the pool when it shuts down, from either side.
// At the cap the most recently added channel is handed out again rather
// than failing.
//
// Lifecycle event relay: connection created, recovered, disconnected,
// blocked, and unblocked are published to an eventbus.Bus, wired exactly
// once per underlying connection. The created event is published
// synchronously before the creating call returns.
//
// # Basic Usage
//
// Creating and connecting to RabbitMQ:
//
//	cfg := &config.ConnectionConfig{
//	    Hosts: []config.HostConfig{{Host: "localhost", Port: 5672}},
//	}
//	cfg.Normalize()
//
//	pc, err := rabbitclient.NewPersistentConnection(cfg,
//	    rabbitclient.NewAMQPConnectionFactory())
//	if err != nil {
//	    return err
//	}
//	defer pc.Close()
//
//	ch, err := pc.CreateModel()
//	if err != nil {
//	    return err
//	}
//	defer ch.Close()
//
// # Lifecycle Events
//
// Subscribing to lifecycle events through a bus:
//
//	bus := eventbus.NewAsyncBus()
//	bus.Subscribe(eventbus.TopicConnectionDisconnected,
//	    func(e eventbus.ConnectionDisconnected) {
//	        log.Printf("lost %s: %s", e.Endpoint, e.Reason)
//	    })
//
//	pc, err := rabbitclient.NewPersistentConnection(cfg, factory,
//	    rabbitclient.WithEventBus(bus),
//	    rabbitclient.WithLogger(myLogger),
//	    rabbitclient.WithMetrics(registry))
//
// # Testing
//
// The package exports in-memory fakes (FakeConnectionFactory,
// FakeConnection, FakeChannel) so consumers can exercise connection
// lifecycle behavior, including blocked and recovered notifications,
// without a broker. Integration tests against a real broker use
// testcontainers and are skipped in short mode.
package rabbitclient
