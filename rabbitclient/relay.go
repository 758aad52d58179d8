package rabbitclient

import (
	"github.com/jwillmer/easynetq/eventbus"
)

// wireEvents attaches the lifecycle relay to a freshly created connection.
// It runs exactly once per underlying connection, never per channel. The
// returned subscriptions are released during Close so no callback can reach
// a torn-down manager.
//
// Handlers run on the transport's goroutines; they only log and publish,
// never touch the manager's lock.
func (pc *PersistentConnection) wireEvents(conn RecoverableConnection) []Subscription {
	endpoint := conn.Endpoint()

	return []Subscription{
		conn.OnShutdown(func(reason string) {
			pc.logger.Printf("Disconnected from broker %s: %s", endpoint, reason)
			pc.metrics.recordDisconnect()
			pc.bus.Publish(eventbus.ConnectionDisconnected{Endpoint: endpoint, Reason: reason})
		}),

		conn.OnBlocked(func(reason string) {
			pc.logger.Printf("Connection to %s blocked by broker: %s", endpoint, reason)
			pc.metrics.recordBlocked(true)
			pc.bus.Publish(eventbus.ConnectionBlocked{Reason: reason})
		}),

		conn.OnUnblocked(func() {
			pc.logger.Printf("Connection to %s unblocked by broker", endpoint)
			pc.metrics.recordBlocked(false)
			pc.bus.Publish(eventbus.ConnectionUnblocked{})
		}),

		conn.OnRecovered(func() {
			pc.logger.Printf("Connection to %s recovered", endpoint)
			pc.metrics.recordRecovered()
			pc.bus.Publish(eventbus.ConnectionRecovered{Endpoint: endpoint})
		}),
	}
}
