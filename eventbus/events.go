package eventbus

import "github.com/jwillmer/easynetq/config"

// Topics used when publishing lifecycle events through a topic-based bus.
const (
	TopicConnectionCreated      = "connection.created"
	TopicConnectionRecovered    = "connection.recovered"
	TopicConnectionDisconnected = "connection.disconnected"
	TopicConnectionBlocked      = "connection.blocked"
	TopicConnectionUnblocked    = "connection.unblocked"
)

// ConnectionCreated is published once when a new broker connection is
// established, before the creating call returns.
type ConnectionCreated struct {
	Endpoint config.HostConfig
}

// ConnectionRecovered is published after the transport re-established a lost
// connection on its own.
type ConnectionRecovered struct {
	Endpoint config.HostConfig
}

// ConnectionDisconnected is published when the transport reports the
// connection shut down, from either side.
type ConnectionDisconnected struct {
	Endpoint config.HostConfig
	Reason   string
}

// ConnectionBlocked is published when the broker applies flow control to the
// connection.
type ConnectionBlocked struct {
	Reason string
}

// ConnectionUnblocked is published when the broker lifts flow control.
type ConnectionUnblocked struct{}

// TopicFor maps a lifecycle event value to its bus topic. Unknown event types
// map to the empty string.
func TopicFor(event any) string {
	switch event.(type) {
	case ConnectionCreated, *ConnectionCreated:
		return TopicConnectionCreated
	case ConnectionRecovered, *ConnectionRecovered:
		return TopicConnectionRecovered
	case ConnectionDisconnected, *ConnectionDisconnected:
		return TopicConnectionDisconnected
	case ConnectionBlocked, *ConnectionBlocked:
		return TopicConnectionBlocked
	case ConnectionUnblocked, *ConnectionUnblocked:
		return TopicConnectionUnblocked
	default:
		return ""
	}
}
