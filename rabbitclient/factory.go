package rabbitclient

import (
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jwillmer/easynetq/config"
	"github.com/jwillmer/easynetq/errors"
	"github.com/jwillmer/easynetq/pkg/tlsutil"
)

// AMQPConnectionFactory dials RabbitMQ brokers over AMQP 0-9-1 and hands
// back recoverable connections. Hosts are tried in configuration order;
// the first reachable one wins.
type AMQPConnectionFactory struct {
	logger Logger
}

// NewAMQPConnectionFactory creates a factory for real broker connections.
func NewAMQPConnectionFactory(opts ...FactoryOption) *AMQPConnectionFactory {
	f := &AMQPConnectionFactory{
		logger: &defaultLogger{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateConnection implements ConnectionFactory.
func (f *AMQPConnectionFactory) CreateConnection(cfg *config.ConnectionConfig) (Connection, error) {
	if cfg == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"AMQPConnectionFactory", "CreateConnection", "check configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err,
			"AMQPConnectionFactory", "CreateConnection", "validate configuration")
	}

	conn, endpoint, err := dialFirst(cfg, f.logger)
	if err != nil {
		return nil, err
	}

	f.logger.Printf("Connected to %s (vhost %q, channel max %d)",
		endpoint, cfg.VirtualHost, conn.Config.ChannelMax)
	return newAMQPConnection(cfg, conn, endpoint, f.logger), nil
}

// dialFirst walks the configured hosts in order and returns the first
// successful connection together with the endpoint it landed on.
func dialFirst(cfg *config.ConnectionConfig, logger Logger) (*amqp.Connection, config.HostConfig, error) {
	var lastErr error
	for _, host := range cfg.Hosts {
		tlsCfg, err := tlsutil.LoadClientTLSConfig(cfg.EffectiveTLS(host))
		if err != nil {
			// TLS material problems are configuration errors, not
			// transient dial failures; no point trying further hosts.
			return nil, config.HostConfig{}, err
		}

		props := amqp.NewConnectionProperties()
		props.SetClientConnectionName(clientName(cfg))

		conn, err := amqp.DialConfig(cfg.URI(host), amqp.Config{
			Vhost:           cfg.VirtualHost,
			Heartbeat:       cfg.Heartbeat(),
			Properties:      props,
			TLSClientConfig: tlsCfg,
		})
		if err != nil {
			logger.Debugf("Dial %s failed: %v", host, err)
			lastErr = err
			continue
		}
		return conn, host, nil
	}

	return nil, config.HostConfig{}, errors.WrapTransient(
		fmt.Errorf("%w: %w", errors.ErrConnectionCreationFailed, lastErr),
		"AMQPConnectionFactory", "CreateConnection", "dial configured hosts")
}

// clientName picks the connection name advertised to the broker, visible in
// the management UI.
func clientName(cfg *config.ConnectionConfig) string {
	if cfg.ClientName != "" {
		return cfg.ClientName
	}
	return "easynetq-" + uuid.NewString()[:8]
}
