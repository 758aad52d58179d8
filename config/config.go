// Package config defines the immutable connection configuration consumed by
// the EasyNetQ connection factory: an ordered list of broker hosts with
// optional per-host TLS overrides and a connection-wide TLS fallback.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Defaults applied by Normalize when fields are unset
const (
	DefaultPort             = 5672
	DefaultTLSPort          = 5671
	DefaultVirtualHost      = "/"
	DefaultUsername         = "guest"
	DefaultPassword         = "guest"
	DefaultHeartbeat        = 10 * time.Second
	DefaultRecoveryInterval = 5 * time.Second
)

// TLSConfig describes TLS settings for a broker endpoint. A nil *TLSConfig or
// Enabled=false means plain TCP.
type TLSConfig struct {
	Enabled            bool     `json:"enabled"`
	CAFiles            []string `json:"ca_files,omitempty"`
	CertFile           string   `json:"cert_file,omitempty"`
	KeyFile            string   `json:"key_file,omitempty"`
	ServerName         string   `json:"server_name,omitempty"`
	MinVersion         string   `json:"min_version,omitempty"` // "1.2" or "1.3"
	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty"`
}

// HostConfig identifies one broker endpoint. TLS, when set, overrides the
// connection-wide fallback for this host only.
type HostConfig struct {
	Host string     `json:"host"`
	Port int        `json:"port"`
	TLS  *TLSConfig `json:"tls,omitempty"`
}

// String formats the endpoint as host:port for logs and events.
func (h HostConfig) String() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// ConnectionConfig is the read-only input to connection creation. Construct
// it, call Normalize and Validate once, and treat it as immutable afterwards.
type ConnectionConfig struct {
	Hosts       []HostConfig `json:"hosts"`
	TLS         *TLSConfig   `json:"tls,omitempty"` // fallback for hosts without their own
	VirtualHost string       `json:"virtual_host,omitempty"`
	Username    string       `json:"username,omitempty"`
	Password    string       `json:"password,omitempty"`
	ClientName  string       `json:"client_name,omitempty"`

	// Seconds; zero picks the defaults above.
	HeartbeatSeconds        int `json:"heartbeat_seconds,omitempty"`
	RecoveryIntervalSeconds int `json:"recovery_interval_seconds,omitempty"`
}

// Load reads a JSON connection configuration from path. Environment variable
// references of the form ${VAR} in the file are expanded before parsing, so
// credentials can stay out of the file itself.
func Load(path string) (*ConnectionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	var cfg ConnectionConfig
	if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills unset fields with defaults. Hosts without a port get the
// plain or TLS default port depending on their effective TLS setting.
func (c *ConnectionConfig) Normalize() {
	if c.VirtualHost == "" {
		c.VirtualHost = DefaultVirtualHost
	}
	if c.Username == "" {
		c.Username = DefaultUsername
	}
	if c.Password == "" {
		c.Password = DefaultPassword
	}
	for i := range c.Hosts {
		if c.Hosts[i].Port == 0 {
			if tls := c.EffectiveTLS(c.Hosts[i]); tls != nil && tls.Enabled {
				c.Hosts[i].Port = DefaultTLSPort
			} else {
				c.Hosts[i].Port = DefaultPort
			}
		}
	}
}

// Validate reports the first structural problem found.
func (c *ConnectionConfig) Validate() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("config: hosts list is empty")
	}
	for i, h := range c.Hosts {
		if h.Host == "" {
			return fmt.Errorf("config: host %d has no hostname", i)
		}
		if h.Port < 0 || h.Port > 65535 {
			return fmt.Errorf("config: host %d has invalid port %d", i, h.Port)
		}
	}
	if c.HeartbeatSeconds < 0 {
		return fmt.Errorf("config: heartbeat_seconds cannot be negative")
	}
	if c.RecoveryIntervalSeconds < 0 {
		return fmt.Errorf("config: recovery_interval_seconds cannot be negative")
	}
	return nil
}

// EffectiveTLS resolves the TLS settings for one host: the host's own
// settings when present, the connection-wide fallback otherwise.
func (c *ConnectionConfig) EffectiveTLS(h HostConfig) *TLSConfig {
	if h.TLS != nil {
		return h.TLS
	}
	return c.TLS
}

// Heartbeat returns the negotiated heartbeat interval.
func (c *ConnectionConfig) Heartbeat() time.Duration {
	if c.HeartbeatSeconds > 0 {
		return time.Duration(c.HeartbeatSeconds) * time.Second
	}
	return DefaultHeartbeat
}

// RecoveryInterval returns the delay between automatic recovery attempts.
func (c *ConnectionConfig) RecoveryInterval() time.Duration {
	if c.RecoveryIntervalSeconds > 0 {
		return time.Duration(c.RecoveryIntervalSeconds) * time.Second
	}
	return DefaultRecoveryInterval
}

// URI builds the AMQP URI for one host, with credentials escaped. The scheme
// is amqps when the host's effective TLS settings enable TLS.
func (c *ConnectionConfig) URI(h HostConfig) string {
	scheme := "amqp"
	if tls := c.EffectiveTLS(h); tls != nil && tls.Enabled {
		scheme = "amqps"
	}
	vhost := c.VirtualHost
	if vhost == "/" {
		vhost = ""
	}
	return fmt.Sprintf("%s://%s:%s@%s:%d/%s",
		scheme,
		url.QueryEscape(c.Username),
		url.QueryEscape(c.Password),
		h.Host, h.Port,
		url.PathEscape(vhost),
	)
}
