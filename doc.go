// Package easynetq is a RabbitMQ client library built around one idea: a
// single persistent broker connection per application, managed for you.
//
// # Architecture
//
// The module is organized around the connection manager and the small set of
// packages it leans on:
//
//	┌─────────────────────────────────────┐
//	│        rabbitclient                 │  Persistent connection,
//	│  (manager, pool, AMQP transport)    │  channel pool, recovery
//	└─────────────────────────────────────┘
//	           ↓ publishes to
//	┌─────────────────────────────────────┐
//	│          eventbus                   │  Lifecycle events:
//	│   (created, recovered, lost, ...)   │  topic-routed delivery
//	└─────────────────────────────────────┘
//
// Supporting packages:
//   - config: JSON connection configuration with env expansion and TLS
//   - errors: sentinel errors and transient/invalid/fatal classification
//   - metric: Prometheus registry and core connection metrics
//   - pkg/retry: exponential backoff with jitter
//   - pkg/tlsutil: client TLS material loading
//
// # Design Principles
//
// One connection, many channels: AMQP connections are expensive and
// channels are cheap, so the manager multiplexes all work over a single
// recovering connection and hands out channels through a bounded pool.
//
// Lazy and at-most-once: nothing is dialed until first use, concurrent
// first uses create exactly one connection, and a disposed manager stays
// disposed.
//
// Events over callbacks: lifecycle changes are published as typed events on
// a bus rather than through per-consumer callback plumbing, so any number
// of consumers can observe the connection without touching the manager.
//
// See the rabbitclient package documentation for usage examples, and
// cmd/easynetq-probe for a complete wired-up binary.
package easynetq
