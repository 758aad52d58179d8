// Package errors provides standardized error handling patterns for the
// EasyNetQ client library.
//
// # Error Classification
//
// Errors are classified into three classes that drive caller behavior:
//
//   - Transient: temporary failures worth retrying (connection refused,
//     broker not yet reachable, channel creation during recovery)
//   - Invalid: bad input or configuration, retrying will not help
//   - Fatal: unrecoverable conditions (a factory that hands back a
//     connection without recovery support)
//
// # Standard Errors
//
// The package defines sentinel errors for the conditions callers are
// expected to branch on:
//
//	errors.Is(err, errors.ErrNotConnected)          // retry after recovery
//	errors.Is(err, errors.ErrUnsupportedConnection) // fatal, fix the factory
//	errors.Is(err, errors.ErrConnectionCreationFailed)
//
// # Wrapping
//
// Use the Wrap helpers to attach component/operation context while keeping
// the sentinel reachable through errors.Is:
//
//	return errors.WrapTransient(err, "PersistentConnection", "Connect", "create connection")
//
// # Retry Integration
//
// RetryConfig bridges classification to the pkg/retry backoff helpers:
//
//	cfg := errors.DefaultRetryConfig()
//	err := retry.Do(ctx, cfg.ToRetryConfig(), func() error {
//	    _, err := conn.CreateModel()
//	    return err
//	})
package errors
