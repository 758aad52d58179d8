// Package retry provides simple exponential backoff retry logic for transient failures.
//
// The connection manager itself never retries; reconnecting a failed Connect or
// CreateModel call is deliberately the caller's responsibility. This package is
// the helper callers reach for when they do.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 50ms-1s delay (startup)
//   - Persistent(): 30 attempts, 200ms-10s delay (critical resources)
//
// # Usage
//
// Waiting out broker startup:
//
//	err := retry.Do(ctx, retry.Quick(), func() error {
//	    return conn.Connect()
//	})
//
// Acquiring a channel with a result:
//
//	ch, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (rabbitclient.Channel, error) {
//	    return conn.CreateModel()
//	})
//
// Marking an error as hopeless mid-retry:
//
//	return retry.NonRetryable(err)
package retry
