package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger covers pgxpool.Pool, redis.Client, and anything else that exposes
// a context-aware ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck returns a CheckFunc probing a dependency's connectivity.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// GoroutineCountCheck reports unhealthy when the goroutine count exceeds
// threshold, catching leaks before they take the process down.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}
