package pg

import (
	"context"
	"time"
)

// advisoryLockID is the fixed slot shared by every instance of the tool
// connecting to the same database. Only the holder may create indexes.
const advisoryLockID = 123456

// WithAdvisoryLock runs fn while holding the process-wide advisory lock,
// polling every second until it is acquired. The lock is released on every
// exit path, including a panic inside fn; release errors are suppressed.
func (c *Conn) WithAdvisoryLock(ctx context.Context, fn func() error) error {
	waited := false
	for {
		var acquired bool
		if err := c.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", advisoryLockID).Scan(&acquired); err != nil {
			return err
		}
		if acquired {
			break
		}
		if !waited {
			c.log.Info("Waiting for lock...")
			waited = true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}

	defer func() {
		// Release must not depend on fn's outcome. A failed unlock only
		// matters when the session is already gone, so errors are dropped.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Exec(releaseCtx, "SELECT pg_advisory_unlock($1)", advisoryLockID)
	}()

	return fn()
}
