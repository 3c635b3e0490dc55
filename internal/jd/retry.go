package jd

import (
	"context"
	"errors"

	"github.com/Timmy93/MyJDProxy/internal/myjd"
)

// runWithRetry invokes op against the current device handle, recovering
// exactly once from a token-invalid failure by refreshing the connection
// and re-invoking op. Any other failure propagates immediately as an
// OperationError. A second consecutive token rejection after a fresh
// session is treated as non-transient and not retried further.
func runWithRetry[T any](ctx context.Context, c *Client, name string, op func(Device) (T, error)) (T, error) {
	var zero T

	device, gen, err := c.acquireDevice(ctx)
	if err != nil {
		return zero, err
	}

	out, err := op(device)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, myjd.ErrTokenInvalid) {
		return zero, &OperationError{Op: name, Err: err}
	}

	c.log.Warn().Str("op", name).Msg("session token rejected, refreshing connection")
	if !c.refreshConnection(ctx, gen) {
		return zero, &OperationError{Op: name, Err: err}
	}

	device, _, err = c.acquireDevice(ctx)
	if err != nil {
		return zero, err
	}

	out, err = op(device)
	if err != nil {
		return zero, &OperationError{Op: name, Err: err}
	}
	return out, nil
}
