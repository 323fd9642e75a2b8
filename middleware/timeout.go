package middleware

import (
	"context"
	"time"

	"github.com/krupt/go-jsonrpc/jsonrpc"
)

const requestTimedOut = "request timed out"

type outcome struct {
	result any
	err    *jsonrpc.Error
}

// Timeout bounds every invocation to d. The method keeps running with a cancelled context
// after the deadline, its outcome is discarded.
func Timeout(d time.Duration) jsonrpc.Middleware {
	return func(next jsonrpc.HandlerFunc) jsonrpc.HandlerFunc {
		return func(ctx context.Context, inv *jsonrpc.Invocation) (any, *jsonrpc.Error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			done := make(chan outcome, 1)
			go func() {
				result, err := next(ctx, inv)
				done <- outcome{result: result, err: err}
			}()

			select {
			case o := <-done:
				return o.result, o.err
			case <-ctx.Done():
				return nil, jsonrpc.Err(jsonrpc.InternalError, requestTimedOut)
			}
		}
	}
}
