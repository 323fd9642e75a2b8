package middleware

import (
	"context"

	"github.com/krupt/go-jsonrpc/jsonrpc"
	"golang.org/x/time/rate"
)

const rateLimitExceeded = "rate limit exceeded"

// RateLimit admits r invocations per second with bursts of up to burst, shared by all methods.
// Rejected invocations fail with LimitExceeded without reaching the method.
func RateLimit(r float64, burst int) jsonrpc.Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next jsonrpc.HandlerFunc) jsonrpc.HandlerFunc {
		return func(ctx context.Context, inv *jsonrpc.Invocation) (any, *jsonrpc.Error) {
			if !limiter.Allow() {
				return nil, jsonrpc.Err(jsonrpc.LimitExceeded, rateLimitExceeded)
			}
			return next(ctx, inv)
		}
	}
}
