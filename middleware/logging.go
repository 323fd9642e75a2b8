// Package middleware provides jsonrpc.Middleware implementations installed with Server.Use.
package middleware

import (
	"context"
	"time"

	"github.com/krupt/go-jsonrpc/jsonrpc"
	"github.com/krupt/go-jsonrpc/utils"
)

// Logging logs every invocation at debug level with its duration, and failures at warn level.
func Logging(log utils.SimpleLogger) jsonrpc.Middleware {
	return func(next jsonrpc.HandlerFunc) jsonrpc.HandlerFunc {
		return func(ctx context.Context, inv *jsonrpc.Invocation) (any, *jsonrpc.Error) {
			start := time.Now()
			result, rpcErr := next(ctx, inv)
			took := time.Since(start)
			if rpcErr != nil {
				log.Warnw("Method failed", "method", inv.Method, "id", inv.ID, "took", took,
					"code", rpcErr.Code, "message", rpcErr.Message)
				return result, rpcErr
			}
			log.Debugw("Method handled", "method", inv.Method, "id", inv.ID, "took", took)
			return result, nil
		}
	}
}
