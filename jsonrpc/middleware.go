package jsonrpc

import "context"

// Invocation is a single request travelling through the middleware chain.
type Invocation struct {
	Method string
	// ID is nil for notifications.
	ID     any
	Params any
}

func (i *Invocation) IsNotification() bool {
	return i.ID == nil
}

type HandlerFunc func(ctx context.Context, inv *Invocation) (any, *Error)

// Middleware wraps a HandlerFunc. It may short-circuit by returning without calling next.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares so that the first one is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Use appends middlewares to the chain every request passes through before reaching its method.
// It must be called before the server starts serving.
func (s *Server) Use(middlewares ...Middleware) *Server {
	s.middlewares = append(s.middlewares, middlewares...)
	s.handler = Chain(s.middlewares...)(s.dispatch)
	return s
}
