package jsonrpc

import "time"

//go:generate mockgen -destination=../mocks/mock_event_listener.go -package=mocks github.com/krupt/go-jsonrpc/jsonrpc EventListener

// UnknownMethod is reported to an EventListener in place of a method name that is not registered.
const UnknownMethod = "unknown"

// NewRequestListener is notified by transports when a message arrives, before it is decoded.
type NewRequestListener interface {
	OnNewRequest(method string)
}

// EventListener observes every request the Server dispatches. Notifications are reported too.
type EventListener interface {
	NewRequestListener
	OnRequestHandled(method string, took time.Duration)
	OnRequestFailed(method string, err *Error)
}

// SelectiveListener forwards only the events that have a callback set.
type SelectiveListener struct {
	OnNewRequestCb     func(method string)
	OnRequestHandledCb func(method string, took time.Duration)
	OnRequestFailedCb  func(method string, err *Error)
}

func (l *SelectiveListener) OnNewRequest(method string) {
	if l.OnNewRequestCb != nil {
		l.OnNewRequestCb(method)
	}
}

func (l *SelectiveListener) OnRequestHandled(method string, took time.Duration) {
	if l.OnRequestHandledCb != nil {
		l.OnRequestHandledCb(method, took)
	}
}

func (l *SelectiveListener) OnRequestFailed(method string, err *Error) {
	if l.OnRequestFailedCb != nil {
		l.OnRequestFailedCb(method, err)
	}
}
