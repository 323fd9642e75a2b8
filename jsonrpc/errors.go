package jsonrpc

import (
	"errors"
	"fmt"

	"github.com/krupt/go-jsonrpc/utils"
)

const (
	InvalidJSON    = -32700 // Invalid JSON was received by the server.
	InvalidRequest = -32600 // The JSON sent is not a valid Request object.
	MethodNotFound = -32601 // The method does not exist / is not available.
	InvalidParams  = -32602 // Invalid method parameter(s).
	InternalError  = -32603 // Internal JSON-RPC error.
	LimitExceeded  = -32005 // Request rejected by a server-side limit.
)

// Error is a JSON-RPC error object. Codes between -32768 and -32000 are reserved by the protocol,
// handlers are free to use any other code.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data == nil {
		return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("jsonrpc error %d: %s (%v)", e.Code, e.Message, e.Data)
}

func Err(code int, data any) *Error {
	switch code {
	case InvalidJSON:
		return &Error{Code: InvalidJSON, Message: "Parse error", Data: data}
	case InvalidRequest:
		return &Error{Code: InvalidRequest, Message: "Invalid Request", Data: data}
	case MethodNotFound:
		return &Error{Code: MethodNotFound, Message: "Method Not Found", Data: data}
	case InvalidParams:
		return &Error{Code: InvalidParams, Message: "Invalid Params", Data: data}
	case LimitExceeded:
		return &Error{Code: LimitExceeded, Message: "Limit exceeded", Data: data}
	default:
		return &Error{Code: InternalError, Message: "Internal Error", Data: data}
	}
}

//go:generate mockgen -destination=../mocks/mock_error_handler.go -package=mocks github.com/krupt/go-jsonrpc/jsonrpc ErrorHandler

// ErrorHandler turns an error returned by a handler into the error object sent to the client.
type ErrorHandler interface {
	Handle(method string, err error) *Error
}

// ErrorHandlerFunc adapts a function to the ErrorHandler interface.
type ErrorHandlerFunc func(method string, err error) *Error

func (f ErrorHandlerFunc) Handle(method string, err error) *Error {
	return f(method, err)
}

// DefaultErrorHandler passes *Error values through and reports anything else as an
// unhandled internal error.
type DefaultErrorHandler struct {
	log utils.SimpleLogger
}

func NewDefaultErrorHandler(log utils.SimpleLogger) *DefaultErrorHandler {
	return &DefaultErrorHandler{log: log}
}

func (h *DefaultErrorHandler) Handle(method string, err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	h.log.Errorw("Unhandled exception", "method", method, "err", err)
	return &Error{Code: InternalError, Message: "Unhandled exception", Data: err.Error()}
}
