//go:build windows

package jsonrpc

import (
	"context"
	"errors"
	"net"
)

var errNotSupported = errors.New("ipc: windows not supported")

func createListener(string) (net.Listener, error) {
	return nil, errNotSupported
}

func IpcDial(context.Context, string) (net.Conn, error) {
	return nil, errNotSupported
}
