package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/krupt/go-jsonrpc/utils"
	"github.com/sourcegraph/conc"
)

// Ipc serves JSON-RPC over a local stream socket. Messages are consecutive JSON values and
// every response is terminated by a newline.
type Ipc struct {
	rpc      *Server
	log      utils.SimpleLogger
	listener net.Listener
	events   NewRequestListener

	wg conc.WaitGroup
	// mu protects conns and closed.
	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

func NewIpc(rpc *Server, log utils.SimpleLogger, endpoint string) (*Ipc, error) {
	listener, err := createListener(endpoint)
	if err != nil {
		return nil, err
	}
	return &Ipc{
		rpc:      rpc,
		log:      log,
		listener: listener,
		events:   &SelectiveListener{},
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// WithListener registers a NewRequestListener
func (i *Ipc) WithListener(listener NewRequestListener) *Ipc {
	i.events = listener
	return i
}

// Run accepts connections until ctx is cancelled, then closes every open connection.
func (i *Ipc) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- i.serve(ctx)
	}()

	select {
	case <-ctx.Done():
		return i.stop()
	case err := <-errCh:
		if stopErr := i.stop(); err == nil {
			err = stopErr
		}
		return err
	}
}

func (i *Ipc) serve(ctx context.Context) error {
	for {
		conn, err := i.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		i.mu.Lock()
		if i.closed {
			i.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		i.conns[conn] = struct{}{}
		i.wg.Go(func() {
			defer i.closeConn(conn)
			i.handleConn(ctx, conn)
		})
		i.mu.Unlock()
	}
}

func (i *Ipc) handleConn(ctx context.Context, conn net.Conn) {
	dec := json.NewDecoder(conn)
	for {
		var msg json.RawMessage
		if err := dec.Decode(&msg); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				i.log.Debugw("Failed to read IPC message", "err", err)
				// The stream can't be resynchronised after malformed input.
				i.write(conn, &response{Version: "2.0", Error: Err(InvalidJSON, err.Error())})
			}
			return
		}

		i.events.OnNewRequest("any")
		resp, err := i.rpc.HandleReader(ctx, bytes.NewReader(msg))
		if err != nil {
			i.log.Errorw("Failed to handle IPC request", "err", err)
			return
		}
		if resp == nil {
			continue
		}
		if _, err = conn.Write(append(resp, '\n')); err != nil {
			i.log.Debugw("Failed to write IPC response", "err", err)
			return
		}
	}
}

func (i *Ipc) write(conn net.Conn, res *response) {
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	_, _ = conn.Write(append(b, '\n'))
}

func (i *Ipc) closeConn(conn net.Conn) {
	i.mu.Lock()
	delete(i.conns, conn)
	i.mu.Unlock()
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		i.log.Debugw("Failed to close IPC connection", "err", err)
	}
}

func (i *Ipc) stop() error {
	err := i.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}

	i.mu.Lock()
	i.closed = true
	for conn := range i.conns {
		_ = conn.Close()
	}
	i.mu.Unlock()

	i.wg.Wait()
	return err
}
