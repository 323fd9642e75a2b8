package jsonrpc

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/krupt/go-jsonrpc/utils"
)

const closeReasonMaxBytes = 125

// Websocket serves JSON-RPC over WebSocket. Every text frame carries one request or one batch.
// The frames of a connection are handled one after another, so responses leave in request order.
// Notifications produce no frame.
type Websocket struct {
	rpc        *Server
	log        utils.SimpleLogger
	connParams *WebsocketConnParams
	listener   NewRequestListener
	origins    []string
}

func NewWebsocket(rpc *Server, log utils.SimpleLogger) *Websocket {
	return &Websocket{
		rpc:        rpc,
		log:        log,
		connParams: DefaultWebsocketConnParams(),
		listener:   &SelectiveListener{},
	}
}

// WithConnParams applies p. Zero fields keep their defaults.
func (ws *Websocket) WithConnParams(p *WebsocketConnParams) *Websocket {
	params := DefaultWebsocketConnParams()
	if p.ReadLimit > 0 {
		params.ReadLimit = p.ReadLimit
	}
	if p.WriteDuration > 0 {
		params.WriteDuration = p.WriteDuration
	}
	ws.connParams = params
	return ws
}

// WithListener registers a NewRequestListener
func (ws *Websocket) WithListener(listener NewRequestListener) *Websocket {
	ws.listener = listener
	return ws
}

// WithOriginPatterns allows cross origin upgrades from hosts matching patterns.
func (ws *Websocket) WithOriginPatterns(patterns ...string) *Websocket {
	ws.origins = patterns
	return ws
}

// closeError ends a connection with a specific close frame.
type closeError struct {
	status websocket.StatusCode
	reason string
}

func (e *closeError) Error() string {
	return e.reason
}

var errBinaryFrame = &closeError{status: websocket.StatusUnsupportedData, reason: "binary frames are not supported"}

// ServeHTTP upgrades the request and serves the connection until either side closes it.
func (ws *Websocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: ws.origins})
	if err != nil {
		ws.log.Errorw("Failed to upgrade connection", "err", err)
		return
	}
	conn.SetReadLimit(ws.connParams.ReadLimit)
	remote := r.RemoteAddr
	ws.log.Debugw("Websocket connection opened", "remote", remote)

	err = ws.serve(r.Context(), conn)

	var closeErr *closeError
	switch {
	case websocket.CloseStatus(err) != -1:
		ws.log.Infow("Client closed websocket connection", "remote", remote, "status", websocket.CloseStatus(err))
	case errors.As(err, &closeErr):
		ws.log.Debugw("Closing websocket connection", "remote", remote, "status", closeErr.status,
			"reason", closeErr.reason)
		ws.close(conn, closeErr.status, closeErr.reason)
	default:
		ws.log.Warnw("Closing websocket connection", "remote", remote, "err", err)
		ws.close(conn, websocket.StatusInternalError, err.Error())
	}
}

// serve handles frames until the connection fails. It never returns nil.
func (ws *Websocket) serve(ctx context.Context, conn *websocket.Conn) error {
	for {
		typ, msg, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			return errBinaryFrame
		}

		ws.listener.OnNewRequest("any")
		resp, err := ws.rpc.HandleReader(ctx, bytes.NewReader(msg))
		if err != nil {
			return err
		}
		if resp == nil {
			continue
		}
		if err = ws.write(ctx, conn, resp); err != nil {
			return err
		}
	}
}

func (ws *Websocket) write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, ws.connParams.WriteDuration)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, msg)
}

func (ws *Websocket) close(conn *websocket.Conn, status websocket.StatusCode, reason string) {
	if len(reason) > closeReasonMaxBytes {
		reason = reason[:closeReasonMaxBytes]
	}
	if err := conn.Close(status, reason); err != nil {
		// The library may have closed the connection already, e.g. after an oversized frame.
		errString := err.Error()
		if !strings.Contains(errString, "already wrote close") && !strings.Contains(errString, "WebSocket closed") {
			ws.log.Errorw("Failed to close websocket connection", "err", errString)
		}
	}
}

type WebsocketConnParams struct {
	// Maximum message size allowed.
	ReadLimit int64
	// Maximum time to write a message.
	WriteDuration time.Duration
}

func DefaultWebsocketConnParams() *WebsocketConnParams {
	return &WebsocketConnParams{
		ReadLimit:     32 * utils.Megabyte,
		WriteDuration: 5 * time.Second,
	}
}
