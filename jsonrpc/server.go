// Package jsonrpc implements a JSONRPC2.0 compliant server as described in https://www.jsonrpc.org/specification
package jsonrpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/krupt/go-jsonrpc/utils"
	"github.com/sourcegraph/conc/pool"
)

var (
	ErrInvalidID = errors.New("id should be a string or an integer")

	contextInterface = reflect.TypeOf((*context.Context)(nil)).Elem()
)

type request struct {
	Version string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      any    `json:"id,omitempty"`
}

type response struct {
	Version string
	Result  any
	Error   *Error
	ID      any
}

// MarshalJSON always emits "result" on success, even when it is null, and never emits it
// next to "error".
func (r *response) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(struct {
			Version string `json:"jsonrpc"`
			Error   *Error `json:"error"`
			ID      any    `json:"id"`
		}{r.Version, r.Error, r.ID})
	}
	return json.Marshal(struct {
		Version string `json:"jsonrpc"`
		Result  any    `json:"result"`
		ID      any    `json:"id"`
	}{r.Version, r.Result, r.ID})
}

func (r *request) isSane() error {
	if r.Version != "2.0" {
		return errors.New("unsupported RPC request version")
	}
	if strings.TrimSpace(r.Method) == "" {
		return errors.New("no method specified")
	}

	if r.ID != nil {
		switch id := r.ID.(type) {
		case string:
		case json.Number:
			if strings.ContainsAny(id.String(), ".eE") {
				return ErrInvalidID
			}
		default:
			return ErrInvalidID
		}
	}

	return nil
}

// Validator validates decoded handler arguments.
type Validator interface {
	Struct(any) error
}

type Server struct {
	mu      sync.RWMutex
	methods map[string]*endpoint

	validator   Validator
	log         utils.SimpleLogger
	pool        *pool.Pool
	listener    EventListener
	errHandler  ErrorHandler
	middlewares []Middleware
	handler     HandlerFunc
}

// NewServer instantiates a JSONRPC server. Items of a batch request are processed concurrently
// by at most poolMaxGoroutines goroutines.
func NewServer(poolMaxGoroutines int, log utils.SimpleLogger) *Server {
	s := &Server{
		log:        log,
		methods:    make(map[string]*endpoint),
		pool:       pool.New().WithMaxGoroutines(poolMaxGoroutines),
		listener:   &SelectiveListener{},
		errHandler: NewDefaultErrorHandler(log),
	}
	s.handler = s.dispatch
	return s
}

// WithValidator registers a validator to validate handler struct arguments
func (s *Server) WithValidator(validator Validator) *Server {
	s.validator = validator
	return s
}

// WithListener registers an EventListener
func (s *Server) WithListener(listener EventListener) *Server {
	s.listener = listener
	return s
}

// WithErrorHandler replaces the handler that maps handler errors to JSON-RPC errors.
func (s *Server) WithErrorHandler(handler ErrorHandler) *Server {
	s.errHandler = handler
	return s
}

// HandleReadWriter reads one JSON-RPC message from rw and writes the response, if any, back to it.
func (s *Server) HandleReadWriter(ctx context.Context, rw io.ReadWriter) error {
	resp, err := s.HandleReader(ctx, rw)
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	_, err = rw.Write(resp)
	return err
}

// HandleReader processes a request to the server.
// It returns the response in a byte array, only returns an
// error if it can not create the response byte array.
// A nil response means that there is nothing to send back (notifications).
func (s *Server) HandleReader(ctx context.Context, reader io.Reader) ([]byte, error) {
	bufferedReader := bufio.NewReader(reader)
	requestIsBatch := isBatch(bufferedReader)
	res := &response{
		Version: "2.0",
	}

	dec := json.NewDecoder(bufferedReader)
	dec.UseNumber()

	if !requestIsBatch {
		req := new(request)
		if jsonErr := dec.Decode(req); jsonErr != nil {
			res.Error = decodeError(jsonErr)
		} else if resObject, handleErr := s.handleRequest(ctx, req); handleErr != nil {
			if !errors.Is(handleErr, ErrInvalidID) {
				res.ID = req.ID
			}
			res.Error = Err(InvalidRequest, handleErr.Error())
		} else {
			res = resObject
		}
	} else {
		var batchReq []json.RawMessage

		if batchJSONErr := dec.Decode(&batchReq); batchJSONErr != nil {
			res.Error = decodeError(batchJSONErr)
		} else if len(batchReq) == 0 {
			res.Error = Err(InvalidRequest, "empty batch")
		} else {
			return s.handleBatchRequest(ctx, batchReq)
		}
	}

	if res == nil {
		return nil, nil
	}
	return json.Marshal(res)
}

func decodeError(err error) *Error {
	if errors.Is(err, io.EOF) {
		return Err(InvalidJSON, "empty request")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return Err(InvalidRequest, err.Error())
	}
	return Err(InvalidJSON, err.Error())
}

func (s *Server) handleBatchRequest(ctx context.Context, batchReq []json.RawMessage) ([]byte, error) {
	// Indexed by request position so that the response array keeps the request order.
	responses := make([]*response, len(batchReq))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i, rawReq := range batchReq {
		reqDec := json.NewDecoder(bytes.NewReader(rawReq))
		reqDec.UseNumber()

		req := new(request)
		if err := reqDec.Decode(req); err != nil {
			responses[i] = &response{
				Version: "2.0",
				Error:   Err(InvalidRequest, err.Error()),
			}
			continue
		}

		wg.Add(1)
		s.pool.Go(func() {
			defer wg.Done()

			resp, err := s.handleRequest(ctx, req)
			if err != nil {
				resp = &response{
					Version: "2.0",
					Error:   Err(InvalidRequest, err.Error()),
				}
				if !errors.Is(err, ErrInvalidID) {
					resp.ID = req.ID
				}
			}
			// for notification request response is nil
			responses[i] = resp
		})
	}

	wg.Wait()

	responses = utils.Filter(responses, func(r *response) bool { return r != nil })
	// a batch made only of notifications gets no response at all, not an empty array
	if len(responses) == 0 {
		return nil, nil
	}

	return json.Marshal(responses)
}

func isBatch(reader *bufio.Reader) bool {
	for {
		char, err := reader.Peek(1)
		if err != nil {
			break
		}
		if char[0] == ' ' || char[0] == '\t' || char[0] == '\r' || char[0] == '\n' {
			if discarded, err := reader.Discard(1); discarded != 1 || err != nil {
				break
			}
			continue
		}
		return char[0] == '['
	}
	return false
}

func (s *Server) handleRequest(ctx context.Context, req *request) (*response, error) {
	s.log.Tracew("Serving RPC request", "method", req.Method, "id", req.ID, "params", req.Params)

	if err := req.isSane(); err != nil {
		return nil, err
	}

	label := s.listenerLabel(req.Method)
	s.listener.OnNewRequest(label)
	start := time.Now()
	result, rpcErr := s.handler(ctx, &Invocation{
		Method: req.Method,
		ID:     req.ID,
		Params: req.Params,
	})
	took := time.Since(start)
	s.log.Debugw("Responding to RPC request", "method", req.Method, "id", req.ID, "took", took)

	if rpcErr != nil {
		s.listener.OnRequestFailed(label, rpcErr)
	} else {
		s.listener.OnRequestHandled(label, took)
	}

	if req.ID == nil { // notification
		return nil, nil
	}

	res := &response{
		Version: "2.0",
		ID:      req.ID,
	}
	if rpcErr != nil {
		res.Error = rpcErr
	} else {
		res.Result = result
	}
	return res, nil
}

// listenerLabel is the method name listeners see. Names nobody registered collapse into
// UnknownMethod so that callers cannot grow the set of labels.
func (s *Server) listenerLabel(method string) string {
	s.mu.RLock()
	_, found := s.methods[method]
	s.mu.RUnlock()
	if !found {
		return UnknownMethod
	}
	return method
}

// dispatch is the innermost HandlerFunc: it looks the method up and invokes it.
func (s *Server) dispatch(ctx context.Context, inv *Invocation) (result any, rpcErr *Error) {
	s.mu.RLock()
	calledMethod, found := s.methods[inv.Method]
	s.mu.RUnlock()
	if !found {
		return nil, Err(MethodNotFound, nil)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			rpcErr = s.errHandler.Handle(inv.Method, fmt.Errorf("panic: %v", r))
		}
	}()

	result, err := calledMethod.invoke(ctx, inv.Params)
	if err == nil {
		return result, nil
	}

	var pErr *paramsError
	if errors.As(err, &pErr) {
		return nil, pErr.rpcError()
	}
	return nil, s.errHandler.Handle(inv.Method, err)
}
