// Package testmethods holds the methods and services exercised by the dispatcher tests and
// registered by the daemon in demo mode.
package testmethods

import (
	"context"
	"errors"

	"github.com/gofrs/uuid"
	"github.com/krupt/go-jsonrpc/jsonrpc"
	"github.com/krupt/go-jsonrpc/method"
	"github.com/krupt/go-jsonrpc/pageable"
)

const StateIncorrect = -29345

type State struct {
	UserID string `json:"userId"`
}

// WithoutInputMethod ignores its params and always returns the "Test" state.
type WithoutInputMethod struct{}

func (WithoutInputMethod) Invoke(context.Context, method.Void) (State, error) {
	return State{UserID: "Test"}, nil
}

// WithoutResultMethod accepts a user id and does nothing.
type WithoutResultMethod struct{}

func (WithoutResultMethod) Invoke(context.Context, uuid.UUID) (method.Void, error) {
	return method.Void{}, nil
}

// StateMethod echoes a user id back as a state.
type StateMethod struct{}

func (StateMethod) Invoke(_ context.Context, id uuid.UUID) (State, error) {
	return State{UserID: id.String()}, nil
}

// WithExceptionMethod always fails with a state error carrying its input.
type WithExceptionMethod struct{}

func (WithExceptionMethod) Invoke(_ context.Context, userID string) (method.Void, error) {
	return method.Void{}, StateError(userID)
}

func StateError(userID string) *jsonrpc.Error {
	return &jsonrpc.Error{Code: StateIncorrect, Message: "Test state is incorrect", Data: State{UserID: userID}}
}

// Methods lists the fixtures bound under their derived names.
func Methods() []jsonrpc.Method {
	return []jsonrpc.Method{
		jsonrpc.Bind[method.Void, State]("", WithoutInputMethod{}),
		jsonrpc.Bind[uuid.UUID, method.Void]("", WithoutResultMethod{}),
		jsonrpc.Bind[uuid.UUID, State]("", StateMethod{}),
		jsonrpc.Bind[string, method.Void]("", WithExceptionMethod{}),
	}
}

type Request struct {
	Name string `json:"name" validate:"required"`
}

type Response struct {
	Value int `json:"value"`
}

type User struct {
	ID uuid.UUID `json:"id"`
}

type Page struct {
	Page int              `json:"page"`
	Size int              `json:"size"`
	Sort []pageable.Order `json:"sort"`
}

type PageableRequest struct {
	Name     string            `json:"name"`
	Pageable pageable.Pageable `json:"pageable" validate:"required"`
}

var ErrInvalidState = errors.New("invalid service state")

// Service is registered with RegisterService. Hook runs on every side-effecting call.
type Service struct {
	Hook func()
}

func (s *Service) run() {
	if s.Hook != nil {
		s.Hook()
	}
}

func (s *Service) Get(userID uuid.UUID) User {
	return User{ID: userID}
}

func (s *Service) Process(_ context.Context, _ Request) (Response, error) {
	s.run()
	return Response{Value: 1567}, nil
}

func (s *Service) ProcessAsync(Request) {
	s.run()
}

func (s *Service) Call() {
	s.run()
}

func (s *Service) JSONRPCException(Request) error {
	return StateError("krupt")
}

func (s *Service) Exception(Request) error {
	return ErrInvalidState
}

func (s *Service) List(int) []User {
	return []User{}
}

func (s *Service) Pageable(p pageable.Pageable) Page {
	return Page{Page: p.Page, Size: p.Size, Sort: p.Sort}
}

func (s *Service) PageableWrapper(req PageableRequest) Page {
	return s.Pageable(req.Pageable)
}

// Internal has two arguments besides the context and is never exposed.
func (s *Service) Internal(_ context.Context, _, _ string) error {
	return nil
}
