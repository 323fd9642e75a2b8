// Package registry announces running servers to etcd and lets clients find them.
//
// Every instance is stored under /go-jsonrpc/<name>/<addr> with a JSON-encoded Instance as its
// value. Entries are attached to a lease, so an instance that stops renewing it disappears.
package registry

import (
	"context"
	"time"
)

//go:generate mockgen -destination=../mocks/mock_registry.go -package=mocks github.com/krupt/go-jsonrpc/registry Registry

const KeyPrefix = "/go-jsonrpc/"

// Instance is one reachable server.
type Instance struct {
	Name string `json:"name"`
	// Addr is the endpoint clients dial, e.g. ws://10.0.0.7:6061 or ipc:///run/jsonrpcd.ipc.
	Addr    string   `json:"addr"`
	Version string   `json:"version"`
	Methods []string `json:"methods,omitempty"`
}

type Registry interface {
	Register(ctx context.Context, instance Instance, ttl time.Duration) error
	Deregister(ctx context.Context, instance Instance) error
	Discover(ctx context.Context, name string) ([]Instance, error)
	// Watch emits the full instance list of name after every change until ctx is done.
	Watch(ctx context.Context, name string) <-chan []Instance
}

func serviceKey(name string) string {
	return KeyPrefix + name + "/"
}

func instanceKey(instance Instance) string {
	return serviceKey(instance.Name) + instance.Addr
}
