package registry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/krupt/go-jsonrpc/utils"
	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const dialTimeout = 5 * time.Second

var _ Registry = (*EtcdRegistry)(nil)

type registration struct {
	lease  clientv3.LeaseID
	cancel context.CancelFunc
}

// EtcdRegistry is a Registry backed by etcd v3. It is safe for concurrent use.
type EtcdRegistry struct {
	client *clientv3.Client
	log    utils.SimpleLogger

	mu     sync.Mutex
	leases map[string]registration
}

func NewEtcdRegistry(endpoints []string, log utils.SimpleLogger) (*EtcdRegistry, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("no etcd endpoints")
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to etcd")
	}
	return &EtcdRegistry{
		client: c,
		log:    log,
		leases: make(map[string]registration),
	}, nil
}

// Register stores instance under a lease of ttl and keeps the lease alive until Deregister or
// Close. Registering the same instance again replaces the previous registration.
func (r *EtcdRegistry) Register(ctx context.Context, instance Instance, ttl time.Duration) error {
	if instance.Name == "" || instance.Addr == "" {
		return errors.Errorf("instance needs a name and an address, got %+v", instance)
	}
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		return errors.Errorf("lease ttl must be at least a second, got %s", ttl)
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return errors.Wrap(err, "encode instance")
	}

	lease, err := r.client.Grant(ctx, seconds)
	if err != nil {
		return errors.Wrap(err, "grant lease")
	}
	key := instanceKey(instance)
	if _, err = r.client.Put(ctx, key, string(val), clientv3.WithLease(lease.ID)); err != nil {
		r.dropLease(ctx, lease.ID)
		return errors.Wrapf(err, "put %s", key)
	}

	// The keep-alive outlives the registering call, so it gets its own context.
	keepAliveCtx, cancel := context.WithCancel(context.Background())
	ch, err := r.client.KeepAlive(keepAliveCtx, lease.ID)
	if err != nil {
		cancel()
		r.dropLease(ctx, lease.ID)
		return errors.Wrap(err, "keep lease alive")
	}
	go func() {
		for range ch {
		}
		r.log.Debugw("Lease keep-alive stopped", "key", key)
	}()

	r.mu.Lock()
	previous, ok := r.leases[key]
	r.leases[key] = registration{lease: lease.ID, cancel: cancel}
	r.mu.Unlock()
	if ok {
		r.revoke(ctx, previous)
	}

	r.log.Infow("Registered instance", "key", key, "ttl", ttl)
	return nil
}

// dropLease revokes a lease that never made it into a registration. It runs even when ctx is
// already cancelled.
func (r *EtcdRegistry) dropLease(ctx context.Context, id clientv3.LeaseID) {
	revokeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dialTimeout)
	defer cancel()
	if _, err := r.client.Revoke(revokeCtx, id); err != nil {
		r.log.Warnw("Failed to revoke unused lease", "lease", id, "err", err)
	}
}

func (r *EtcdRegistry) revoke(ctx context.Context, reg registration) {
	reg.cancel()
	if _, err := r.client.Revoke(ctx, reg.lease); err != nil {
		r.log.Warnw("Failed to revoke lease", "lease", reg.lease, "err", err)
	}
}

// Deregister removes instance and stops renewing its lease.
func (r *EtcdRegistry) Deregister(ctx context.Context, instance Instance) error {
	key := instanceKey(instance)

	r.mu.Lock()
	reg, ok := r.leases[key]
	delete(r.leases, key)
	r.mu.Unlock()

	if _, err := r.client.Delete(ctx, key); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	if ok {
		r.revoke(ctx, reg)
	}
	r.log.Infow("Deregistered instance", "key", key)
	return nil
}

// Discover lists the instances currently registered under name. Malformed entries are skipped.
func (r *EtcdRegistry) Discover(ctx context.Context, name string) ([]Instance, error) {
	resp, err := r.client.Get(ctx, serviceKey(name), clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrapf(err, "list instances of %s", name)
	}

	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance Instance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			r.log.Warnw("Skipping malformed instance", "key", string(kv.Key), "err", err)
			continue
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

func (r *EtcdRegistry) Watch(ctx context.Context, name string) <-chan []Instance {
	out := make(chan []Instance, 1)
	prefix := serviceKey(name)
	// Pin the start revision so changes made right after Watch returns are not missed.
	opts := []clientv3.OpOption{clientv3.WithPrefix()}
	if resp, err := r.client.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithCountOnly()); err == nil {
		opts = append(opts, clientv3.WithRev(resp.Header.Revision+1))
	}
	events := r.client.Watch(ctx, prefix, opts...)
	go func() {
		defer close(out)
		for resp := range events {
			if err := resp.Err(); err != nil {
				r.log.Warnw("Watch failed", "name", name, "err", err)
				return
			}
			// Events are not applied one by one, the list is re-read instead.
			instances, err := r.Discover(ctx, name)
			if err != nil {
				r.log.Warnw("Failed to refresh instances", "name", name, "err", err)
				continue
			}
			select {
			case out <- instances:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close revokes every lease still held and closes the etcd client.
func (r *EtcdRegistry) Close() error {
	r.mu.Lock()
	leases := r.leases
	r.leases = make(map[string]registration)
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	for _, reg := range leases {
		r.revoke(ctx, reg)
	}
	return errors.Wrap(r.client.Close(), "close etcd client")
}
