package registry

import (
	"context"
	"time"

	"github.com/krupt/go-jsonrpc/service"
	"github.com/krupt/go-jsonrpc/utils"
)

const deregisterTimeout = 5 * time.Second

var _ service.Service = (*Announcer)(nil)

// Announcer keeps an instance registered for as long as it runs.
type Announcer struct {
	registry Registry
	instance Instance
	ttl      time.Duration
	log      utils.SimpleLogger
}

func NewAnnouncer(registry Registry, instance Instance, ttl time.Duration, log utils.SimpleLogger) *Announcer {
	return &Announcer{
		registry: registry,
		instance: instance,
		ttl:      ttl,
		log:      log,
	}
}

func (a *Announcer) Run(ctx context.Context) error {
	if err := a.registry.Register(ctx, a.instance, a.ttl); err != nil {
		return err
	}
	<-ctx.Done()

	deregisterCtx, cancel := context.WithTimeout(context.Background(), deregisterTimeout)
	defer cancel()
	if err := a.registry.Deregister(deregisterCtx, a.instance); err != nil {
		a.log.Warnw("Failed to deregister", "name", a.instance.Name, "addr", a.instance.Addr, "err", err)
	}
	return nil
}
