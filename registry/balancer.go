package registry

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

var ErrNoInstances = errors.New("no instances available")

// RoundRobin picks instances in turn. It is safe for concurrent use.
type RoundRobin struct {
	counter atomic.Uint64
}

func (b *RoundRobin) Pick(instances []Instance) (Instance, error) {
	if len(instances) == 0 {
		return Instance{}, ErrNoInstances
	}
	i := (b.counter.Add(1) - 1) % uint64(len(instances))
	return instances[i], nil
}
