package system

import (
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/coordinator"
	coresys "github.com/l1jgo/engine/internal/core/system"
)

// LifetimeSystem counts Lifetime down and queues expired entities for
// destruction. The coordinator applies the queue after every system ran.
// Requires: Lifetime.
type LifetimeSystem struct {
	coresys.Base
	c *coordinator.Coordinator
}

func NewLifetimeSystem(c *coordinator.Coordinator) *LifetimeSystem {
	return &LifetimeSystem{c: c}
}

func (s *LifetimeSystem) Update(dt time.Duration) {
	for _, e := range s.Entities() {
		l, err := coordinator.GetComponent[component.Lifetime](s.c, e)
		if err != nil {
			continue
		}
		l.Remaining -= dt
		if l.Remaining <= 0 {
			s.c.Commands().Destroy(e)
		}
	}
}
