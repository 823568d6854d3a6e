package system

import (
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/coordinator"
	"github.com/l1jgo/engine/internal/core/ecs"
	coresys "github.com/l1jgo/engine/internal/core/system"
	"go.uber.org/zap"
)

// MovementSystem integrates Velocity into Position.
// Requires: Position, Velocity.
type MovementSystem struct {
	coresys.Base
	c *coordinator.Coordinator
}

func NewMovementSystem(c *coordinator.Coordinator) *MovementSystem {
	return &MovementSystem{c: c}
}

func (s *MovementSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	err := coordinator.Each2(s.c, s.Entities(), func(_ ecs.EntityID, p *component.Position, v *component.Velocity) {
		p.X += v.DX * sec
		p.Y += v.DY * sec
	})
	if err != nil {
		s.c.Logger().Error("movement system", zap.Error(err))
	}
}
