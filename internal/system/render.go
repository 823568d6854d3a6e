package system

import (
	"cmp"
	"slices"
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/coordinator"
	"github.com/l1jgo/engine/internal/core/ecs"
	coresys "github.com/l1jgo/engine/internal/core/system"
	"go.uber.org/zap"
)

// DrawItem is one sprite submitted to the renderer.
type DrawItem struct {
	Entity ecs.EntityID
	X, Y   float64
	Sprite component.Sprite
}

// Renderer receives the frame's draw list, sorted by layer then entity.
type Renderer interface {
	Submit(items []DrawItem)
}

// RenderSystem builds the draw list from Position + Sprite. It keeps running
// while the editor pauses the simulation.
type RenderSystem struct {
	coresys.Base
	c     *coordinator.Coordinator
	out   Renderer
	items []DrawItem
}

func NewRenderSystem(c *coordinator.Coordinator, out Renderer) *RenderSystem {
	return &RenderSystem{c: c, out: out}
}

func (s *RenderSystem) Update(time.Duration) {
	s.items = s.items[:0]
	err := coordinator.Each2(s.c, s.Entities(), func(e ecs.EntityID, p *component.Position, sp *component.Sprite) {
		s.items = append(s.items, DrawItem{Entity: e, X: p.X, Y: p.Y, Sprite: *sp})
	})
	if err != nil {
		s.c.Logger().Error("render system", zap.Error(err))
		return
	}
	slices.SortFunc(s.items, func(a, b DrawItem) int {
		if c := cmp.Compare(a.Sprite.Layer, b.Sprite.Layer); c != 0 {
			return c
		}
		return cmp.Compare(a.Entity, b.Entity)
	})
	if s.out != nil {
		s.out.Submit(s.items)
	}
}

// Frame returns the last draw list. It is overwritten by the next Update.
func (s *RenderSystem) Frame() []DrawItem { return s.items }
