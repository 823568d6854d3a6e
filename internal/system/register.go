package system

import (
	"fmt"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/coordinator"
)

// Set holds the engine systems registered by RegisterAll.
type Set struct {
	Lifetime *LifetimeSystem
	Regen    *RegenSystem
	Movement *MovementSystem
	Render   *RenderSystem
}

// RegisterAll registers the engine systems in update order:
// lifetime, regen, movement, render. Components must be registered first.
func RegisterAll(c *coordinator.Coordinator, out Renderer) (*Set, error) {
	var (
		set Set
		err error
	)
	if set.Lifetime, err = coordinator.RegisterSystem(c, NewLifetimeSystem(c), true, -1); err != nil {
		return nil, fmt.Errorf("lifetime system: %w", err)
	}
	if err := coordinator.AddComponentType[component.Lifetime](c, set.Lifetime); err != nil {
		return nil, fmt.Errorf("lifetime system: %w", err)
	}

	if set.Regen, err = coordinator.RegisterSystem(c, NewRegenSystem(c), true, -1); err != nil {
		return nil, fmt.Errorf("regen system: %w", err)
	}
	if err := coordinator.AddComponentType[component.Health](c, set.Regen); err != nil {
		return nil, fmt.Errorf("regen system: %w", err)
	}

	if set.Movement, err = coordinator.RegisterSystem(c, NewMovementSystem(c), true, -1); err != nil {
		return nil, fmt.Errorf("movement system: %w", err)
	}
	if err := coordinator.AddComponentType[component.Position](c, set.Movement); err != nil {
		return nil, fmt.Errorf("movement system: %w", err)
	}
	if err := coordinator.AddComponentType[component.Velocity](c, set.Movement); err != nil {
		return nil, fmt.Errorf("movement system: %w", err)
	}

	if set.Render, err = coordinator.RegisterSystem(c, NewRenderSystem(c, out), true, -1); err != nil {
		return nil, fmt.Errorf("render system: %w", err)
	}
	if err := coordinator.AddComponentType[component.Position](c, set.Render); err != nil {
		return nil, fmt.Errorf("render system: %w", err)
	}
	if err := coordinator.AddComponentType[component.Sprite](c, set.Render); err != nil {
		return nil, fmt.Errorf("render system: %w", err)
	}
	return &set, nil
}
