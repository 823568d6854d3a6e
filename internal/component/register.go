package component

import (
	"fmt"

	"github.com/l1jgo/engine/internal/core/coordinator"
)

// RegisterAll registers every engine component with c, in a fixed order.
func RegisterAll(c *coordinator.Coordinator) error {
	regs := []func(*coordinator.Coordinator) error{
		register[Position],
		register[Velocity],
		register[Health],
		register[Lifetime],
		register[Sprite],
		register[Tags],
	}
	for _, r := range regs {
		if err := r(c); err != nil {
			return err
		}
	}
	return nil
}

func register[T any](c *coordinator.Coordinator) error {
	if _, err := coordinator.RegisterComponent[T](c); err != nil {
		return fmt.Errorf("register component: %w", err)
	}
	return nil
}
