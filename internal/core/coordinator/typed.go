package coordinator

import (
	"fmt"

	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/core/system"
	"go.uber.org/zap"
)

// RegisterComponent registers T and returns its type index.
func RegisterComponent[T any](c *Coordinator) (ecs.ComponentType, error) {
	t, err := ecs.RegisterComponent[T](c.components)
	if err != nil {
		return 0, c.violation("register component", err)
	}
	return t, nil
}

// ComponentType returns the index registered for T.
func ComponentType[T any](c *Coordinator) (ecs.ComponentType, error) {
	return ecs.TypeOf[T](c.components)
}

// AddComponent adds v to e. Adding a T that e already holds fails.
func AddComponent[T any](c *Coordinator, e ecs.EntityID, v T) error {
	if err := c.guard("add", e); err != nil {
		return err
	}
	a, err := ecs.ArrayOf[T](c.components)
	if err != nil {
		return c.violation("add", err, zap.Stringer("entity", e))
	}
	if err := a.Add(e, v); err != nil {
		return c.violation("add", err, zap.Stringer("entity", e), zap.String("component", a.Info().Name))
	}
	c.componentAdded(e, a.Info().Type)
	return nil
}

func RemoveComponent[T any](c *Coordinator, e ecs.EntityID) error {
	if err := c.guard("remove", e); err != nil {
		return err
	}
	a, err := ecs.ArrayOf[T](c.components)
	if err != nil {
		return c.violation("remove", err, zap.Stringer("entity", e))
	}
	if err := a.Remove(e); err != nil {
		return c.violation("remove", err, zap.Stringer("entity", e), zap.String("component", a.Info().Name))
	}
	c.componentRemoved(e, a.Info().Type)
	return nil
}

// GetComponent returns a pointer into T's dense array. The pointer is only
// valid until the next add or remove of T on any entity.
func GetComponent[T any](c *Coordinator, e ecs.EntityID) (*T, error) {
	if !c.entities.Alive(e) {
		return nil, c.violation("get", ecs.ErrEntityNotFound, zap.Stringer("entity", e))
	}
	return ecs.GetComponent[T](c.components, e)
}

// HasComponent reports whether e currently holds a T.
func HasComponent[T any](c *Coordinator, e ecs.EntityID) bool {
	return c.entities.Alive(e) && ecs.HasComponent[T](c.components, e)
}

// Components returns the dense array of T for bulk iteration.
func Components[T any](c *Coordinator) (*ecs.ComponentArray[T], error) {
	return ecs.ArrayOf[T](c.components)
}

// RegisterSystem registers sys as the singleton for T. See system.Register.
func RegisterSystem[T system.System](c *Coordinator, sys T, linked bool, index int) (T, error) {
	s, err := system.Register(c.systems, sys, linked, index, c.entities.All(), c.signatureOrEmpty)
	if err != nil {
		return s, c.violation("register system", err)
	}
	c.log.Debug("system registered", zap.String("system", typeName[T]()), zap.Bool("linked", linked))
	return s, nil
}

// AddComponentType extends sys's required signature with C.
func AddComponentType[C any](c *Coordinator, sys system.System) error {
	t, err := ecs.TypeOf[C](c.components)
	if err != nil {
		return c.violation("require", err)
	}
	return c.AddSystemComponentType(sys, t)
}

func (c *Coordinator) signatureOrEmpty(e ecs.EntityID) ecs.Signature {
	sig, _ := c.entities.Signature(e)
	return sig
}

func GetSystem[T system.System](c *Coordinator) (T, error) {
	return system.Get[T](c.systems)
}

// RemoveSystem unregisters T and drops its interest list.
func RemoveSystem[T system.System](c *Coordinator) error {
	if err := system.Remove[T](c.systems); err != nil {
		return c.violation("remove system", err)
	}
	return nil
}

// SystemIndex returns T's position in the update order.
func SystemIndex[T system.System](c *Coordinator) (int, error) {
	return system.IndexOf[T](c.systems)
}

func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}

// Each2 calls fn for every entity of ids holding both A and B, typically a
// system's interest list. fn may change values but not structure; use
// Commands() for that.
func Each2[A, B any](c *Coordinator, ids []ecs.EntityID, fn func(ecs.EntityID, *A, *B)) error {
	sa, err := ecs.ArrayOf[A](c.components)
	if err != nil {
		return err
	}
	sb, err := ecs.ArrayOf[B](c.components)
	if err != nil {
		return err
	}
	ecs.Each2(ids, sa, sb, fn)
	return nil
}
