package coordinator

import (
	"errors"
	"fmt"

	"github.com/l1jgo/engine/internal/core/ecs"
	"go.uber.org/zap"
)

// CommandBuffer queues structural changes issued while systems iterate their
// interest lists. The coordinator applies the queue, in order, once every
// active system has finished its pass for the frame.
type CommandBuffer struct {
	cmds []command
}

type command struct {
	op  string
	run func(c *Coordinator) error
}

func (b *CommandBuffer) push(op string, fn func(c *Coordinator) error) {
	b.cmds = append(b.cmds, command{op: op, run: fn})
}

// Len returns the number of queued commands.
func (b *CommandBuffer) Len() int { return len(b.cmds) }

// Create queues the creation of an entity; init runs right after it exists.
func (b *CommandBuffer) Create(init func(c *Coordinator, e ecs.EntityID) error) {
	b.push("create", func(c *Coordinator) error {
		e, err := c.CreateEntity()
		if err != nil {
			return err
		}
		if init == nil {
			return nil
		}
		return init(c, e)
	})
}

// Destroy queues the destruction of e. Handles that are already dead when the
// queue is flushed are skipped, so several systems may mark the same entity.
func (b *CommandBuffer) Destroy(e ecs.EntityID) {
	b.push("destroy", func(c *Coordinator) error {
		if !c.CheckEntity(e) {
			c.log.Debug("skip destroy of dead entity", zap.Stringer("entity", e))
			return nil
		}
		return c.DestroyEntity(e)
	})
}

// Clone queues a copy of src; then, if non-nil, receives the new entity.
func (b *CommandBuffer) Clone(src ecs.EntityID, then func(c *Coordinator, e ecs.EntityID) error) {
	b.push("clone", func(c *Coordinator) error {
		e, err := c.CloneEntity(src)
		if err != nil {
			return err
		}
		if then == nil {
			return nil
		}
		return then(c, e)
	})
}

// Add queues a runtime-typed add of v (T or *T) to e.
func (b *CommandBuffer) Add(e ecs.EntityID, t ecs.ComponentType, v any) {
	b.push("add", func(c *Coordinator) error {
		return c.AddComponentValue(e, t, v)
	})
}

// Remove queues a runtime-typed removal.
func (b *CommandBuffer) Remove(e ecs.EntityID, t ecs.ComponentType) {
	b.push("remove", func(c *Coordinator) error {
		return c.RemoveComponentByType(e, t)
	})
}

// DeferAdd queues a typed add of v to e.
func DeferAdd[T any](b *CommandBuffer, e ecs.EntityID, v T) {
	b.push("add", func(c *Coordinator) error {
		return AddComponent(c, e, v)
	})
}

// DeferRemove queues a typed removal of T from e.
func DeferRemove[T any](b *CommandBuffer, e ecs.EntityID) {
	b.push("remove", func(c *Coordinator) error {
		return RemoveComponent[T](c, e)
	})
}

// Commands returns the coordinator's deferred command buffer.
func (c *Coordinator) Commands() *CommandBuffer { return c.commands }

// FlushCommands applies every queued command. A failing command does not stop
// the ones after it; all failures are joined into the returned error.
// Commands queued while flushing run in the same flush.
func (c *Coordinator) FlushCommands() error {
	if c.updating {
		return ErrMutationDuringUpdate
	}
	var errs []error
	for i := 0; i < len(c.commands.cmds); i++ {
		cmd := c.commands.cmds[i]
		if err := cmd.run(c); err != nil {
			errs = append(errs, fmt.Errorf("deferred %s: %w", cmd.op, err))
		}
	}
	c.commands.cmds = c.commands.cmds[:0]
	return errors.Join(errs...)
}
