package system

import (
	"errors"
	"time"

	"github.com/l1jgo/engine/internal/core/ecs"
)

var (
	ErrSystemAlreadyRegistered = errors.New("system already registered")
	ErrSystemNotRegistered     = errors.New("system not registered")
	ErrSystemIndex             = errors.New("system index out of range")
)

// System is the interface every ECS system implements. Implementations embed
// Base, which carries the required signature and the interest list.
type System interface {
	Update(dt time.Duration)
	base() *Base
}

// Named is implemented by systems whose Go type is shared by several
// registered instances, such as script-backed systems. The name becomes
// part of the singleton identity.
type Named interface {
	SystemName() string
}

// EntityObserver is optionally implemented by systems that want to react
// when an entity enters or leaves their interest list.
type EntityObserver interface {
	EntityAdded(e ecs.EntityID)
	EntityRemoved(e ecs.EntityID)
}

// Base holds the per-system bookkeeping maintained by the Manager.
type Base struct {
	required ecs.Signature
	linked   bool
	active   bool
	entities []ecs.EntityID
	pos      map[ecs.EntityID]int
}

func (b *Base) base() *Base { return b }

// Entities is the live interest list. Adding or removing components while
// ranging over it corrupts the iteration; use the coordinator's command buffer.
func (b *Base) Entities() []ecs.EntityID { return b.entities }

func (b *Base) Required() ecs.Signature { return b.required }
func (b *Base) Linked() bool            { return b.linked }
func (b *Base) Active() bool            { return b.active }
func (b *Base) Len() int                { return len(b.entities) }

func (b *Base) Contains(e ecs.EntityID) bool {
	_, ok := b.pos[e]
	return ok
}

func (b *Base) matches(sig ecs.Signature) bool {
	return b.linked && !b.required.IsEmpty() && sig.Contains(b.required)
}

func (b *Base) insert(owner System, e ecs.EntityID) {
	if _, ok := b.pos[e]; ok {
		return
	}
	if b.pos == nil {
		b.pos = make(map[ecs.EntityID]int, 64)
	}
	b.pos[e] = len(b.entities)
	b.entities = append(b.entities, e)
	if o, ok := owner.(EntityObserver); ok {
		o.EntityAdded(e)
	}
}

func (b *Base) erase(owner System, e ecs.EntityID) {
	i, ok := b.pos[e]
	if !ok {
		return
	}
	last := len(b.entities) - 1
	moved := b.entities[last]
	b.entities[i] = moved
	b.pos[moved] = i
	b.entities = b.entities[:last]
	delete(b.pos, e)
	if o, ok := owner.(EntityObserver); ok {
		o.EntityRemoved(e)
	}
}

func (b *Base) reset() {
	b.entities = b.entities[:0]
	b.pos = nil
}
