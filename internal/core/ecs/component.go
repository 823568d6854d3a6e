package ecs

import (
	"fmt"
	"reflect"
)

// Named is implemented by components that carry a stable registry name.
// Components without it are registered under their Go type name.
type Named interface {
	Name() string
}

// Cloner is implemented by components whose values hold references
// (slices, maps, pointers) and need a deep copy when an entity is cloned.
type Cloner[T any] interface {
	Clone() T
}

// ComponentInfo describes one registered component type.
type ComponentInfo struct {
	Type   ComponentType
	Name   string
	Tag    uint64 // stable across runs, derived from Name
	GoType reflect.Type
}

// Store is the runtime-typed view of a component array. It is backed by the
// same dense storage as the typed ComponentArray, so both paths always agree.
type Store interface {
	Info() ComponentInfo
	Len() int
	Has(e EntityID) bool
	// Entities returns the dense slot order. The slice is owned by the store.
	Entities() []EntityID
	// Value returns a pointer (*T) into the dense array.
	Value(e EntityID) (any, error)
	// Insert accepts either a T or a *T.
	Insert(e EntityID, v any) error
	InsertZero(e EntityID) error
	Remove(e EntityID) error
	Clone(dst, src EntityID) error
	// New returns a pointer to a zero T, used by decoders.
	New() any
}

// ComponentArray is a densely packed array of T with an entity<->slot mapping.
// Removal swaps the last element into the freed slot, so the array never has holes.
// Pointers returned by Get are invalidated by any Add or Remove on the same array.
type ComponentArray[T any] struct {
	info     ComponentInfo
	data     []T
	entities []EntityID // slot -> entity
	sparse   []int32    // entity index -> slot, -1 when absent
}

func NewComponentArray[T any](info ComponentInfo) *ComponentArray[T] {
	return &ComponentArray[T]{
		info:     info,
		data:     make([]T, 0, 64),
		entities: make([]EntityID, 0, 64),
	}
}

func (a *ComponentArray[T]) Info() ComponentInfo { return a.info }
func (a *ComponentArray[T]) Len() int            { return len(a.data) }
func (a *ComponentArray[T]) Entities() []EntityID {
	return a.entities
}

// Values returns the dense value slice in slot order.
func (a *ComponentArray[T]) Values() []T { return a.data }

func (a *ComponentArray[T]) slot(e EntityID) int {
	idx := e.Index()
	if int(idx) >= len(a.sparse) {
		return -1
	}
	s := a.sparse[idx]
	if s < 0 || a.entities[s] != e {
		return -1
	}
	return int(s)
}

func (a *ComponentArray[T]) Has(e EntityID) bool {
	return a.slot(e) >= 0
}

// Add inserts v for e. It never overwrites an existing value.
func (a *ComponentArray[T]) Add(e EntityID, v T) error {
	if a.Has(e) {
		return fmt.Errorf("%w: %s on %s", ErrComponentAlreadyOnEntity, a.info.Name, e)
	}
	idx := int(e.Index())
	for len(a.sparse) <= idx {
		a.sparse = append(a.sparse, -1)
	}
	a.sparse[idx] = int32(len(a.data))
	a.data = append(a.data, v)
	a.entities = append(a.entities, e)
	return nil
}

// Get returns a live pointer into the dense array.
func (a *ComponentArray[T]) Get(e EntityID) (*T, error) {
	s := a.slot(e)
	if s < 0 {
		return nil, fmt.Errorf("%w: %s on %s", ErrComponentNotOnEntity, a.info.Name, e)
	}
	return &a.data[s], nil
}

func (a *ComponentArray[T]) Remove(e EntityID) error {
	s := a.slot(e)
	if s < 0 {
		return fmt.Errorf("%w: %s on %s", ErrComponentNotOnEntity, a.info.Name, e)
	}
	last := len(a.data) - 1
	if s != last {
		moved := a.entities[last]
		a.data[s] = a.data[last]
		a.entities[s] = moved
		a.sparse[moved.Index()] = int32(s)
	}
	var zero T
	a.data[last] = zero
	a.data = a.data[:last]
	a.entities = a.entities[:last]
	a.sparse[e.Index()] = -1
	return nil
}

func (a *ComponentArray[T]) Value(e EntityID) (any, error) {
	p, err := a.Get(e)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (a *ComponentArray[T]) Insert(e EntityID, v any) error {
	switch val := v.(type) {
	case T:
		return a.Add(e, val)
	case *T:
		if val == nil {
			return a.InsertZero(e)
		}
		return a.Add(e, *val)
	default:
		return fmt.Errorf("%w: %s expects %s, got %T", ErrComponentValueType, a.info.Name, a.info.GoType, v)
	}
}

func (a *ComponentArray[T]) InsertZero(e EntityID) error {
	var zero T
	return a.Add(e, zero)
}

// Clone copies the value held by src into dst. Values implementing
// Cloner[T] are deep-copied through Clone.
func (a *ComponentArray[T]) Clone(dst, src EntityID) error {
	p, err := a.Get(src)
	if err != nil {
		return err
	}
	v := *p
	if c, ok := any(v).(Cloner[T]); ok {
		v = c.Clone()
	}
	return a.Add(dst, v)
}

func (a *ComponentArray[T]) New() any {
	return new(T)
}
