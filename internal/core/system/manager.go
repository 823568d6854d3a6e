package system

import (
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/l1jgo/engine/internal/core/ecs"
)

// Manager owns one instance per system type, in update order, and keeps every
// interest list in step with entity signatures.
type Manager struct {
	systems []System
	byKey   map[key]System
}

// key identifies a singleton: its Go type, plus the name of Named systems.
type key struct {
	t    reflect.Type
	name string
}

func (k key) String() string {
	if k.name == "" {
		return k.t.String()
	}
	return k.t.String() + "(" + k.name + ")"
}

func NewManager() *Manager {
	return &Manager{
		systems: make([]System, 0, 16),
		byKey:   make(map[key]System, 16),
	}
}

func typeKey[T System]() key {
	return key{t: reflect.TypeOf((*T)(nil)).Elem()}
}

func keyOf[T System](sys T) key {
	k := typeKey[T]()
	if n, ok := any(sys).(Named); ok {
		k.name = n.SystemName()
	}
	return k
}

// Register adds sys as the singleton for T. A negative or out-of-range index
// appends to the update order; otherwise sys is inserted at index. Unlinked
// systems never receive entities. On duplicate registration the existing
// singleton is returned together with ErrSystemAlreadyRegistered.
//
// A system registered again after Remove keeps its required signature; its
// interest list is rebuilt from all, using sigOf to read signatures.
func Register[T System](m *Manager, sys T, linked bool, index int, all []ecs.EntityID, sigOf func(ecs.EntityID) ecs.Signature) (T, error) {
	key := keyOf(sys)
	if existing, ok := m.byKey[key]; ok {
		return existing.(T), fmt.Errorf("%w: %s", ErrSystemAlreadyRegistered, key)
	}
	b := sys.base()
	b.linked = linked
	b.active = true
	b.reset()

	if index < 0 || index >= len(m.systems) {
		m.systems = append(m.systems, sys)
	} else {
		m.systems = slices.Insert(m.systems, index, System(sys))
	}
	m.byKey[key] = sys
	if sigOf != nil {
		for _, e := range all {
			if b.matches(sigOf(e)) {
				b.insert(sys, e)
			}
		}
	}
	return sys, nil
}

// Get returns the registered singleton for T.
func Get[T System](m *Manager) (T, error) {
	key := typeKey[T]()
	s, ok := m.byKey[key]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrSystemNotRegistered, key)
	}
	return s.(T), nil
}

// Remove unregisters T and drops its interest list.
func Remove[T System](m *Manager) error {
	key := typeKey[T]()
	s, ok := m.byKey[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSystemNotRegistered, key)
	}
	m.remove(key, s)
	return nil
}

func (m *Manager) remove(k key, s System) {
	delete(m.byKey, k)
	if i := m.indexOf(s); i >= 0 {
		m.systems = slices.Delete(m.systems, i, i+1)
	}
	s.base().reset()
}

// Named returns the Named system registered under name and its index.
func (m *Manager) Named(name string) (System, int, error) {
	for i, s := range m.systems {
		if n, ok := s.(Named); ok && n.SystemName() == name {
			return s, i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: %q", ErrSystemNotRegistered, name)
}

// RemoveNamed unregisters the Named system registered under name.
func (m *Manager) RemoveNamed(name string) error {
	s, _, err := m.Named(name)
	if err != nil {
		return err
	}
	for k, cur := range m.byKey {
		if cur == s {
			m.remove(k, s)
			break
		}
	}
	return nil
}

// IndexOf returns T's position in the update order.
func IndexOf[T System](m *Manager) (int, error) {
	key := typeKey[T]()
	s, ok := m.byKey[key]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrSystemNotRegistered, key)
	}
	return m.indexOf(s), nil
}

func (m *Manager) indexOf(s System) int {
	for i, cur := range m.systems {
		if cur == s {
			return i
		}
	}
	return -1
}

// Require extends sys's required signature with t and refilters membership.
// When sys had no requirement yet, candidates are drawn from all; otherwise
// only current members are re-checked since the requirement only grows.
func (m *Manager) Require(sys System, t ecs.ComponentType, all []ecs.EntityID, sigOf func(ecs.EntityID) ecs.Signature) error {
	if m.indexOf(sys) < 0 {
		return fmt.Errorf("%w: %T", ErrSystemNotRegistered, sys)
	}
	b := sys.base()
	wasEmpty := b.required.IsEmpty()
	b.required.Set(t)
	if wasEmpty {
		for _, e := range all {
			if b.matches(sigOf(e)) {
				b.insert(sys, e)
			}
		}
		return nil
	}
	for _, e := range slices.Clone(b.entities) {
		if !b.matches(sigOf(e)) {
			b.erase(sys, e)
		}
	}
	return nil
}

// SignatureChanged recomputes (sig & required) == required for every system
// and adds or removes e from the interest lists accordingly.
func (m *Manager) SignatureChanged(e ecs.EntityID, sig ecs.Signature) {
	for _, s := range m.systems {
		b := s.base()
		if b.matches(sig) {
			b.insert(s, e)
		} else {
			b.erase(s, e)
		}
	}
}

// ComponentChanged is the narrow form of SignatureChanged used after a single
// component of type t was added or removed: systems that do not require t
// cannot change membership and are skipped.
func (m *Manager) ComponentChanged(e ecs.EntityID, sig ecs.Signature, t ecs.ComponentType, added bool) {
	for _, s := range m.systems {
		b := s.base()
		if !b.required.Test(t) {
			continue
		}
		if added && b.matches(sig) {
			b.insert(s, e)
		} else if !added {
			b.erase(s, e)
		}
	}
}

// EntityDestroyed removes e from every interest list.
func (m *Manager) EntityDestroyed(e ecs.EntityID) {
	for _, s := range m.systems {
		s.base().erase(s, e)
	}
}

// Update runs every active system once, in order.
func (m *Manager) Update(dt time.Duration) {
	for i := 0; i < len(m.systems); i++ {
		s := m.systems[i]
		if s.base().active {
			s.Update(dt)
		}
	}
}

func (m *Manager) SetActive(index int, active bool) error {
	if index < 0 || index >= len(m.systems) {
		return fmt.Errorf("%w: %d", ErrSystemIndex, index)
	}
	m.systems[index].base().active = active
	return nil
}

// PauseAllExcept deactivates every system whose index is not in keep.
func (m *Manager) PauseAllExcept(keep ...int) {
	for i, s := range m.systems {
		s.base().active = slices.Contains(keep, i)
	}
}

// ResumeAll reactivates every system.
func (m *Manager) ResumeAll() {
	for _, s := range m.systems {
		s.base().active = true
	}
}

// Systems returns the systems in update order.
func (m *Manager) Systems() []System {
	return slices.Clone(m.systems)
}

func (m *Manager) Len() int { return len(m.systems) }
