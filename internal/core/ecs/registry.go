package ecs

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/cases"
)

// ComponentManager owns one dense array per registered component type and the
// registry mapping Go types, names and stable tags to ComponentType indices.
type ComponentManager struct {
	stores   []Store
	byGoType map[reflect.Type]ComponentType
	byName   map[string]ComponentType // case-folded name
	byTag    map[uint64]ComponentType
}

func NewComponentManager() *ComponentManager {
	return &ComponentManager{
		stores:   make([]Store, 0, 16),
		byGoType: make(map[reflect.Type]ComponentType, 16),
		byName:   make(map[string]ComponentType, 16),
		byTag:    make(map[uint64]ComponentType, 16),
	}
}

// ComponentName returns the registry name for T.
func ComponentName[T any]() string {
	var zero T
	if n, ok := any(zero).(Named); ok {
		return n.Name()
	}
	if n, ok := any(&zero).(Named); ok {
		return n.Name()
	}
	return reflect.TypeOf((*T)(nil)).Elem().Name()
}

// ComponentTag hashes a component name into a tag that does not depend on
// registration order.
func ComponentTag(name string) uint64 {
	sum := blake2b.Sum256([]byte(foldName(name)))
	return binary.LittleEndian.Uint64(sum[:8])
}

func foldName(name string) string {
	return cases.Fold().String(name)
}

// RegisterComponent allocates the dense array for T and assigns it the next type index.
func RegisterComponent[T any](cm *ComponentManager) (ComponentType, error) {
	goType := reflect.TypeOf((*T)(nil)).Elem()
	name := ComponentName[T]()
	if _, ok := cm.byGoType[goType]; ok {
		return 0, fmt.Errorf("%w: %s", ErrComponentAlreadyRegistered, name)
	}
	folded := foldName(name)
	if _, ok := cm.byName[folded]; ok {
		return 0, fmt.Errorf("%w: name %q already in use", ErrComponentAlreadyRegistered, name)
	}
	if len(cm.stores) >= MaxComponents {
		return 0, fmt.Errorf("%w: %s (limit %d)", ErrComponentCapacity, name, MaxComponents)
	}
	tag := ComponentTag(name)
	if tag == 0 {
		// 0 marks "no tag" in persisted records.
		return 0, fmt.Errorf("%w: tag of %s is reserved", ErrComponentAlreadyRegistered, name)
	}
	if other, ok := cm.byTag[tag]; ok {
		return 0, fmt.Errorf("%w: tag of %s collides with %s", ErrComponentAlreadyRegistered, name, cm.stores[other].Info().Name)
	}
	t := ComponentType(len(cm.stores))
	cm.stores = append(cm.stores, NewComponentArray[T](ComponentInfo{
		Type:   t,
		Name:   name,
		Tag:    tag,
		GoType: goType,
	}))
	cm.byGoType[goType] = t
	cm.byName[folded] = t
	cm.byTag[tag] = t
	return t, nil
}

// TypeOf returns the index assigned to T.
func TypeOf[T any](cm *ComponentManager) (ComponentType, error) {
	t, ok := cm.byGoType[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrComponentNotRegistered, ComponentName[T]())
	}
	return t, nil
}

// ArrayOf returns the typed dense array for T.
func ArrayOf[T any](cm *ComponentManager) (*ComponentArray[T], error) {
	t, err := TypeOf[T](cm)
	if err != nil {
		return nil, err
	}
	return cm.stores[t].(*ComponentArray[T]), nil
}

// Store returns the runtime-typed view of type t.
func (cm *ComponentManager) Store(t ComponentType) (Store, error) {
	if int(t) >= len(cm.stores) {
		return nil, fmt.Errorf("%w: type %d", ErrComponentNotRegistered, t)
	}
	return cm.stores[t], nil
}

// TypeByName looks a component up by name, ignoring case.
func (cm *ComponentManager) TypeByName(name string) (ComponentType, error) {
	t, ok := cm.byName[foldName(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrComponentNotRegistered, name)
	}
	return t, nil
}

func (cm *ComponentManager) TypeByTag(tag uint64) (ComponentType, error) {
	t, ok := cm.byTag[tag]
	if !ok {
		return 0, fmt.Errorf("%w: tag %016x", ErrComponentNotRegistered, tag)
	}
	return t, nil
}

// Types lists every registered component in type order.
func (cm *ComponentManager) Types() []ComponentInfo {
	out := make([]ComponentInfo, len(cm.stores))
	for i, s := range cm.stores {
		out[i] = s.Info()
	}
	return out
}

func (cm *ComponentManager) Len() int { return len(cm.stores) }
