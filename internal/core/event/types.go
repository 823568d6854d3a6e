package event

import "github.com/l1jgo/engine/internal/core/ecs"

// ChangeKind says which structural operation produced an EntitiesChanged event.
type ChangeKind uint8

const (
	EntityCreated ChangeKind = iota
	EntityCloned
	EntityDestroyed
)

func (k ChangeKind) String() string {
	switch k {
	case EntityCreated:
		return "created"
	case EntityCloned:
		return "cloned"
	case EntityDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// EntitiesChanged is emitted after CreateEntity, CloneEntity and DestroyEntity.
type EntitiesChanged struct {
	Kind   ChangeKind
	Entity ecs.EntityID
	Source ecs.EntityID // clone source, zero otherwise
}
