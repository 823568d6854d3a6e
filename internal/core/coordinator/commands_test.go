package coordinator

import (
	"testing"
	"time"

	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/core/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reaper destroys every entity with zero HP and spawns a replacement.
type reaper struct {
	system.Base
	c      *Coordinator
	direct error
}

func (s *reaper) Update(time.Duration) {
	for _, e := range s.Entities() {
		h, _ := GetComponent[Health](s.c, e)
		if h.HP > 0 {
			continue
		}
		s.direct = s.c.DestroyEntity(e)
		s.c.Commands().Destroy(e)
		s.c.Commands().Destroy(e)
		s.c.Commands().Create(func(c *Coordinator, n ecs.EntityID) error {
			return AddComponent(c, n, Health{HP: 10})
		})
	}
}

func TestDeferredCommands(t *testing.T) {
	c := newCoordinator(t)
	r, err := RegisterSystem(c, &reaper{c: c}, true, -1)
	require.NoError(t, err)
	require.NoError(t, AddComponentType[Health](c, r))

	var dead []ecs.EntityID
	for i := 0; i < 3; i++ {
		e, err := c.CreateEntity()
		require.NoError(t, err)
		require.NoError(t, AddComponent(c, e, Health{HP: i % 2}))
		if i%2 == 0 {
			dead = append(dead, e)
		}
	}

	require.NoError(t, c.UpdateSystems(time.Millisecond))
	assert.ErrorIs(t, r.direct, ErrMutationDuringUpdate)
	assert.False(t, c.Updating())
	assert.Equal(t, 0, c.Commands().Len())

	for _, e := range dead {
		assert.False(t, c.CheckEntity(e))
	}
	assert.Equal(t, 3, c.EntityCount())
	assert.Equal(t, 3, r.Len())
	for _, e := range r.Entities() {
		h, err := GetComponent[Health](c, e)
		require.NoError(t, err)
		assert.Positive(t, h.HP)
	}
}

func TestDeferredTypedHelpers(t *testing.T) {
	c := newCoordinator(t)
	e, err := c.CreateEntity()
	require.NoError(t, err)
	velT, err := ComponentType[Velocity](c)
	require.NoError(t, err)

	cmds := c.Commands()
	DeferAdd(cmds, e, Position{X: 2})
	cmds.Add(e, velT, Velocity{DX: 1})
	DeferAdd(cmds, e, Position{X: 3})
	cmds.Clone(e, func(c *Coordinator, n ecs.EntityID) error {
		DeferRemove[Velocity](c.Commands(), n)
		return nil
	})
	require.Equal(t, 4, cmds.Len())

	err = c.FlushCommands()
	assert.ErrorIs(t, err, ecs.ErrComponentAlreadyOnEntity)
	assert.Equal(t, 0, cmds.Len())

	p, err := GetComponent[Position](c, e)
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.X)

	all := c.AllEntities()
	require.Len(t, all, 2)
	for _, n := range all {
		if n == e {
			continue
		}
		assert.True(t, HasComponent[Position](c, n))
		assert.False(t, HasComponent[Velocity](c, n))
	}

	cmds.Remove(e, velT)
	require.NoError(t, c.FlushCommands())
	assert.False(t, HasComponent[Velocity](c, e))
}
