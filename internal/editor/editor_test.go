package editor

import (
	"bytes"
	"testing"
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/coordinator"
	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type nopRenderer struct{ frames int }

func (r *nopRenderer) Submit([]system.DrawItem) { r.frames++ }

func setup(t *testing.T) (*Editor, *coordinator.Coordinator, *system.Set, *nopRenderer) {
	t.Helper()
	log := zaptest.NewLogger(t)
	c := coordinator.New(coordinator.WithLogger(log))
	require.NoError(t, component.RegisterAll(c))
	r := &nopRenderer{}
	set, err := system.RegisterAll(c, r)
	require.NoError(t, err)
	return New(c, log), c, set, r
}

func TestPickerListsRegisteredTypes(t *testing.T) {
	ed, _, _, _ := setup(t)
	var names []string
	for _, p := range ed.Picker() {
		names = append(names, p.Name)
		assert.Equal(t, ecs.ComponentTag(p.Name), p.Tag)
	}
	assert.Equal(t, []string{"Position", "Velocity", "Health", "Lifetime", "Sprite", "Tags"}, names)
}

func TestAddRemoveByName(t *testing.T) {
	ed, c, set, _ := setup(t)
	e, err := c.CreateEntity()
	require.NoError(t, err)

	require.NoError(t, ed.AddComponent(e, "position"))
	require.NoError(t, ed.AddComponent(e, "Velocity"))
	assert.True(t, set.Movement.Contains(e))
	assert.Error(t, ed.AddComponent(e, "Velocity"))
	assert.Error(t, ed.AddComponent(e, "Mana"))

	views, err := ed.Inspect(e)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Position", views[0].Name)
	assert.Equal(t, "Velocity", views[1].Name)

	require.NoError(t, ed.RemoveComponent(e, "velocity"))
	assert.False(t, set.Movement.Contains(e))
	assert.Error(t, ed.RemoveComponent(e, "velocity"))

	counts := ed.Counts()
	assert.Equal(t, 1, counts["Position"])
	assert.Equal(t, 0, counts["Velocity"])
}

func TestTogglePauseKeepsRendering(t *testing.T) {
	ed, c, _, r := setup(t)
	e, _ := c.CreateEntity()
	require.NoError(t, coordinator.AddComponent(c, e, component.Position{}))
	require.NoError(t, coordinator.AddComponent(c, e, component.Velocity{DX: 1}))
	require.NoError(t, coordinator.AddComponent(c, e, component.Sprite{Glyph: "@"}))

	paused, err := ed.TogglePause()
	require.NoError(t, err)
	assert.True(t, paused)
	require.NoError(t, c.UpdateSystems(time.Second))

	pos, _ := coordinator.GetComponent[component.Position](c, e)
	assert.Zero(t, pos.X)
	assert.Equal(t, 1, r.frames)

	paused, err = ed.TogglePause()
	require.NoError(t, err)
	assert.False(t, paused)
	require.NoError(t, c.UpdateSystems(time.Second))
	assert.InDelta(t, 1.0, pos.X, 1e-9)
	assert.Equal(t, 2, r.frames)
}

func TestParseEntity(t *testing.T) {
	id, err := ParseEntity("12:3")
	require.NoError(t, err)
	assert.Equal(t, ecs.NewEntityID(12, 3), id)
	assert.Equal(t, "12:3", id.String())

	for _, bad := range []string{"", "12", "a:1", "1:b", "1:0"} {
		_, err := ParseEntity(bad)
		assert.ErrorIs(t, err, ErrBadEntity, bad)
	}
}

func TestExec(t *testing.T) {
	ed, c, _, _ := setup(t)
	e, _ := c.CreateEntity()
	var out bytes.Buffer

	require.NoError(t, ed.Exec("add "+e.String()+" health", &out))
	require.NoError(t, ed.Exec("inspect "+e.String(), &out))
	assert.Contains(t, out.String(), "Health")

	out.Reset()
	require.NoError(t, ed.Exec("counts", &out))
	assert.Contains(t, out.String(), "Health")

	out.Reset()
	require.NoError(t, ed.Exec("pause", &out))
	assert.Equal(t, "paused\n", out.String())
	assert.True(t, ed.Paused())

	assert.ErrorIs(t, ed.Exec("explode", &out), ErrUnknownCommand)
	assert.Error(t, ed.Exec("rm "+e.String(), &out))
	require.NoError(t, ed.Exec("", &out))
}
