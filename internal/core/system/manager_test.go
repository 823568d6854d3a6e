package system

import (
	"testing"
	"time"

	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moveSystem struct {
	Base
	ticks   int
	added   []ecs.EntityID
	removed []ecs.EntityID
}

func (s *moveSystem) Update(time.Duration)         { s.ticks++ }
func (s *moveSystem) EntityAdded(e ecs.EntityID)   { s.added = append(s.added, e) }
func (s *moveSystem) EntityRemoved(e ecs.EntityID) { s.removed = append(s.removed, e) }

type renderSystem struct {
	Base
	order *[]string
}

func (s *renderSystem) Update(time.Duration) { *s.order = append(*s.order, "render") }

type inputSystem struct {
	Base
	order *[]string
}

func (s *inputSystem) Update(time.Duration) { *s.order = append(*s.order, "input") }

const (
	posType ecs.ComponentType = 0
	velType ecs.ComponentType = 1
)

func TestRegisterOrderAndIndex(t *testing.T) {
	m := NewManager()
	var order []string

	_, err := Register(m, &renderSystem{order: &order}, false, -1, nil, nil)
	require.NoError(t, err)
	_, err = Register(m, &inputSystem{order: &order}, false, 0, nil, nil)
	require.NoError(t, err)

	idx, err := IndexOf[*inputSystem](m)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	idx, err = IndexOf[*renderSystem](m)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	m.Update(time.Millisecond)
	assert.Equal(t, []string{"input", "render"}, order)

	first, _ := Get[*renderSystem](m)
	again, err := Register(m, &renderSystem{order: &order}, false, -1, nil, nil)
	assert.ErrorIs(t, err, ErrSystemAlreadyRegistered)
	assert.Same(t, first, again)
	assert.Equal(t, 2, m.Len())
}

func TestPauseAllExcept(t *testing.T) {
	m := NewManager()
	var order []string
	_, _ = Register(m, &inputSystem{order: &order}, false, -1, nil, nil)
	_, _ = Register(m, &renderSystem{order: &order}, false, -1, nil, nil)

	renderIdx, _ := IndexOf[*renderSystem](m)
	m.PauseAllExcept(renderIdx)
	m.Update(0)
	assert.Equal(t, []string{"render"}, order)

	m.ResumeAll()
	order = order[:0]
	m.Update(0)
	assert.Equal(t, []string{"input", "render"}, order)

	require.NoError(t, m.SetActive(0, false))
	assert.ErrorIs(t, m.SetActive(5, true), ErrSystemIndex)
}

func TestRequireAndMembership(t *testing.T) {
	m := NewManager()
	mv, err := Register(m, &moveSystem{}, true, -1, nil, nil)
	require.NoError(t, err)

	a := ecs.NewEntityID(0, 1)
	b := ecs.NewEntityID(1, 1)
	sigs := map[ecs.EntityID]ecs.Signature{
		a: ecs.SignatureOf(posType, velType),
		b: ecs.SignatureOf(posType),
	}
	sigOf := func(e ecs.EntityID) ecs.Signature { return sigs[e] }
	all := []ecs.EntityID{a, b}

	require.NoError(t, m.Require(mv, posType, all, sigOf))
	assert.ElementsMatch(t, all, mv.Entities())

	require.NoError(t, m.Require(mv, velType, all, sigOf))
	assert.Equal(t, []ecs.EntityID{a}, mv.Entities())
	assert.Equal(t, []ecs.EntityID{b}, mv.removed)

	// b gains velocity
	sigs[b] = ecs.SignatureOf(posType, velType)
	m.ComponentChanged(b, sigs[b], velType, true)
	assert.True(t, mv.Contains(b))

	// a loses velocity
	sigs[a] = ecs.SignatureOf(posType)
	m.ComponentChanged(a, sigs[a], velType, false)
	assert.False(t, mv.Contains(a))

	m.EntityDestroyed(b)
	assert.Equal(t, 0, mv.Len())
}

func TestEmptyRequirementGetsNoEntities(t *testing.T) {
	m := NewManager()
	mv, _ := Register(m, &moveSystem{}, true, -1, nil, nil)
	m.SignatureChanged(ecs.NewEntityID(0, 1), ecs.SignatureOf(posType))
	assert.Equal(t, 0, mv.Len())
}

func TestUnlinkedSystemGetsNoEntities(t *testing.T) {
	m := NewManager()
	var order []string
	r, _ := Register(m, &renderSystem{order: &order}, false, -1, nil, nil)
	e := ecs.NewEntityID(0, 1)
	require.NoError(t, m.Require(r, posType, []ecs.EntityID{e}, func(ecs.EntityID) ecs.Signature {
		return ecs.SignatureOf(posType)
	}))
	assert.Equal(t, 0, r.Len())
}

func TestRemoveSystem(t *testing.T) {
	m := NewManager()
	mv, _ := Register(m, &moveSystem{}, true, -1, nil, nil)
	e := ecs.NewEntityID(0, 1)
	require.NoError(t, m.Require(mv, posType, []ecs.EntityID{e}, func(ecs.EntityID) ecs.Signature {
		return ecs.SignatureOf(posType)
	}))
	require.Equal(t, 1, mv.Len())

	require.NoError(t, Remove[*moveSystem](m))
	assert.Equal(t, 0, mv.Len())
	assert.ErrorIs(t, Remove[*moveSystem](m), ErrSystemNotRegistered)
	_, err := IndexOf[*moveSystem](m)
	assert.ErrorIs(t, err, ErrSystemNotRegistered)
	assert.ErrorIs(t, m.Require(mv, velType, nil, nil), ErrSystemNotRegistered)

	m.Update(0)
	assert.Equal(t, 0, mv.ticks)
}

type scriptSystem struct {
	Base
	name string
}

func (s *scriptSystem) Update(time.Duration) {}
func (s *scriptSystem) SystemName() string   { return s.name }

func TestNamedSystemsShareType(t *testing.T) {
	m := NewManager()
	_, err := Register(m, &scriptSystem{name: "a"}, true, -1, nil, nil)
	require.NoError(t, err)
	_, err = Register(m, &scriptSystem{name: "b"}, true, -1, nil, nil)
	require.NoError(t, err)
	_, err = Register(m, &scriptSystem{name: "a"}, true, -1, nil, nil)
	assert.ErrorIs(t, err, ErrSystemAlreadyRegistered)

	s, idx, err := m.Named("b")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "b", s.(*scriptSystem).name)

	require.NoError(t, m.RemoveNamed("a"))
	_, idx, err = m.Named("b")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.ErrorIs(t, m.RemoveNamed("a"), ErrSystemNotRegistered)
}

func TestReregisterRebuildsMembership(t *testing.T) {
	m := NewManager()
	mv, _ := Register(m, &moveSystem{}, true, -1, nil, nil)
	a := ecs.NewEntityID(0, 1)
	b := ecs.NewEntityID(1, 1)
	sigs := map[ecs.EntityID]ecs.Signature{
		a: ecs.SignatureOf(posType, velType),
		b: ecs.SignatureOf(posType),
	}
	sigOf := func(e ecs.EntityID) ecs.Signature { return sigs[e] }
	all := []ecs.EntityID{a, b}
	require.NoError(t, m.Require(mv, posType, all, sigOf))
	require.NoError(t, m.Require(mv, velType, all, sigOf))

	require.NoError(t, Remove[*moveSystem](m))
	again, err := Register(m, mv, true, -1, all, sigOf)
	require.NoError(t, err)
	assert.Equal(t, ecs.SignatureOf(posType, velType), again.Required())
	assert.Equal(t, []ecs.EntityID{a}, again.Entities())

	// a further requirement only refilters the rebuilt members
	require.NoError(t, m.Require(again, velType, all, sigOf))
	assert.Equal(t, []ecs.EntityID{a}, again.Entities())
}
