package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPos struct{ X, Y float64 }

func (testPos) Name() string { return "Position" }

type testVel struct{ DX, DY float64 }

type testInventory struct{ Items []int }

func (i testInventory) Clone() testInventory {
	return testInventory{Items: append([]int(nil), i.Items...)}
}

func newManager(t *testing.T) (*ComponentManager, ComponentType, ComponentType) {
	t.Helper()
	cm := NewComponentManager()
	pos, err := RegisterComponent[testPos](cm)
	require.NoError(t, err)
	vel, err := RegisterComponent[testVel](cm)
	require.NoError(t, err)
	return cm, pos, vel
}

func TestRegisterComponent(t *testing.T) {
	cm, pos, vel := newManager(t)
	assert.Equal(t, ComponentType(0), pos)
	assert.Equal(t, ComponentType(1), vel)

	_, err := RegisterComponent[testPos](cm)
	assert.ErrorIs(t, err, ErrComponentAlreadyRegistered)

	byName, err := cm.TypeByName("position")
	require.NoError(t, err)
	assert.Equal(t, pos, byName)

	byGoName, err := cm.TypeByName("testVel")
	require.NoError(t, err)
	assert.Equal(t, vel, byGoName)

	tag, err := cm.TypeByTag(ComponentTag("POSITION"))
	require.NoError(t, err)
	assert.Equal(t, pos, tag)

	_, err = TypeOf[testInventory](cm)
	assert.ErrorIs(t, err, ErrComponentNotRegistered)

	infos := cm.Types()
	require.Len(t, infos, 2)
	assert.Equal(t, "Position", infos[0].Name)
	assert.Equal(t, "testVel", infos[1].Name)
}

func TestComponentAddGetRemove(t *testing.T) {
	cm, _, _ := newManager(t)
	e := NewEntityID(3, 1)

	require.NoError(t, AddComponent(cm, e, testPos{X: 1, Y: 2}))
	assert.True(t, HasComponent[testPos](cm, e))

	p, err := GetComponent[testPos](cm, e)
	require.NoError(t, err)
	assert.Equal(t, testPos{X: 1, Y: 2}, *p)

	p.X = 10
	p2, err := GetComponent[testPos](cm, e)
	require.NoError(t, err)
	assert.Equal(t, 10.0, p2.X, "Get returns a live reference")

	err = AddComponent(cm, e, testPos{})
	assert.ErrorIs(t, err, ErrComponentAlreadyOnEntity)
	p3, _ := GetComponent[testPos](cm, e)
	assert.Equal(t, 10.0, p3.X, "duplicate add must not overwrite")

	require.NoError(t, RemoveComponent[testPos](cm, e))
	assert.False(t, HasComponent[testPos](cm, e))
	assert.ErrorIs(t, RemoveComponent[testPos](cm, e), ErrComponentNotOnEntity)
	_, err = GetComponent[testPos](cm, e)
	assert.ErrorIs(t, err, ErrComponentNotOnEntity)
}

func TestComponentStaleGeneration(t *testing.T) {
	cm, _, _ := newManager(t)
	old := NewEntityID(0, 1)
	require.NoError(t, AddComponent(cm, old, testPos{X: 1}))
	assert.False(t, HasComponent[testPos](cm, NewEntityID(0, 2)))
}

func TestComponentCompaction(t *testing.T) {
	cm, _, _ := newManager(t)
	arr, err := ArrayOf[testPos](cm)
	require.NoError(t, err)

	ids := make([]EntityID, 6)
	for i := range ids {
		ids[i] = NewEntityID(uint32(i), 1)
		require.NoError(t, arr.Add(ids[i], testPos{X: float64(i), Y: float64(i * i)}))
	}

	require.NoError(t, arr.Remove(ids[2]))
	require.NoError(t, arr.Remove(ids[0]))
	assert.Equal(t, 4, arr.Len())
	assert.Len(t, arr.Values(), 4)
	assert.ElementsMatch(t, []EntityID{ids[1], ids[3], ids[4], ids[5]}, arr.Entities())

	for _, i := range []int{1, 3, 4, 5} {
		p, err := arr.Get(ids[i])
		require.NoError(t, err)
		assert.Equal(t, testPos{X: float64(i), Y: float64(i * i)}, *p)
	}
}

func TestStoreRuntimePathSharesStorage(t *testing.T) {
	cm, pos, _ := newManager(t)
	e := NewEntityID(1, 1)
	s, err := cm.Store(pos)
	require.NoError(t, err)

	require.NoError(t, s.Insert(e, &testPos{X: 4}))
	p, err := GetComponent[testPos](cm, e)
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.X)

	v, err := s.Value(e)
	require.NoError(t, err)
	v.(*testPos).Y = 9
	assert.Equal(t, 9.0, p.Y)

	err = s.Insert(NewEntityID(2, 1), testVel{})
	assert.ErrorIs(t, err, ErrComponentValueType)

	require.NoError(t, s.Remove(e))
	assert.False(t, HasComponent[testPos](cm, e))

	require.NoError(t, s.InsertZero(e))
	p, err = GetComponent[testPos](cm, e)
	require.NoError(t, err)
	assert.Equal(t, testPos{}, *p)

	_, ok := s.New().(*testPos)
	assert.True(t, ok)

	_, err = cm.Store(42)
	assert.ErrorIs(t, err, ErrComponentNotRegistered)
}

func TestCloneAndDestroy(t *testing.T) {
	cm, pos, vel := newManager(t)
	inv, err := RegisterComponent[testInventory](cm)
	require.NoError(t, err)

	src, dst := NewEntityID(0, 1), NewEntityID(1, 1)
	require.NoError(t, AddComponent(cm, src, testPos{X: 1}))
	require.NoError(t, AddComponent(cm, src, testInventory{Items: []int{1, 2}}))
	sig := SignatureOf(pos, inv)

	require.NoError(t, cm.CloneEntity(dst, src, sig))
	assert.False(t, HasComponent[testVel](cm, dst))

	srcInv, _ := GetComponent[testInventory](cm, src)
	dstInv, _ := GetComponent[testInventory](cm, dst)
	dstInv.Items[0] = 99
	assert.Equal(t, 1, srcInv.Items[0], "clone is a deep copy")

	all := cm.Components(dst, sig)
	assert.Len(t, all, 2)
	assert.Contains(t, all, "Position")
	assert.Contains(t, all, "testInventory")

	cm.EntityDestroyed(src, sig)
	assert.False(t, HasComponent[testPos](cm, src))
	assert.False(t, HasComponent[testInventory](cm, src))
	assert.True(t, HasComponent[testPos](cm, dst))
	_ = vel
}

func TestEach2(t *testing.T) {
	cm, _, _ := newManager(t)
	a := NewEntityID(0, 1)
	b := NewEntityID(1, 1)
	c := NewEntityID(2, 1)
	for _, e := range []EntityID{a, b, c} {
		require.NoError(t, AddComponent(cm, e, testPos{}))
	}
	require.NoError(t, AddComponent(cm, c, testVel{DX: 2}))
	require.NoError(t, AddComponent(cm, a, testVel{DX: 1}))

	ps, _ := ArrayOf[testPos](cm)
	vs, _ := ArrayOf[testVel](cm)
	var seen []EntityID
	Each2([]EntityID{c, b, a, NewEntityID(0, 2)}, ps, vs, func(e EntityID, p *testPos, v *testVel) {
		p.X += v.DX
		seen = append(seen, e)
	})
	assert.Equal(t, []EntityID{c, a}, seen)
	p, _ := GetComponent[testPos](cm, a)
	assert.Equal(t, 1.0, p.X)
	p, _ = GetComponent[testPos](cm, c)
	assert.Equal(t, 2.0, p.X)
}
