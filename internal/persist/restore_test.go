package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/coordinator"
	"github.com/l1jgo/engine/internal/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// memSource keeps snapshots as table rows, as SnapshotRepo stores them.
type memSource struct {
	snaps map[int64][]ComponentRow
	last  int64
	err   error
}

func (m *memSource) Latest(context.Context) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.last == 0 {
		return 0, ErrSnapshotNotFound
	}
	return m.last, nil
}

func (m *memSource) Load(_ context.Context, id int64) (*serial.Document, error) {
	rows, ok := m.snaps[id]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return Document(rows)
}

func (m *memSource) save(t *testing.T, doc *serial.Document) {
	t.Helper()
	rows, err := Rows(doc)
	require.NoError(t, err)
	if m.snaps == nil {
		m.snaps = map[int64][]ComponentRow{}
	}
	m.last++
	m.snaps[m.last] = rows
}

func TestRestoreLatest(t *testing.T) {
	log := zaptest.NewLogger(t)
	src := &memSource{}

	c := world(t)
	ids, found, err := RestoreLatest(context.Background(), src, serial.New(c, log), log)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, ids)

	e, _ := c.CreateEntity()
	require.NoError(t, coordinator.AddComponent(c, e, component.Position{X: 1}))
	_, _ = c.CreateEntity()
	doc, err := serial.New(c, log).Snapshot()
	require.NoError(t, err)
	src.save(t, doc)

	require.NoError(t, coordinator.AddComponent(c, e, component.Velocity{DX: 2}))
	doc, err = serial.New(c, log).Snapshot()
	require.NoError(t, err)
	src.save(t, doc)

	c2 := world(t)
	ids, found, err = RestoreLatest(context.Background(), src, serial.New(c2, log), log)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, ids, 2)
	v, err := coordinator.GetComponent[component.Velocity](c2, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.DX)
	assert.Equal(t, 2, c2.EntityCount())
}

func TestRestoreLatestStoreError(t *testing.T) {
	log := zaptest.NewLogger(t)
	boom := errors.New("connection refused")
	_, found, err := RestoreLatest(context.Background(), &memSource{err: boom}, serial.New(world(t), log), log)
	assert.ErrorIs(t, err, boom)
	assert.False(t, found)
}
