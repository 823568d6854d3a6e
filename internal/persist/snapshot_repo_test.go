package persist

import (
	"testing"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/config"
	"github.com/l1jgo/engine/internal/core/coordinator"
	"github.com/l1jgo/engine/internal/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func world(t *testing.T) *coordinator.Coordinator {
	t.Helper()
	c := coordinator.New()
	require.NoError(t, component.RegisterAll(c))
	return c
}

// Rows and Document must carry a snapshot through the table layout intact,
// including tags above MaxInt64 stored as negative BIGINTs.
func TestRowsDocumentRestore(t *testing.T) {
	c := world(t)
	for i := 0; i < 3; i++ {
		e, err := c.CreateEntity()
		require.NoError(t, err)
		require.NoError(t, coordinator.AddComponent(c, e, component.Position{X: float64(i)}))
		if i == 1 {
			require.NoError(t, coordinator.AddComponent(c, e, component.Sprite{Glyph: "x", Layer: 2}))
		}
	}
	doc, err := serial.New(c, nil).Snapshot()
	require.NoError(t, err)

	rows, err := Rows(doc)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	back, err := Document(rows)
	require.NoError(t, err)
	require.Len(t, back.Entities, 3)
	for i, ent := range back.Entities {
		for j, cr := range ent.Components {
			assert.Equal(t, doc.Entities[i].Components[j].Tag, cr.Tag)
			assert.Equal(t, doc.Entities[i].Components[j].Name, cr.Name)
		}
	}

	c2 := world(t)
	ids, err := serial.New(c2, nil).Restore(back)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	sp, err := coordinator.GetComponent[component.Sprite](c2, ids[1])
	require.NoError(t, err)
	assert.Equal(t, component.Sprite{Glyph: "x", Layer: 2}, *sp)
	p, err := coordinator.GetComponent[component.Position](c2, ids[2])
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.X)
}

func TestRowsKeepComponentlessEntities(t *testing.T) {
	c := world(t)
	bare, err := c.CreateEntity()
	require.NoError(t, err)
	full, err := c.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, coordinator.AddComponent(c, full, component.Health{HP: 7, MaxHP: 9}))
	_, err = c.CreateEntity()
	require.NoError(t, err)

	doc, err := serial.New(c, nil).Snapshot()
	require.NoError(t, err)
	rows, err := Rows(doc)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ComponentRow{EntitySeq: 0, EntityHandle: int64(bare)}, rows[0])

	back, err := Document(rows)
	require.NoError(t, err)
	require.Len(t, back.Entities, 3)
	assert.Empty(t, back.Entities[0].Components)
	assert.Len(t, back.Entities[1].Components, 1)
	assert.Empty(t, back.Entities[2].Components)

	c2 := world(t)
	ids, err := serial.New(c2, nil).Restore(back)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, 3, c2.EntityCount())
	n, err := c2.EntityComponentCount(ids[0])
	require.NoError(t, err)
	assert.Zero(t, n)
	h, err := coordinator.GetComponent[component.Health](c2, ids[1])
	require.NoError(t, err)
	assert.Equal(t, 7, h.HP)
}

func TestPoolConfig(t *testing.T) {
	cfg := config.Default().Database
	cfg.DSN = "postgres://u:p@db.example:5433/snap?sslmode=disable"
	cfg.MaxOpenConns = 8
	cfg.MaxIdleConns = 2
	pc, err := poolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, cfg.ConnMaxLifetime, pc.MaxConnLifetime)
	assert.Equal(t, "db.example", pc.ConnConfig.Host)
	assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])

	cfg.DSN = "postgres://u:p@db.example/snap?application_name=tool"
	pc, err = poolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "tool", pc.ConnConfig.RuntimeParams["application_name"])

	cfg.DSN = "::not a dsn"
	_, err = poolConfig(cfg)
	assert.Error(t, err)
}
