package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/l1jgo/engine/internal/serial"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrSnapshotNotFound is returned by Load for an unknown snapshot id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ComponentRow is one row of snapshot_components.
type ComponentRow struct {
	EntitySeq     int32
	EntityHandle  int64
	ComponentTag  int64
	ComponentName string
	Payload       string
}

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Rows flattens a document into table rows. Tags and handles are stored as
// their two's-complement BIGINT image. An entity without components is kept
// as a single marker row with an empty component name and tag 0.
func Rows(doc *serial.Document) ([]ComponentRow, error) {
	var rows []ComponentRow
	for seq, ent := range doc.Entities {
		if len(ent.Components) == 0 {
			rows = append(rows, ComponentRow{
				EntitySeq:    int32(seq),
				EntityHandle: int64(ent.Entity),
			})
			continue
		}
		for _, cr := range ent.Components {
			payload, err := yaml.Marshal(&cr.Value)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", cr.Name, err)
			}
			rows = append(rows, ComponentRow{
				EntitySeq:     int32(seq),
				EntityHandle:  int64(ent.Entity),
				ComponentTag:  int64(cr.Tag),
				ComponentName: cr.Name,
				Payload:       string(payload),
			})
		}
	}
	return rows, nil
}

// Document rebuilds a document from rows ordered by entity_seq.
func Document(rows []ComponentRow) (*serial.Document, error) {
	doc := &serial.Document{}
	last := int32(-1)
	for _, r := range rows {
		if r.EntitySeq != last {
			doc.Entities = append(doc.Entities, serial.EntityRecord{Entity: uint64(r.EntityHandle)})
			last = r.EntitySeq
		}
		if r.ComponentName == "" {
			continue
		}
		var node yaml.Node
		if err := yaml.Unmarshal([]byte(r.Payload), &node); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.ComponentName, err)
		}
		// Unmarshal wraps the value in a document node.
		value := node
		if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
			value = *node.Content[0]
		}
		ent := &doc.Entities[len(doc.Entities)-1]
		ent.Components = append(ent.Components, serial.ComponentRecord{
			Name:  r.ComponentName,
			Tag:   uint64(r.ComponentTag),
			Value: value,
		})
	}
	return doc, nil
}

// Save writes doc in a single transaction and returns the snapshot id.
func (r *SnapshotRepo) Save(ctx context.Context, label string, doc *serial.Document) (int64, error) {
	rows, err := Rows(doc)
	if err != nil {
		return 0, err
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO snapshots (label, entities) VALUES ($1, $2) RETURNING id`,
		label, len(doc.Entities),
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("snapshot insert: %w", err)
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(
			`INSERT INTO snapshot_components
			   (snapshot_id, entity_seq, entity_handle, component_tag, component_name, payload)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, row.EntitySeq, row.EntityHandle, row.ComponentTag, row.ComponentName, row.Payload,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("snapshot rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("snapshot commit: %w", err)
	}
	r.db.log.Info("snapshot saved",
		zap.Int64("id", id),
		zap.String("label", label),
		zap.Int("entities", len(doc.Entities)),
		zap.Int("components", len(rows)),
	)
	return id, nil
}

// Load reads a snapshot back into a document.
func (r *SnapshotRepo) Load(ctx context.Context, id int64) (*serial.Document, error) {
	var exists bool
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM snapshots WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("snapshot lookup: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotNotFound, id)
	}

	pgRows, err := r.db.Pool.Query(ctx,
		`SELECT entity_seq, entity_handle, component_tag, component_name, payload
		 FROM snapshot_components WHERE snapshot_id = $1
		 ORDER BY entity_seq, component_name`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot query: %w", err)
	}
	rows, err := pgx.CollectRows(pgRows, func(row pgx.CollectableRow) (ComponentRow, error) {
		var cr ComponentRow
		err := row.Scan(&cr.EntitySeq, &cr.EntityHandle, &cr.ComponentTag, &cr.ComponentName, &cr.Payload)
		return cr, err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot scan: %w", err)
	}
	return Document(rows)
}

// Latest returns the id of the most recent snapshot, or ErrSnapshotNotFound.
func (r *SnapshotRepo) Latest(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `SELECT id FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrSnapshotNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}
