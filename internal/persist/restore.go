package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/serial"
	"go.uber.org/zap"
)

// SnapshotSource is the read side of SnapshotRepo.
type SnapshotSource interface {
	Latest(ctx context.Context) (int64, error)
	Load(ctx context.Context, id int64) (*serial.Document, error)
}

// RestoreLatest loads the most recent snapshot into the serializer's world.
// found is false when the store holds no snapshot. Records that fail to
// decode are skipped; their errors are returned joined with the restored ids.
func RestoreLatest(ctx context.Context, src SnapshotSource, ser *serial.Serializer, log *zap.Logger) (ids []ecs.EntityID, found bool, err error) {
	id, err := src.Latest(ctx)
	if errors.Is(err, ErrSnapshotNotFound) {
		log.Info("no snapshot to restore")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("latest snapshot: %w", err)
	}
	doc, err := src.Load(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %d: %w", id, err)
	}
	ids, err = ser.Restore(doc)
	log.Info("snapshot restored",
		zap.Int64("id", id),
		zap.Int("entities", len(ids)),
		zap.Int("records", len(doc.Entities)),
	)
	return ids, true, err
}
