package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/l1jgo/engine/internal/config"
	"go.uber.org/zap"
)

const applicationName = "l1jgo-engine"

// DB is the pgx pool backing the snapshot store.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

// NewDB connects with the pool limits from cfg and waits up to
// cfg.ConnectTimeout for the first successful ping.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("snapshot store ping: %w", err)
	}

	log.Info("snapshot store connected",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return &DB{Pool: pool, log: log}, nil
}

// poolConfig maps the [database] section onto pgxpool settings.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 && int32(cfg.MaxIdleConns) <= poolCfg.MaxConns {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return poolCfg, nil
}

// StoreStatus is reported by Health.
type StoreStatus struct {
	Snapshots int64
	LatestAt  time.Time // zero when no snapshot exists
	Conns     int32
}

// Health checks that the snapshot schema is in place and summarises it.
func (db *DB) Health(ctx context.Context) (StoreStatus, error) {
	var st StoreStatus
	var latest *time.Time
	if err := db.Pool.QueryRow(ctx,
		`SELECT count(*), max(created_at) FROM snapshots`,
	).Scan(&st.Snapshots, &latest); err != nil {
		return st, fmt.Errorf("snapshot store health: %w", err)
	}
	if latest != nil {
		st.LatestAt = *latest
	}
	st.Conns = db.Pool.Stat().TotalConns()
	db.log.Debug("snapshot store health",
		zap.Int64("snapshots", st.Snapshots),
		zap.Time("latest", st.LatestAt),
		zap.Int32("conns", st.Conns),
	)
	return st, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
