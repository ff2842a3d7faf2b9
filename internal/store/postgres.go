package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/database"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// PostgresStore persists snapshots in a briefing.snapshots table for
// deployments that already run Postgres. Same contract as FileStore.
// ⭐ SSOT: DB 스냅샷 저장은 이 구현에서만
type PostgresStore struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresStore ensures the schema exists and returns the store
func NewPostgresStore(ctx context.Context, db *database.DB, log *logger.Logger) (*PostgresStore, error) {
	s := &PostgresStore{db: db, logger: log}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// migrate creates the snapshots table if missing
func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS briefing`); err != nil {
		return err
	}
	_, err := s.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS briefing.snapshots (
			snapshot_date DATE        NOT NULL,
			data_type     TEXT        NOT NULL,
			collected_at  TIMESTAMPTZ NOT NULL,
			payload       JSONB       NOT NULL,
			PRIMARY KEY (snapshot_date, data_type)
		)
	`)
	return err
}

// Save upserts the snapshot keyed by (today, dataType)
func (s *PostgresStore) Save(ctx context.Context, snap *market.Snapshot, dataType market.DataType) bool {
	payload, err := json.Marshal(snap)
	if err != nil {
		s.logger.WithError(err).Error("Snapshot marshal failed")
		return false
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO briefing.snapshots (snapshot_date, data_type, collected_at, payload)
		VALUES (CURRENT_DATE, $1, NOW(), $2)
		ON CONFLICT (snapshot_date, data_type)
		DO UPDATE SET collected_at = EXCLUDED.collected_at, payload = EXCLUDED.payload
	`, string(dataType), payload)
	if err != nil {
		s.logger.WithError(err).Error("Snapshot upsert failed")
		return false
	}

	s.logger.WithField("data_type", dataType).Info("Snapshot saved")
	return true
}

// Load reads the record for (date, dataType); zero date means today
func (s *PostgresStore) Load(ctx context.Context, date time.Time, dataType market.DataType) (*market.Snapshot, bool) {
	var payload []byte
	err := s.db.Pool.QueryRow(ctx, `
		SELECT payload FROM briefing.snapshots
		WHERE snapshot_date = $1 AND data_type = $2
	`, dateKey(date), string(dataType)).Scan(&payload)
	if err != nil {
		return nil, false
	}

	return unmarshalSnapshot(payload, s.logger)
}

// Latest returns the most recently written record of the given type
func (s *PostgresStore) Latest(ctx context.Context, dataType market.DataType) (*market.Snapshot, bool) {
	var payload []byte
	err := s.db.Pool.QueryRow(ctx, `
		SELECT payload FROM briefing.snapshots
		WHERE data_type = $1
		ORDER BY collected_at DESC
		LIMIT 1
	`, string(dataType)).Scan(&payload)
	if err != nil {
		return nil, false
	}

	return unmarshalSnapshot(payload, s.logger)
}

// Purge deletes records older than retainDays
func (s *PostgresStore) Purge(ctx context.Context, retainDays int) int {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM briefing.snapshots
		WHERE snapshot_date < CURRENT_DATE - $1::INT
	`, retainDays)
	if err != nil {
		s.logger.WithError(err).Error("Snapshot purge failed")
		return 0
	}

	return int(tag.RowsAffected())
}

// List returns the available data types per date
func (s *PostgresStore) List(ctx context.Context) map[string][]market.DataType {
	available := make(map[string][]market.DataType)

	rows, err := s.db.Pool.Query(ctx, `
		SELECT snapshot_date::TEXT, data_type FROM briefing.snapshots
		ORDER BY snapshot_date, data_type
	`)
	if err != nil {
		s.logger.WithError(err).Error("Snapshot list failed")
		return available
	}
	defer rows.Close()

	for rows.Next() {
		var date, dataType string
		if err := rows.Scan(&date, &dataType); err != nil {
			continue
		}
		available[date] = append(available[date], market.DataType(dataType))
	}

	return available
}

func unmarshalSnapshot(payload []byte, log *logger.Logger) (*market.Snapshot, bool) {
	var snap market.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		log.WithError(err).Error("Snapshot unmarshal failed")
		return nil, false
	}
	return &snap, true
}
