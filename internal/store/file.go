package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// FileStore keeps one JSON file per (date, data type) pair:
// <dataDir>/YYYY-MM-DD_<type>.json
// ⭐ SSOT: 파일 기반 스냅샷 저장은 이 구현에서만
type FileStore struct {
	dataDir string
	logger  *logger.Logger
}

// NewFileStore creates the data directory if needed
func NewFileStore(dataDir string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dataDir: dataDir, logger: log}, nil
}

// filePath builds the record path for a key
func (s *FileStore) filePath(date string, dataType market.DataType) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s_%s.json", date, dataType))
}

// Save writes the snapshot keyed by (today, dataType)
func (s *FileStore) Save(ctx context.Context, snap *market.Snapshot, dataType market.DataType) bool {
	today := dateKey(time.Time{})
	record := Record{
		Date:        today,
		DataType:    dataType,
		CollectedAt: time.Now(),
		MarketData:  snap,
	}

	data, err := json.MarshalIndent(&record, "", "  ")
	if err != nil {
		s.logger.WithError(err).Error("Snapshot marshal failed")
		return false
	}

	path := s.filePath(today, dataType)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.WithError(err).WithField("path", path).Error("Snapshot write failed")
		return false
	}

	s.logger.WithField("path", path).Info("Snapshot saved")
	return true
}

// Load reads the record for (date, dataType); zero date means today
func (s *FileStore) Load(ctx context.Context, date time.Time, dataType market.DataType) (*market.Snapshot, bool) {
	path := s.filePath(dateKey(date), dataType)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", path).Error("Snapshot read failed")
		}
		return nil, false
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.WithError(err).WithField("path", path).Error("Snapshot unmarshal failed")
		return nil, false
	}
	if record.MarketData == nil {
		return nil, false
	}

	return record.MarketData, true
}

// Latest returns the most recently written record of the given type
func (s *FileStore) Latest(ctx context.Context, dataType market.DataType) (*market.Snapshot, bool) {
	pattern := filepath.Join(s.dataDir, fmt.Sprintf("*_%s.json", dataType))
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return nil, false
	}

	// File names sort by date, so the lexicographic maximum is the newest
	sort.Strings(matches)
	latest := matches[len(matches)-1]

	data, err := os.ReadFile(latest)
	if err != nil {
		s.logger.WithError(err).WithField("path", latest).Error("Snapshot read failed")
		return nil, false
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.WithError(err).WithField("path", latest).Error("Snapshot unmarshal failed")
		return nil, false
	}
	if record.MarketData == nil {
		return nil, false
	}

	return record.MarketData, true
}

// Purge deletes records older than retainDays
func (s *FileStore) Purge(ctx context.Context, retainDays int) int {
	cutoff := time.Now().AddDate(0, 0, -retainDays)
	deleted := 0

	matches, err := filepath.Glob(filepath.Join(s.dataDir, "*.json"))
	if err != nil {
		return 0
	}

	for _, path := range matches {
		date, _, ok := parseRecordName(filepath.Base(path))
		if !ok {
			continue
		}
		if date.Before(cutoff) {
			if err := os.Remove(path); err != nil {
				s.logger.WithError(err).WithField("path", path).Error("Snapshot delete failed")
				continue
			}
			deleted++
			s.logger.WithField("path", path).Info("Old snapshot deleted")
		}
	}

	return deleted
}

// List returns the available data types per date
func (s *FileStore) List(ctx context.Context) map[string][]market.DataType {
	available := make(map[string][]market.DataType)

	matches, err := filepath.Glob(filepath.Join(s.dataDir, "*.json"))
	if err != nil {
		return available
	}

	for _, path := range matches {
		date, dataType, ok := parseRecordName(filepath.Base(path))
		if !ok {
			continue
		}
		key := date.Format("2006-01-02")
		available[key] = append(available[key], dataType)
	}

	return available
}

// parseRecordName parses "YYYY-MM-DD_<type>.json"
func parseRecordName(name string) (time.Time, market.DataType, bool) {
	name = strings.TrimSuffix(name, ".json")
	parts := strings.SplitN(name, "_", 2)
	if len(parts) != 2 {
		return time.Time{}, "", false
	}

	date, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return time.Time{}, "", false
	}

	return date, market.DataType(parts[1]), true
}
