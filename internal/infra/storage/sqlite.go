package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"futures_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Storage keeps the pre-market snapshot of each trading day and the risk
// rejection journal. The ledger itself is never stored.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite database at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.SnapshotDay{}, &domain.SnapshotRow{}, &domain.RejectionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Snapshot Operations
// ======================================================================================

// SaveSnapshot stores the snapshot of tradingDay unless one is already
// stored: the first snapshot of a day is the pre-market one. A flat
// snapshot is recorded too, by its day marker alone.
func (s *Storage) SaveSnapshot(tradingDay string, positions []domain.SnapshotPosition) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		day := domain.SnapshotDay{TradingDay: tradingDay, Positions: len(positions)}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&day)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 || len(positions) == 0 {
			return nil
		}

		rows := make([]domain.SnapshotRow, 0, len(positions))
		for _, p := range positions {
			rows = append(rows, domain.SnapshotRow{
				TradingDay:    tradingDay,
				Code:          p.Code,
				Market:        string(p.Market),
				LongYdVolume:  p.LongYdVolume,
				ShortYdVolume: p.ShortYdVolume,
			})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

// LoadSnapshot returns the stored snapshot of tradingDay. found is false
// when no snapshot was stored for the day; a stored flat snapshot is
// found with no positions.
func (s *Storage) LoadSnapshot(tradingDay string) ([]domain.SnapshotPosition, bool, error) {
	var days int64
	if err := s.db.Model(&domain.SnapshotDay{}).Where("trading_day = ?", tradingDay).Count(&days).Error; err != nil {
		return nil, false, err
	}
	if days == 0 {
		return nil, false, nil // Not found is not an error
	}

	var rows []domain.SnapshotRow
	if err := s.db.Where("trading_day = ?", tradingDay).Order("code").Find(&rows).Error; err != nil {
		return nil, false, err
	}
	out := make([]domain.SnapshotPosition, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.SnapshotPosition{
			Code:          r.Code,
			Market:        domain.Market(r.Market),
			LongYdVolume:  r.LongYdVolume,
			ShortYdVolume: r.ShortYdVolume,
		})
	}
	return out, true, nil
}

// DeleteSnapshotsBefore removes snapshots of days before tradingDay and
// returns the number of days removed.
func (s *Storage) DeleteSnapshotsBefore(tradingDay string) (int64, error) {
	var n int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trading_day < ?", tradingDay).Delete(&domain.SnapshotRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("trading_day < ?", tradingDay).Delete(&domain.SnapshotDay{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// ======================================================================================
// Rejection Journal
// ======================================================================================

// RecordRejection appends a risk rejection to the journal.
func (s *Storage) RecordRejection(tradingDay string, req domain.OrderRequest, rr *domain.RiskRejection) error {
	row := domain.RejectionRow{
		TradingDay: tradingDay,
		Code:       rr.Code,
		Class:      rr.Class,
		Side:       req.Side.String(),
		OcFlag:     req.OcFlag.String(),
		Attempted:  rr.Attempted,
		Current:    rr.Current,
		Cap:        rr.Cap,
	}
	return s.db.Create(&row).Error
}

// Rejections lists the rejections of tradingDay, oldest first.
func (s *Storage) Rejections(tradingDay string) ([]domain.RejectionRow, error) {
	var rows []domain.RejectionRow
	err := s.db.Where("trading_day = ?", tradingDay).Order("id").Find(&rows).Error
	return rows, err
}
