package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taleweaver/client/internal/config"
)

// SaveSlot is a named durable save of one session's story state.
type SaveSlot struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"size:64;uniqueIndex:idx_session_slot"`
	Slot      string `gorm:"size:64;uniqueIndex:idx_session_slot"`
	Data      []byte `gorm:"type:longblob"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MySQLStore struct {
	db *gorm.DB
}

func NewMySQLStore(cfg config.MySQLConfig) (*MySQLStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.AutoMigrate(&SaveSlot{}); err != nil {
		return nil, err
	}

	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *MySQLStore) GetDB() *gorm.DB {
	return s.db
}

// UpsertSaveSlot writes the blob into the named slot, replacing any earlier
// save under the same name.
func (s *MySQLStore) UpsertSaveSlot(sessionID, slot string, blob []byte) error {
	record := SaveSlot{SessionID: sessionID, Slot: slot, Data: blob}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing SaveSlot
		err := tx.Where("session_id = ? AND slot = ?", sessionID, slot).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&record).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Update("data", blob).Error
	})
}

// LoadSaveSlot returns the blob stored in the named slot.
func (s *MySQLStore) LoadSaveSlot(sessionID, slot string) ([]byte, error) {
	var record SaveSlot
	err := s.db.Where("session_id = ? AND slot = ?", sessionID, slot).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load save slot: %w", err)
	}
	return record.Data, nil
}

// ListSaveSlots returns the slot names saved for the session, newest first.
func (s *MySQLStore) ListSaveSlots(sessionID string) ([]string, error) {
	var names []string
	err := s.db.Model(&SaveSlot{}).
		Where("session_id = ?", sessionID).
		Order("updated_at DESC").
		Pluck("slot", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list save slots: %w", err)
	}
	return names, nil
}
