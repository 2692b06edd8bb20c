package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"camionetas/pkg/registro"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// UsageRecord is the table row. The unique index keeps one entry per gestor,
// patente and day even across processes sharing the file.
type UsageRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Date      string `gorm:"size:10;not null;uniqueIndex:idx_usage_day"`
	Gestor    string `gorm:"not null;uniqueIndex:idx_usage_day;index"`
	Patente   string `gorm:"not null;uniqueIndex:idx_usage_day"`
	Site      string `gorm:"not null"`
	Region    int    `gorm:"not null"`
	Project   string
	Activity  string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store keeps usage records in SQLite. Record ids are primary keys.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.AutoMigrate(&UsageRecord{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(rec registro.Record) UsageRecord {
	return UsageRecord{
		Date:     rec.Date.Format(registro.DateLayout),
		Gestor:   rec.Gestor,
		Patente:  rec.Patente,
		Site:     rec.Site,
		Region:   rec.Region,
		Project:  rec.Project,
		Activity: rec.Activity,
	}
}

func fromModel(m UsageRecord) registro.Record {
	return registro.Record{
		ID:       int(m.ID),
		Date:     registro.ParseDate(m.Date),
		Gestor:   m.Gestor,
		Patente:  m.Patente,
		Site:     m.Site,
		Region:   m.Region,
		Project:  m.Project,
		Activity: m.Activity,
	}
}

// isUniqueViolation maps the driver's constraint error to ErrDuplicate.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *Store) List(ctx context.Context) (registro.Records, error) {
	var rows []UsageRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(registro.Records, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromModel(r))
	}
	return out, nil
}

func (s *Store) Append(ctx context.Context, rec registro.Record) error {
	m := toModel(rec)
	err := s.db.WithContext(ctx).Create(&m).Error
	if isUniqueViolation(err) {
		return registro.ErrDuplicate
	}
	return err
}

func (s *Store) Update(ctx context.Context, id int, rec registro.Record) error {
	var existing UsageRecord
	err := s.db.WithContext(ctx).First(&existing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return registro.ErrNotFound
	}
	if err != nil {
		return err
	}

	m := toModel(rec)
	m.ID = existing.ID
	m.CreatedAt = existing.CreatedAt
	err = s.db.WithContext(ctx).Save(&m).Error
	if isUniqueViolation(err) {
		return registro.ErrDuplicate
	}
	return err
}

func (s *Store) Delete(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Delete(&UsageRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return registro.ErrNotFound
	}
	return nil
}
