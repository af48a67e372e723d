package indexstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"slideforge-backend/internal/models"
)

// GormStore backs the index with the project_index table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &GormStore{db: db}
}

func (s *GormStore) AppendRow(ctx context.Context, row *models.ProjectIndex) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("append index row %s: %w", row.ProjectID, err)
	}
	return nil
}

func (s *GormStore) FindRowByKey(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ProjectIndex{}).
		Where("project_id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("find index row %s: %w", id, err)
	}
	return count > 0, nil
}

func (s *GormStore) ReadRow(ctx context.Context, id uuid.UUID) (*models.ProjectIndex, error) {
	var row models.ProjectIndex
	err := s.db.WithContext(ctx).Where("project_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("index row %s: %w", id, ErrRowNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read index row %s: %w", id, err)
	}
	return &row, nil
}

func (s *GormStore) UpdateRow(ctx context.Context, row *models.ProjectIndex) error {
	res := s.db.WithContext(ctx).Model(&models.ProjectIndex{}).
		Where("project_id = ?", row.ProjectID).
		Select("*").Omit("project_id").Updates(row)
	if res.Error != nil {
		return fmt.Errorf("update index row %s: %w", row.ProjectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("index row %s: %w", row.ProjectID, ErrRowNotFound)
	}
	return nil
}

func (s *GormStore) DeleteRow(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Where("project_id = ?", id).
		Delete(&models.ProjectIndex{}).Error
	if err != nil {
		return fmt.Errorf("delete index row %s: %w", id, err)
	}
	return nil
}

func (s *GormStore) ListRows(ctx context.Context) ([]models.ProjectIndex, error) {
	var rows []models.ProjectIndex
	err := s.db.WithContext(ctx).Order("last_modified desc").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list index rows: %w", err)
	}
	return rows, nil
}
