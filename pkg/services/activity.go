package services

import (
	"context"
	"fmt"

	"BlenderChat/models"

	"gorm.io/gorm"
)

// ActivityService appends activity rows. A nil db means persistence was
// never configured.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Configured reports whether a store handle is present.
func (s *ActivityService) Configured() bool {
	return s != nil && s.db != nil
}

// Record inserts one row and returns the id and timestamp the store assigned,
// read inside the transaction that wrote them.
func (s *ActivityService) Record(ctx context.Context) (models.ActivityRecord, error) {
	if !s.Configured() {
		return models.ActivityRecord{}, ErrNotConfigured
	}

	var rec models.ActivityRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		// dialects without RETURNING (mysql) only hand back the id
		if rec.TS.IsZero() {
			return tx.First(&rec, rec.ID).Error
		}
		return nil
	})
	if err != nil {
		return models.ActivityRecord{}, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return rec, nil
}
