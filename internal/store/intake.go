package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

func (s *Store) GetIntake(ctx context.Context, sprintID string) (models.IntakeData, error) {
	var in models.IntakeData
	err := s.db.WithContext(ctx).Where("sprint_id = ?", sprintID).First(&in).Error
	return in, wrap("get", "intake", sprintID, err)
}

// UpsertIntake creates the sprint's intake row or overwrites the existing one.
// It reports whether a row was created.
func (s *Store) UpsertIntake(ctx context.Context, sprintID string, in models.IntakeData) (models.IntakeData, bool, error) {
	created := false
	err := s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.LockSprint(ctx, sprintID); err != nil {
			return err
		}
		var cur models.IntakeData
		err := tx.db.Where("sprint_id = ?", sprintID).First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			in.ID = ""
			in.SprintID = sprintID
			created = true
			return tx.db.Create(&in).Error
		} else if err != nil {
			return err
		}

		in.ID = cur.ID
		in.SprintID = sprintID
		in.CreatedAt = cur.CreatedAt
		return tx.db.Save(&in).Error
	})
	if err != nil {
		return models.IntakeData{}, false, wrap("upsert", "intake", sprintID, err)
	}
	return in, created, nil
}
