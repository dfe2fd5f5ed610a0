package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// NewSprint describes a sprint creation request after validation.
type NewSprint struct {
	ClientID                string
	ConsultantID            string
	CompanyName             string
	Tier                    catalog.Tier
	IsPartnershipEvaluation bool
}

// CreateSprint inserts a draft sprint priced from its tier.
func (s *Store) CreateSprint(ctx context.Context, in NewSprint) (models.Sprint, error) {
	if !in.Tier.Valid() {
		return models.Sprint{}, &catalog.InvalidTierError{Tier: string(in.Tier)}
	}
	sp := models.Sprint{
		ClientID:                in.ClientID,
		Tier:                    in.Tier,
		Status:                  models.StatusDraft,
		CompanyName:             in.CompanyName,
		IsPartnershipEvaluation: in.IsPartnershipEvaluation,
		Price:                   in.Tier.Price(),
	}
	if in.ConsultantID != "" {
		id := in.ConsultantID
		sp.ConsultantID = &id
	}
	err := s.db.WithContext(ctx).Create(&sp).Error
	return sp, wrap("create", "sprint", "", err)
}

func (s *Store) GetSprint(ctx context.Context, id string) (models.Sprint, error) {
	var sp models.Sprint
	err := s.db.WithContext(ctx).First(&sp, "id = ?", id).Error
	return sp, wrap("get", "sprint", id, err)
}

// LockSprint reads the sprint with a row lock held until the transaction ends.
func (s *Store) LockSprint(ctx context.Context, id string) (models.Sprint, error) {
	var sp models.Sprint
	err := ForUpdate(s.db.WithContext(ctx)).First(&sp, "id = ?", id).Error
	return sp, wrap("lock", "sprint", id, err)
}

// ListSprints returns sprints newest first; a non-empty userID limits the
// list to sprints where the user is client or consultant.
func (s *Store) ListSprints(ctx context.Context, userID string) ([]models.Sprint, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if userID != "" {
		q = q.Where("client_id = ? OR consultant_id = ?", userID, userID)
	}
	var out []models.Sprint
	err := q.Find(&out).Error
	return out, wrap("list", "sprint", "", err)
}

// AdvanceStatus moves a sprint forward in draft -> payment_pending -> active
// -> completed. Moving to the current status is a no-op apart from extra
// column updates; moving backwards fails with ErrInvalidTransition.
func (s *Store) AdvanceStatus(ctx context.Context, id string, to models.SprintStatus, extra map[string]any) (models.Sprint, error) {
	if to.Rank() < 0 {
		return models.Sprint{}, wrap("advance", "sprint", id, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to))
	}
	var out models.Sprint
	err := s.WithTx(ctx, func(tx *Store) error {
		sp, err := tx.LockSprint(ctx, id)
		if err != nil {
			return err
		}
		if to.Rank() < sp.Status.Rank() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sp.Status, to)
		}
		updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
		for k, v := range extra {
			updates[k] = v
		}
		if err := tx.db.Model(&sp).Updates(updates).Error; err != nil {
			return err
		}
		return tx.db.First(&out, "id = ?", id).Error
	})
	if err != nil {
		return out, wrap("advance", "sprint", id, err)
	}
	return out, nil
}

// SetTier records a tier change. Price keeps its creation-time value.
func (s *Store) SetTier(ctx context.Context, id string, tier catalog.Tier) (models.Sprint, error) {
	if !tier.Valid() {
		return models.Sprint{}, &catalog.InvalidTierError{Tier: string(tier)}
	}
	res := s.db.WithContext(ctx).Model(&models.Sprint{}).Where("id = ?", id).
		Updates(map[string]any{"tier": tier, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return models.Sprint{}, wrap("set tier", "sprint", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Sprint{}, wrap("set tier", "sprint", id, ErrNotFound)
	}
	return s.GetSprint(ctx, id)
}

// Touch bumps updated_at; used by the UI's explicit save.
func (s *Store) Touch(ctx context.Context, id string) (models.Sprint, error) {
	res := s.db.WithContext(ctx).Model(&models.Sprint{}).Where("id = ?", id).
		Update("updated_at", time.Now().UTC())
	if res.Error != nil {
		return models.Sprint{}, wrap("touch", "sprint", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Sprint{}, wrap("touch", "sprint", id, ErrNotFound)
	}
	return s.GetSprint(ctx, id)
}

// SetProgress stores a recomputed progress percentage.
func (s *Store) SetProgress(ctx context.Context, id string, progress int) error {
	err := s.db.WithContext(ctx).Model(&models.Sprint{}).Where("id = ?", id).
		UpdateColumn("progress", progress).Error
	return wrap("set progress", "sprint", id, err)
}

// BumpModulesVersion is a compare-and-swap on the sprint's module-set
// version; it reports false when another writer got there first.
func (s *Store) BumpModulesVersion(ctx context.Context, id string, seen int64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Sprint{}).
		Where("id = ? AND modules_version = ?", id, seen).
		UpdateColumn("modules_version", gorm.Expr("modules_version + 1"))
	if res.Error != nil {
		return false, wrap("bump version", "sprint", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
