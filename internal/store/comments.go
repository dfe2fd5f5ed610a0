package store

import (
	"context"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// AddComment stores a new immutable comment.
func (s *Store) AddComment(ctx context.Context, c *models.Comment) error {
	c.ID = ""
	return wrap("create", "comment", "", s.db.WithContext(ctx).Create(c).Error)
}

// ListComments returns a sprint's comments oldest first.
func (s *Store) ListComments(ctx context.Context, sprintID string) ([]models.Comment, error) {
	var out []models.Comment
	err := s.db.WithContext(ctx).
		Where("sprint_id = ?", sprintID).
		Order("created_at ASC").
		Find(&out).Error
	return out, wrap("list", "comment", sprintID, err)
}
