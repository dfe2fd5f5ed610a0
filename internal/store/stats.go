package store

import (
	"context"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// StatRow is one (tier, status) bucket of the dashboard aggregate.
type StatRow struct {
	Tier             string `json:"tier"`
	Status           string `json:"status"`
	Sprints          int    `json:"sprints"`
	Revenue          int64  `json:"revenue"`
	CompletedModules int    `json:"completedModules"`
}

// SprintStats aggregates sprints per tier and status. A non-empty userID
// limits it to that user's sprints. Revenue counts only paid sprints.
func (s *Store) SprintStats(ctx context.Context, userID string) ([]StatRow, error) {
	q := s.db.WithContext(ctx).Model(&models.Sprint{}).
		Select(`sprints.tier AS tier, sprints.status AS status, COUNT(*) AS sprints,
			COALESCE(SUM(CASE WHEN sprints.paid_at IS NOT NULL THEN sprints.price ELSE 0 END), 0) AS revenue`).
		Group("sprints.tier, sprints.status").
		Order("sprints.tier, sprints.status")
	if userID != "" {
		q = q.Where("sprints.client_id = ? OR sprints.consultant_id = ?", userID, userID)
	}
	var rows []StatRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, wrap("stats", "sprint", "", err)
	}

	type modCount struct {
		Tier   string
		Status string
		N      int
	}
	mq := s.db.WithContext(ctx).Table("sprint_modules").
		Select("sprints.tier AS tier, sprints.status AS status, COUNT(*) AS n").
		Joins("JOIN sprints ON sprints.id = sprint_modules.sprint_id").
		Where("sprint_modules.is_completed = ?", true).
		Group("sprints.tier, sprints.status")
	if userID != "" {
		mq = mq.Where("sprints.client_id = ? OR sprints.consultant_id = ?", userID, userID)
	}
	var counts []modCount
	if err := mq.Scan(&counts).Error; err != nil {
		return nil, wrap("stats", "module", "", err)
	}
	for _, c := range counts {
		for i := range rows {
			if rows[i].Tier == c.Tier && rows[i].Status == c.Status {
				rows[i].CompletedModules = c.N
			}
		}
	}
	return rows, nil
}
