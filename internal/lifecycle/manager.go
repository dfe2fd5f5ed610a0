// Package lifecycle owns the sprint_modules table: it creates module rows from
// the catalog, re-syncs them after intake or tier changes, records completed
// analyses and computes sprint progress. Nothing else writes module rows.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/store"
)

// ModuleState is the derived lifecycle state of one module row.
type ModuleState string

const (
	StateLocked    ModuleState = "locked"
	StateAvailable ModuleState = "available"
	StateCompleted ModuleState = "completed"
)

// State projects a row onto locked / available / completed. Completed wins
// over locked so preserved analyses stay visible after a downgrade.
func State(m models.SprintModule) ModuleState {
	switch {
	case m.IsCompleted:
		return StateCompleted
	case m.IsLocked:
		return StateLocked
	default:
		return StateAvailable
	}
}

type Manager struct {
	store *store.Store
	log   *zap.Logger
}

func New(st *store.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: st, log: log}
}

// InitializeModules inserts one row per catalog entry for the tier. It fails
// with ErrModulesExist, inserting nothing, when any of those rows exists.
func (m *Manager) InitializeModules(ctx context.Context, sprintID string, tier catalog.Tier) ([]models.SprintModule, error) {
	if !tier.Valid() {
		return nil, &catalog.InvalidTierError{Tier: string(tier)}
	}
	var out []models.SprintModule
	err := m.store.WithTx(ctx, func(tx *store.Store) error {
		sp, err := tx.LockSprint(ctx, sprintID)
		if err != nil {
			return err
		}
		partnership, err := partnershipFor(ctx, tx, sp)
		if err != nil {
			return err
		}
		entries, err := catalog.For(tier, partnership)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.DB().Model(&models.SprintModule{}).
			Where("sprint_id = ? AND module_type IN ?", sprintID, catalog.Types(entries)).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: sprint %s has %d module rows", ErrModulesExist, sprintID, existing)
		}

		rows := make([]models.SprintModule, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, models.SprintModule{
				SprintID:   sprintID,
				ModuleType: e.ModuleType,
				IsLocked:   e.IsLocked,
			})
		}
		if err := tx.DB().Create(&rows).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %v", ErrModulesExist, err)
			}
			return err
		}
		if err := bumpVersion(ctx, tx, sp); err != nil {
			return err
		}
		out = rows
		return tx.SetProgress(ctx, sprintID, progress(entries, rows))
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("modules initialized",
		zap.String("sprint", sprintID),
		zap.String("tier", string(tier)),
		zap.Int("count", len(out)))
	return out, nil
}

// plan is the in-memory diff between a sprint's rows and its catalog.
type plan struct {
	keep   []models.SprintModule
	update []models.SprintModule
	delete []string
	insert []models.SprintModule
}

func diff(entries []catalog.Entry, rows []models.SprintModule, sprintID string) plan {
	var p plan
	want := make(map[catalog.ModuleType]catalog.Entry, len(entries))
	for _, e := range entries {
		want[e.ModuleType] = e
	}
	seen := make(map[catalog.ModuleType]bool, len(rows))
	for _, r := range rows {
		seen[r.ModuleType] = true
		if r.IsCompleted && r.HasAnalysis() {
			p.keep = append(p.keep, r)
			continue
		}
		e, ok := want[r.ModuleType]
		if !ok {
			p.delete = append(p.delete, r.ID)
			continue
		}
		if r.IsLocked != e.IsLocked || r.IsCompleted || r.AIAnalysis != nil {
			r.IsLocked = e.IsLocked
			r.IsCompleted = false
			r.AIAnalysis = nil
			p.update = append(p.update, r)
			continue
		}
		p.keep = append(p.keep, r)
	}
	for _, e := range entries {
		if seen[e.ModuleType] {
			continue
		}
		p.insert = append(p.insert, models.SprintModule{
			SprintID:   sprintID,
			ModuleType: e.ModuleType,
			IsLocked:   e.IsLocked,
		})
	}
	return p
}

// RegenerateModules re-syncs a sprint's rows with its current catalog in one
// transaction. Completed rows with an analysis are never modified. Rows in the
// catalog are reset in place, rows outside it are deleted and missing catalog
// entries are inserted. Running it twice yields the same rows.
func (m *Manager) RegenerateModules(ctx context.Context, sprintID string) ([]models.SprintModule, error) {
	var (
		out []models.SprintModule
		p   plan
	)
	err := m.store.WithTx(ctx, func(tx *store.Store) error {
		sp, err := tx.LockSprint(ctx, sprintID)
		if err != nil {
			return err
		}
		partnership, err := partnershipFor(ctx, tx, sp)
		if err != nil {
			return err
		}
		entries, err := catalog.For(sp.Tier, partnership)
		if err != nil {
			return err
		}
		rows, err := loadModules(ctx, tx, sprintID)
		if err != nil {
			return err
		}

		p = diff(entries, rows, sprintID)
		now := time.Now().UTC()
		for i := range p.update {
			r := &p.update[i]
			if err := tx.DB().Model(&models.SprintModule{}).Where("id = ?", r.ID).
				Updates(map[string]any{
					"is_locked":    r.IsLocked,
					"is_completed": false,
					"ai_analysis":  nil,
					"updated_at":   now,
				}).Error; err != nil {
				return err
			}
			r.UpdatedAt = now
		}
		if len(p.delete) > 0 {
			if err := tx.DB().Where("id IN ?", p.delete).Delete(&models.SprintModule{}).Error; err != nil {
				return err
			}
		}
		if len(p.insert) > 0 {
			if err := tx.DB().Create(&p.insert).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
				}
				return err
			}
		}
		if err := bumpVersion(ctx, tx, sp); err != nil {
			return err
		}

		out = make([]models.SprintModule, 0, len(p.keep)+len(p.update)+len(p.insert))
		out = append(out, p.keep...)
		out = append(out, p.update...)
		out = append(out, p.insert...)
		order(out, entries)
		return tx.SetProgress(ctx, sprintID, progress(entries, out))
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("modules regenerated",
		zap.String("sprint", sprintID),
		zap.Int("kept", len(p.keep)),
		zap.Int("reset", len(p.update)),
		zap.Int("deleted", len(p.delete)),
		zap.Int("inserted", len(p.insert)))
	return out, nil
}

// CompleteModule stores content on the existing row and marks it completed.
// Calling it again overwrites the analysis in place. It never inserts.
func (m *Manager) CompleteModule(ctx context.Context, sprintID string, mt catalog.ModuleType, content json.RawMessage) (models.SprintModule, error) {
	if !models.UsableAnalysis(content) {
		return models.SprintModule{}, ErrInvalidContent
	}
	var row models.SprintModule
	err := m.store.WithTx(ctx, func(tx *store.Store) error {
		sp, err := tx.LockSprint(ctx, sprintID)
		if err != nil {
			return err
		}
		err = tx.DB().Where("sprint_id = ? AND module_type = ?", sprintID, mt).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s/%s", ErrModuleNotFound, sprintID, mt)
		} else if err != nil {
			return err
		}
		if row.IsLocked && !row.IsCompleted {
			return fmt.Errorf("%w: %s requires %s", ErrModuleLocked, mt, mt.MinTier())
		}

		now := time.Now().UTC()
		analysis := datatypes.JSON(append([]byte(nil), content...))
		if err := tx.DB().Model(&models.SprintModule{}).Where("id = ?", row.ID).
			Updates(map[string]any{
				"ai_analysis":  analysis,
				"is_completed": true,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}
		row.AIAnalysis = analysis
		row.IsCompleted = true
		row.UpdatedAt = now

		pct, err := progressIn(ctx, tx, sp)
		if err != nil {
			return err
		}
		return tx.SetProgress(ctx, sprintID, pct)
	})
	if err != nil {
		return models.SprintModule{}, err
	}
	m.log.Info("module completed", zap.String("sprint", sprintID), zap.String("module", string(mt)))
	return row, nil
}

// ProgressOf is floor(100 * completed / total) over the sprint's current
// catalog. Completed rows outside the catalog do not count.
func (m *Manager) ProgressOf(ctx context.Context, sprintID string) (int, error) {
	sp, err := m.store.GetSprint(ctx, sprintID)
	if err != nil {
		return 0, err
	}
	return progressIn(ctx, m.store, sp)
}

// ListModules returns the sprint's rows in catalog order.
func (m *Manager) ListModules(ctx context.Context, sprintID string) ([]models.SprintModule, error) {
	sp, err := m.store.GetSprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	rows, err := loadModules(ctx, m.store, sprintID)
	if err != nil {
		return nil, err
	}
	partnership, err := partnershipFor(ctx, m.store, sp)
	if err != nil {
		return nil, err
	}
	entries, err := catalog.For(sp.Tier, partnership)
	if err != nil {
		return nil, err
	}
	order(rows, entries)
	return rows, nil
}

// Module returns a single row.
func (m *Manager) Module(ctx context.Context, sprintID string, mt catalog.ModuleType) (models.SprintModule, error) {
	var row models.SprintModule
	err := m.store.DB().WithContext(ctx).
		Where("sprint_id = ? AND module_type = ?", sprintID, mt).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, fmt.Errorf("%w: %s/%s", ErrModuleNotFound, sprintID, mt)
	}
	return row, err
}

func loadModules(ctx context.Context, st *store.Store, sprintID string) ([]models.SprintModule, error) {
	var rows []models.SprintModule
	if err := st.DB().WithContext(ctx).Where("sprint_id = ?", sprintID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load modules %s: %w", sprintID, err)
	}
	return rows, nil
}

// partnershipFor is true when either the sprint or its intake asks for a
// partnership evaluation.
func partnershipFor(ctx context.Context, st *store.Store, sp models.Sprint) (bool, error) {
	if sp.IsPartnershipEvaluation {
		return true, nil
	}
	in, err := st.GetIntake(ctx, sp.ID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return in.IsPartnershipEvaluation, nil
}

func progressIn(ctx context.Context, st *store.Store, sp models.Sprint) (int, error) {
	partnership, err := partnershipFor(ctx, st, sp)
	if err != nil {
		return 0, err
	}
	entries, err := catalog.For(sp.Tier, partnership)
	if err != nil {
		return 0, err
	}
	rows, err := loadModules(ctx, st, sp.ID)
	if err != nil {
		return 0, err
	}
	return progress(entries, rows), nil
}

func progress(entries []catalog.Entry, rows []models.SprintModule) int {
	if len(entries) == 0 {
		return 0
	}
	in := make(map[catalog.ModuleType]bool, len(entries))
	for _, e := range entries {
		in[e.ModuleType] = true
	}
	done := 0
	for _, r := range rows {
		if r.IsCompleted && in[r.ModuleType] {
			done++
		}
	}
	pct := 100 * done / len(entries)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// order sorts rows by catalog position; rows outside the catalog go last in
// global module order.
func order(rows []models.SprintModule, entries []catalog.Entry) {
	rank := make(map[catalog.ModuleType]int, len(entries))
	for i, e := range entries {
		rank[e.ModuleType] = i
	}
	global := make(map[catalog.ModuleType]int)
	for i, mt := range catalog.All() {
		global[mt] = len(entries) + i
	}
	pos := func(mt catalog.ModuleType) int {
		if r, ok := rank[mt]; ok {
			return r
		}
		if g, ok := global[mt]; ok {
			return g
		}
		return len(entries) + len(global)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return pos(rows[i].ModuleType) < pos(rows[j].ModuleType)
	})
}

func bumpVersion(ctx context.Context, tx *store.Store, sp models.Sprint) error {
	ok, err := tx.BumpModulesVersion(ctx, sp.ID, sp.ModulesVersion)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: sprint %s", ErrConcurrencyConflict, sp.ID)
	}
	return nil
}
