package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/store"
)

func setupManager(t *testing.T, ctx context.Context) (*Manager, *store.Store) {
	t.Helper()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "lifecycle.db"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx, db))
	t.Cleanup(func() { _ = store.Close(db) })
	st := store.New(db)
	return New(st, nil), st
}

func newSprint(t *testing.T, ctx context.Context, st *store.Store, tier catalog.Tier, partnership bool) models.Sprint {
	t.Helper()
	sp, err := st.CreateSprint(ctx, store.NewSprint{
		CompanyName:             "Acme Robotics",
		Tier:                    tier,
		IsPartnershipEvaluation: partnership,
	})
	require.NoError(t, err)
	return sp
}

// snapshot is the comparable part of a module row.
type snapshot struct {
	ID        string
	Type      catalog.ModuleType
	Locked    bool
	Completed bool
	Analysis  string
}

func snap(rows []models.SprintModule) []snapshot {
	out := make([]snapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, snapshot{
			ID:        r.ID,
			Type:      r.ModuleType,
			Locked:    r.IsLocked,
			Completed: r.IsCompleted,
			Analysis:  string(r.AIAnalysis),
		})
	}
	return out
}

func byType(rows []models.SprintModule) map[catalog.ModuleType]models.SprintModule {
	out := make(map[catalog.ModuleType]models.SprintModule, len(rows))
	for _, r := range rows {
		out[r.ModuleType] = r
	}
	return out
}

func countModules(t *testing.T, st *store.Store, sprintID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, st.DB().Model(&models.SprintModule{}).Where("sprint_id = ?", sprintID).Count(&n).Error)
	return n
}

func TestInitializeDiscovery(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)

	rows, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	for _, r := range rows {
		assert.False(t, r.IsLocked, r.ModuleType)
		assert.False(t, r.IsCompleted, r.ModuleType)
		assert.False(t, r.HasAnalysis(), r.ModuleType)
		assert.Equal(t, StateAvailable, State(r))
	}
	assert.Equal(t, int64(6), countModules(t, st, sp.ID))
}

func TestInitializePartnership(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)

	t.Run("sprint flag", func(t *testing.T) {
		sp := newSprint(t, ctx, st, catalog.TierDiscovery, true)
		rows, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
		require.NoError(t, err)
		require.Len(t, rows, 7)
		assert.Equal(t, catalog.PartnershipViability, rows[6].ModuleType)
		assert.False(t, rows[6].IsLocked)
	})

	t.Run("intake flag", func(t *testing.T) {
		sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)
		_, _, err := st.UpsertIntake(ctx, sp.ID, models.IntakeData{IsPartnershipEvaluation: true, PartnerName: "Globex"})
		require.NoError(t, err)
		rows, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
		require.NoError(t, err)
		assert.Len(t, rows, 7)
	})
}

func TestInitializeTwiceFails(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)

	_, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)

	_, err = m.InitializeModules(ctx, sp.ID, catalog.TierFeasibility)
	assert.ErrorIs(t, err, ErrModulesExist)
	assert.Equal(t, int64(6), countModules(t, st, sp.ID), "failed initialize must insert nothing")
}

func TestInitializeErrors(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)

	_, err := m.InitializeModules(ctx, sp.ID, catalog.Tier("platinum"))
	assert.ErrorIs(t, err, catalog.ErrInvalidTier)

	_, err = m.InitializeModules(ctx, "no-such-sprint", catalog.TierDiscovery)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompleteModuleScenario(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)
	_, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)

	row, err := m.CompleteModule(ctx, sp.ID, catalog.RiskAssessment, json.RawMessage(`{"overallRisk":"Medium"}`))
	require.NoError(t, err)
	assert.True(t, row.IsCompleted)
	assert.Equal(t, StateCompleted, State(row))

	rows, err := m.ListModules(ctx, sp.ID)
	require.NoError(t, err)
	got := byType(rows)[catalog.RiskAssessment]
	assert.True(t, got.IsCompleted)
	assert.JSONEq(t, `{"overallRisk":"Medium"}`, string(got.AIAnalysis))

	pct, err := m.ProgressOf(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, pct)

	stored, err := st.GetSprint(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, stored.Progress)
}

func TestCompleteModuleOverwrites(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)
	_, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)

	first, err := m.CompleteModule(ctx, sp.ID, catalog.SWOTAnalysis, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrModuleNotFound, "swot is not part of a discovery sprint")
	assert.Empty(t, first.ID)

	a, err := m.CompleteModule(ctx, sp.ID, catalog.AssumptionTracker, json.RawMessage(`{"v":1}`))
	require.NoError(t, err)
	b, err := m.CompleteModule(ctx, sp.ID, catalog.AssumptionTracker, json.RawMessage(`{"v":2}`))
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	got, err := m.Module(ctx, sp.ID, catalog.AssumptionTracker)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got.AIAnalysis))
	assert.Equal(t, int64(6), countModules(t, st, sp.ID))
}

func TestCompleteModuleMissingDoesNotInsert(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)

	_, err := m.CompleteModule(ctx, sp.ID, catalog.RiskAssessment, json.RawMessage(`{"overallRisk":"Low"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModuleNotFound))
	assert.Equal(t, int64(0), countModules(t, st, sp.ID))
}

func TestCompleteModuleRejectsInvalidContent(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)
	_, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)

	_, err = m.CompleteModule(ctx, sp.ID, catalog.RiskAssessment, json.RawMessage(`{oops`))
	assert.ErrorIs(t, err, ErrInvalidContent)
	_, err = m.CompleteModule(ctx, sp.ID, catalog.RiskAssessment, nil)
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestCompleteModuleRejectsNull(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)
	_, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)

	for _, raw := range []string{`null`, ` null `} {
		_, err = m.CompleteModule(ctx, sp.ID, catalog.RiskAssessment, json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrInvalidContent, raw)
	}

	row, err := m.Module(ctx, sp.ID, catalog.RiskAssessment)
	require.NoError(t, err)
	assert.False(t, row.IsCompleted)
	pct, err := m.ProgressOf(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pct)

	_, err = m.CompleteModule(ctx, sp.ID, catalog.RiskAssessment, json.RawMessage(`{"overallRisk":"Medium"}`))
	require.NoError(t, err)
	_, err = m.RegenerateModules(ctx, sp.ID)
	require.NoError(t, err)
	row, err = m.Module(ctx, sp.ID, catalog.RiskAssessment)
	require.NoError(t, err)
	assert.True(t, row.IsCompleted, "completed stays completed across regenerate")
}

func TestCompleteLockedModule(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)
	_, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)
	require.NoError(t, st.DB().Model(&models.SprintModule{}).
		Where("sprint_id = ? AND module_type = ?", sp.ID, catalog.RiskAssessment).
		Update("is_locked", true).Error)

	_, err = m.CompleteModule(ctx, sp.ID, catalog.RiskAssessment, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrModuleLocked)
}

func TestRegenerateIdempotent(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierFeasibility, true)
	_, err := m.InitializeModules(ctx, sp.ID, catalog.TierFeasibility)
	require.NoError(t, err)
	_, err = m.CompleteModule(ctx, sp.ID, catalog.InitialIntake, json.RawMessage(`{"summary":"ok"}`))
	require.NoError(t, err)

	first, err := m.RegenerateModules(ctx, sp.ID)
	require.NoError(t, err)
	second, err := m.RegenerateModules(ctx, sp.ID)
	require.NoError(t, err)

	if d := cmp.Diff(snap(first), snap(second)); d != "" {
		t.Fatalf("regenerate not idempotent (-first +second):\n%s", d)
	}
	listed, err := m.ListModules(ctx, sp.ID)
	require.NoError(t, err)
	if d := cmp.Diff(snap(second), snap(listed)); d != "" {
		t.Fatalf("returned list differs from stored rows (-returned +stored):\n%s", d)
	}
	assert.Len(t, first, 11)
}

func TestRegenerateUpgradeToValidation(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)
	initial, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)
	_, err = m.CompleteModule(ctx, sp.ID, catalog.RiskAssessment, json.RawMessage(`{"overallRisk":"Medium"}`))
	require.NoError(t, err)

	before, err := m.ListModules(ctx, sp.ID)
	require.NoError(t, err)

	_, err = st.SetTier(ctx, sp.ID, catalog.TierValidation)
	require.NoError(t, err)
	rows, err := m.RegenerateModules(ctx, sp.ID)
	require.NoError(t, err)
	require.Len(t, rows, 15)

	got := byType(rows)
	for _, mt := range []catalog.ModuleType{
		catalog.FullInterviewSuite, catalog.MultiChannelTesting, catalog.EnhancedMarketIntelligence,
		catalog.MarketDeepDive, catalog.StrategicRoadmap,
	} {
		r, ok := got[mt]
		require.True(t, ok, mt)
		assert.False(t, r.IsLocked, mt)
		assert.False(t, r.IsCompleted, mt)
	}

	// discovery rows are untouched, ids and timestamps included
	prev := byType(before)
	for _, r := range initial {
		now := got[r.ModuleType]
		assert.Equal(t, r.ID, now.ID, r.ModuleType)
		assert.True(t, prev[r.ModuleType].UpdatedAt.Equal(now.UpdatedAt), r.ModuleType)
	}
	assert.JSONEq(t, `{"overallRisk":"Medium"}`, string(got[catalog.RiskAssessment].AIAnalysis))

	pct, err := m.ProgressOf(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, pct)
}

func TestUpgradeNeverRelocks(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)
	before, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)

	_, err = st.SetTier(ctx, sp.ID, catalog.TierFeasibility)
	require.NoError(t, err)
	after, err := m.RegenerateModules(ctx, sp.ID)
	require.NoError(t, err)
	require.Len(t, after, 10)

	now := byType(after)
	for _, r := range before {
		require.False(t, r.IsLocked)
		assert.False(t, now[r.ModuleType].IsLocked, "%s re-locked on upgrade", r.ModuleType)
	}
}

func TestRegeneratePreservesCompletedAcrossDowngrade(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierValidation, false)
	_, err := m.InitializeModules(ctx, sp.ID, catalog.TierValidation)
	require.NoError(t, err)
	done, err := m.CompleteModule(ctx, sp.ID, catalog.StrategicRoadmap, json.RawMessage(`{"phases":["build"]}`))
	require.NoError(t, err)

	_, err = st.SetTier(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)
	rows, err := m.RegenerateModules(ctx, sp.ID)
	require.NoError(t, err)

	// six discovery rows plus the preserved roadmap, which sorts last
	require.Len(t, rows, 7)
	last := rows[len(rows)-1]
	assert.Equal(t, catalog.StrategicRoadmap, last.ModuleType)
	assert.Equal(t, done.ID, last.ID)
	assert.True(t, last.IsCompleted)
	assert.JSONEq(t, `{"phases":["build"]}`, string(last.AIAnalysis))
	assert.Equal(t, int64(7), countModules(t, st, sp.ID))

	pct, err := m.ProgressOf(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pct, "completed rows outside the catalog do not count")
}

func TestRegenerateResetsCompletedWithoutAnalysis(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, false)
	_, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)
	require.NoError(t, st.DB().Model(&models.SprintModule{}).
		Where("sprint_id = ? AND module_type = ?", sp.ID, catalog.MarketSizingAnalysis).
		Update("is_completed", true).Error)

	rows, err := m.RegenerateModules(ctx, sp.ID)
	require.NoError(t, err)
	assert.False(t, byType(rows)[catalog.MarketSizingAnalysis].IsCompleted)
}

func TestRegenerateWithoutModulesInserts(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierFeasibility, false)

	rows, err := m.RegenerateModules(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.Types(mustCatalog(t, catalog.TierFeasibility, false)), typesOf(rows))
}

func TestProgressBounds(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierDiscovery, true)
	rows, err := m.InitializeModules(ctx, sp.ID, catalog.TierDiscovery)
	require.NoError(t, err)

	pct, err := m.ProgressOf(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pct)

	for _, r := range rows {
		_, err := m.CompleteModule(ctx, sp.ID, r.ModuleType, json.RawMessage(`{"ok":true}`))
		require.NoError(t, err)
	}
	pct, err = m.ProgressOf(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, pct)
}

func TestConcurrentRegenerate(t *testing.T) {
	ctx := context.Background()
	m, st := setupManager(t, ctx)
	sp := newSprint(t, ctx, st, catalog.TierFeasibility, false)
	_, err := m.InitializeModules(ctx, sp.ID, catalog.TierFeasibility)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers+1)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.RegenerateModules(ctx, sp.ID); err != nil && !errors.Is(err, ErrConcurrencyConflict) {
				errs <- err
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := m.CompleteModule(ctx, sp.ID, catalog.SWOTAnalysis, json.RawMessage(`{"strengths":[]}`)); err != nil {
			errs <- err
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}

	rows, err := m.ListModules(ctx, sp.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 10)
	assert.True(t, byType(rows)[catalog.SWOTAnalysis].IsCompleted, "completion must survive concurrent regenerates")
}

func TestDiff(t *testing.T) {
	entries := mustCatalog(t, catalog.TierDiscovery, false)
	rows := []models.SprintModule{
		{ID: "a", ModuleType: catalog.InitialIntake},
		{ID: "b", ModuleType: catalog.RiskAssessment, IsCompleted: true, AIAnalysis: []byte(`{"x":1}`)},
		{ID: "c", ModuleType: catalog.SWOTAnalysis},
		{ID: "d", ModuleType: catalog.MarketDeepDive, IsCompleted: true, AIAnalysis: []byte(`"report"`)},
		{ID: "e", ModuleType: catalog.AssumptionTracker, IsLocked: true},
	}
	p := diff(entries, rows, "s1")

	ids := func(rs []models.SprintModule) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "d"}, ids(p.keep))
	assert.Equal(t, []string{"e"}, ids(p.update))
	assert.False(t, p.update[0].IsLocked)
	assert.Equal(t, []string{"c"}, p.delete)
	assert.Equal(t, []catalog.ModuleType{
		catalog.MarketSizingAnalysis, catalog.CompetitiveIntelligence, catalog.CustomerVoiceSimulation,
	}, typesOf(p.insert))
}

func TestState(t *testing.T) {
	assert.Equal(t, StateLocked, State(models.SprintModule{IsLocked: true}))
	assert.Equal(t, StateAvailable, State(models.SprintModule{}))
	assert.Equal(t, StateCompleted, State(models.SprintModule{IsLocked: true, IsCompleted: true}))
}

func mustCatalog(t *testing.T, tier catalog.Tier, partnership bool) []catalog.Entry {
	t.Helper()
	entries, err := catalog.For(tier, partnership)
	require.NoError(t, err)
	return entries
}

func typesOf(rows []models.SprintModule) []catalog.ModuleType {
	out := make([]catalog.ModuleType, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ModuleType)
	}
	return out
}
