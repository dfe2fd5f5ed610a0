package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/events"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/generator"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/lifecycle"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// moduleView is a module row plus the catalog facts the UI renders with.
type moduleView struct {
	ID          string                `json:"id"`
	ModuleType  catalog.ModuleType    `json:"moduleType"`
	Title       string                `json:"title"`
	Group       string                `json:"group,omitempty"`
	State       lifecycle.ModuleState `json:"state"`
	IsLocked    bool                  `json:"isLocked"`
	IsCompleted bool                  `json:"isCompleted"`
	AIAnalysis  json.RawMessage       `json:"aiAnalysis"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

func toModuleView(m models.SprintModule) moduleView {
	v := moduleView{
		ID:          m.ID,
		ModuleType:  m.ModuleType,
		Title:       m.ModuleType.Title(),
		Group:       m.ModuleType.Group(),
		State:       lifecycle.State(m),
		IsLocked:    m.IsLocked,
		IsCompleted: m.IsCompleted,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.HasAnalysis() {
		v.AIAnalysis = json.RawMessage(m.AIAnalysis)
	}
	return v
}

func toModuleViews(rows []models.SprintModule) []moduleView {
	out := make([]moduleView, 0, len(rows))
	for _, m := range rows {
		out = append(out, toModuleView(m))
	}
	return out
}

func sprintUpdated(sp models.Sprint) events.Event {
	p := sp.Progress
	return events.Event{Type: events.SprintUpdated, SprintID: sp.ID, Progress: &p, At: time.Now().UTC()}
}

// writeRegenerated publishes the new module set and responds with it and the
// refreshed sprint.
func (a *api) writeRegenerated(w http.ResponseWriter, r *http.Request, sprintID string, mods []models.SprintModule) {
	sp, err := a.store.GetSprint(r.Context(), sprintID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.publishRegenerated(sprintID, sp.Progress)
	writeJSON(w, http.StatusOK, map[string]any{
		"sprint":   sp,
		"modules":  toModuleViews(mods),
		"progress": sp.Progress,
	})
}

// GET /api/sprints/{id}/modules
func (a *api) handleListModules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	mods, err := a.modules.ListModules(ctx, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	progress, err := a.modules.ProgressOf(ctx, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": toModuleViews(mods), "progress": progress})
}

// POST /api/sprints/{id}/regenerate-modules
func (a *api) handleRegenerateModules(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mods, err := a.modules.RegenerateModules(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeRegenerated(w, r, id, mods)
}

// POST /api/sprints/{id}/modules/{type}/generate
//
// Runs the generator synchronously. On failure the module is left as it was
// and the call can simply be repeated.
func (a *api) handleGenerateModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	mt, err := catalog.ParseModuleType(chi.URLParam(r, "type"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if _, err := a.store.GetSprint(ctx, id); err != nil {
		a.fail(w, r, err)
		return
	}
	row, err := a.modules.Module(ctx, id, mt)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if row.IsLocked && !row.IsCompleted {
		a.fail(w, r, lifecycle.ErrModuleLocked)
		return
	}
	intake, err := a.store.GetIntake(ctx, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	content, err := a.runner.Run(ctx, mt, intake)
	if err != nil {
		a.publishFailed(id, mt, err)
		a.fail(w, r, err)
		return
	}
	row, err = a.modules.CompleteModule(ctx, id, mt, content)
	if err != nil {
		a.publishFailed(id, mt, err)
		a.fail(w, r, err)
		return
	}
	progress, err := a.modules.ProgressOf(ctx, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.hub.Publish(events.Event{Type: events.ModuleCompleted, SprintID: id, Module: mt, Progress: &progress, At: time.Now().UTC()})
	a.log.Info("module generated", zap.String("sprint", id), zap.String("module", string(mt)), zap.Int("progress", progress))
	writeJSON(w, http.StatusOK, map[string]any{"module": toModuleView(row), "progress": progress})
}

func (a *api) publishFailed(sprintID string, mt catalog.ModuleType, err error) {
	msg := err.Error()
	var gerr *generator.GenerationError
	if !errors.As(err, &gerr) {
		_, msg = statusFor(err)
	}
	a.hub.Publish(events.Event{Type: events.ModuleFailed, SprintID: sprintID, Module: mt, Error: msg, At: time.Now().UTC()})
}
