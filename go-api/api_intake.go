package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// intakeReq is the intake form; list fields arrive as JSON arrays.
type intakeReq struct {
	BusinessModel           string   `json:"businessModel"`
	ProductType             string   `json:"productType"`
	Stage                   string   `json:"stage"`
	Industry                string   `json:"industry"`
	TargetCustomer          string   `json:"targetCustomer"`
	ProblemStatement        string   `json:"problemStatement"`
	Solution                string   `json:"solution"`
	Competitors             []string `json:"competitors"`
	Assumptions             []string `json:"assumptions"`
	ValidationGoals         []string `json:"validationGoals"`
	IsPartnershipEvaluation bool     `json:"isPartnershipEvaluation"`
	PartnerName             string   `json:"partnerName"`
	PartnershipGoals        string   `json:"partnershipGoals"`
}

func (in intakeReq) toModel() (models.IntakeData, error) {
	if in.IsPartnershipEvaluation && strings.TrimSpace(in.PartnerName) == "" {
		return models.IntakeData{}, invalid("partnerName", "required for a partnership evaluation")
	}
	out := models.IntakeData{
		BusinessModel:           strings.TrimSpace(in.BusinessModel),
		ProductType:             strings.TrimSpace(in.ProductType),
		Stage:                   strings.TrimSpace(in.Stage),
		Industry:                strings.TrimSpace(in.Industry),
		TargetCustomer:          strings.TrimSpace(in.TargetCustomer),
		ProblemStatement:        strings.TrimSpace(in.ProblemStatement),
		Solution:                strings.TrimSpace(in.Solution),
		IsPartnershipEvaluation: in.IsPartnershipEvaluation,
	}
	if in.IsPartnershipEvaluation {
		out.PartnerName = strings.TrimSpace(in.PartnerName)
		out.PartnershipGoals = strings.TrimSpace(in.PartnershipGoals)
	}
	var err error
	if out.Competitors, err = jsonList(in.Competitors); err != nil {
		return out, err
	}
	if out.Assumptions, err = jsonList(in.Assumptions); err != nil {
		return out, err
	}
	if out.ValidationGoals, err = jsonList(in.ValidationGoals); err != nil {
		return out, err
	}
	return out, nil
}

// jsonList drops blank entries and always stores an array, never null.
func jsonList(items []string) (datatypes.JSON, error) {
	clean := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			clean = append(clean, s)
		}
	}
	b, err := json.Marshal(clean)
	return datatypes.JSON(b), err
}

// GET /api/sprints/{id}/intake
func (a *api) handleGetIntake(w http.ResponseWriter, r *http.Request) {
	in, err := a.store.GetIntake(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// POST /api/sprints/{id}/intake
//
// Saves the intake and, for a paid sprint, refreshes the module set (the
// partnership flag may have changed) and starts background generation of the
// auto-generate modules. It does not wait for generation.
func (a *api) handleSubmitIntake(w http.ResponseWriter, r *http.Request) {
	var req intakeReq
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	data, err := req.toModel()
	if err != nil {
		a.fail(w, r, err)
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	saved, created, err := a.store.UpsertIntake(ctx, id, data)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sp, err := a.store.GetSprint(ctx, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	dispatched := []string{}
	if sp.Status == models.StatusActive {
		mods, err := a.modules.RegenerateModules(ctx, id)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if sp, err = a.store.GetSprint(ctx, id); err == nil {
			a.publishRegenerated(id, sp.Progress)
		}
		dispatched = a.dispatchIntake(id, saved, mods)
	}

	a.log.Info("intake saved",
		zap.String("sprint", id),
		zap.Bool("created", created),
		zap.Strings("dispatched", dispatched))

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"intake": saved, "generating": dispatched})
}

// dispatchIntake starts background generation of the auto-generate modules
// that have a row and no analysis yet. It returns the dispatched types.
func (a *api) dispatchIntake(sprintID string, intake models.IntakeData, mods []models.SprintModule) []string {
	rows := make(map[catalog.ModuleType]models.SprintModule, len(mods))
	for _, m := range mods {
		rows[m.ModuleType] = m
	}
	var pending []catalog.ModuleType
	names := []string{}
	for _, mt := range a.autoGenerate {
		m, ok := rows[mt]
		if !ok || m.IsCompleted || m.IsLocked {
			continue
		}
		pending = append(pending, mt)
		names = append(names, string(mt))
	}
	a.dispatcher.Dispatch(sprintID, intake, pending)
	return names
}
