package main

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/lifecycle"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/store"
)

type createSprintReq struct {
	ClientName              string `json:"clientName"`
	ClientEmail             string `json:"clientEmail"`
	CompanyName             string `json:"companyName"`
	Tier                    string `json:"tier"`
	IsPartnershipEvaluation bool   `json:"isPartnershipEvaluation"`
}

func (in createSprintReq) validate() (catalog.Tier, error) {
	if strings.TrimSpace(in.CompanyName) == "" {
		return "", invalid("companyName", "required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.ClientEmail)); err != nil {
		return "", invalid("clientEmail", "must be a valid email address")
	}
	return catalog.ParseTier(in.Tier)
}

// POST /api/sprints
func (a *api) handleCreateSprint(w http.ResponseWriter, r *http.Request) {
	var in createSprintReq
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	tier, err := in.validate()
	if err != nil {
		a.fail(w, r, err)
		return
	}

	ctx := r.Context()
	client, err := a.store.FindOrCreateClient(ctx, in.ClientName, in.ClientEmail)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sp, err := a.store.CreateSprint(ctx, store.NewSprint{
		ClientID:                client.ID,
		ConsultantID:            a.userIDFromRequest(r),
		CompanyName:             strings.TrimSpace(in.CompanyName),
		Tier:                    tier,
		IsPartnershipEvaluation: in.IsPartnershipEvaluation,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("sprint created", zap.String("sprint", sp.ID), zap.String("tier", string(sp.Tier)))
	writeJSON(w, http.StatusCreated, sp)
}

// GET /api/sprints
func (a *api) handleListSprints(w http.ResponseWriter, r *http.Request) {
	list, err := a.store.ListSprints(r.Context(), a.userIDFromRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []models.Sprint{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/sprints/{id}
func (a *api) handleGetSprint(w http.ResponseWriter, r *http.Request) {
	sp, err := a.store.GetSprint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

// POST /api/sprints/{id}/payment-link
func (a *api) handlePaymentLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sp, err := a.store.GetSprint(ctx, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	link, err := a.payments.PaymentLink(ctx, sp)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sp, err = a.store.AdvanceStatus(ctx, sp.ID, models.StatusPaymentPending, map[string]any{"stripe_payment_url": link})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sprint": sp, "paymentUrl": link})
}

// POST /api/sprints/{id}/mark-paid
//
// Activates the sprint and builds its module set. A sprint that already has
// modules (paid twice, or re-activated after a tier change) is regenerated.
func (a *api) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	cur, err := a.store.GetSprint(ctx, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	extra := map[string]any{}
	if cur.PaidAt == nil {
		extra["paid_at"] = time.Now().UTC()
	}
	sp, err := a.store.AdvanceStatus(ctx, id, models.StatusActive, extra)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	mods, err := a.modules.InitializeModules(ctx, id, sp.Tier)
	if errors.Is(err, lifecycle.ErrModulesExist) {
		mods, err = a.modules.RegenerateModules(ctx, id)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}

	// intake submitted before payment: start the analyses it would have started
	intake, err := a.store.GetIntake(ctx, id)
	switch {
	case err == nil:
		if started := a.dispatchIntake(id, intake, mods); len(started) > 0 {
			a.log.Info("generation started on payment", zap.String("sprint", id), zap.Strings("modules", started))
		}
	case !errors.Is(err, store.ErrNotFound):
		a.fail(w, r, err)
		return
	}
	a.writeRegenerated(w, r, id, mods)
}

type tierReq struct {
	Tier string `json:"tier"`
}

// POST /api/sprints/{id}/tier
func (a *api) handleChangeTier(w http.ResponseWriter, r *http.Request) {
	var in tierReq
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	tier, err := catalog.ParseTier(in.Tier)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	sp, err := a.store.SetTier(ctx, id, tier)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	// modules only exist once the sprint has been paid for
	if sp.Status.Rank() < models.StatusActive.Rank() {
		writeJSON(w, http.StatusOK, map[string]any{"sprint": sp, "modules": []moduleView{}, "progress": sp.Progress})
		return
	}
	mods, err := a.modules.RegenerateModules(ctx, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("tier changed", zap.String("sprint", id), zap.String("tier", string(tier)))
	a.writeRegenerated(w, r, id, mods)
}

// POST /api/sprints/{id}/complete
func (a *api) handleCompleteSprint(w http.ResponseWriter, r *http.Request) {
	sp, err := a.store.AdvanceStatus(r.Context(), chi.URLParam(r, "id"), models.StatusCompleted, nil)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.hub.Publish(sprintUpdated(sp))
	writeJSON(w, http.StatusOK, sp)
}

// POST /api/sprints/{id}/save
func (a *api) handleSaveSprint(w http.ResponseWriter, r *http.Request) {
	sp, err := a.store.Touch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}
