package main

import (
	"net/http"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/store"
)

type statTotals struct {
	Sprints          int   `json:"sprints"`
	Active           int   `json:"active"`
	Revenue          int64 `json:"revenue"`
	CompletedModules int   `json:"completedModules"`
}

// GET /api/sprints/stats
//
// Counts per tier and status; limited to the caller's sprints when signed in.
func (a *api) handleSprintStats(w http.ResponseWriter, r *http.Request) {
	rows, err := a.store.SprintStats(r.Context(), a.userIDFromRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if rows == nil {
		rows = []store.StatRow{}
	}

	var tot statTotals
	for _, s := range rows {
		tot.Sprints += s.Sprints
		tot.Revenue += s.Revenue
		tot.CompletedModules += s.CompletedModules
		if s.Status == "active" {
			tot.Active += s.Sprints
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": rows, "totals": tot})
}
