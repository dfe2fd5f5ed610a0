package main

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/report"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// GET /api/sprints/{id}/report.pdf
func (a *api) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sp, err := a.store.GetSprint(ctx, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	mods, err := a.modules.ListModules(ctx, sp.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	// render fully before writing headers so failures still get a JSON error
	var buf bytes.Buffer
	if err := report.Write(&buf, sp, mods); err != nil {
		a.fail(w, r, err)
		return
	}
	name := unsafeFilename.ReplaceAllString(sp.CompanyName, "-")
	if name == "" || name == "-" {
		name = "sprint"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-validation-report.pdf"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GET /api/sprints/{id}/events (WebSocket)
func (a *api) handleEvents(w http.ResponseWriter, r *http.Request) {
	sp, err := a.store.GetSprint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.hub.Stream(w, r, sp.ID, a.log.Named("events"))
}
