package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

type commentReq struct {
	Content    string `json:"content"`
	ModuleType string `json:"moduleType"` // optional
}

// GET /api/sprints/{id}/comments
func (a *api) handleListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := a.store.GetSprint(ctx, id); err != nil {
		a.fail(w, r, err)
		return
	}
	list, err := a.store.ListComments(ctx, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if list == nil {
		list = []models.Comment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /api/sprints/{id}/comments
func (a *api) handleAddComment(w http.ResponseWriter, r *http.Request) {
	author := a.userIDFromRequest(r)
	if author == "" {
		errorJSON(w, http.StatusUnauthorized, "sign in to comment")
		return
	}
	var in commentReq
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		a.fail(w, r, invalid("content", "required"))
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := a.store.GetSprint(ctx, id); err != nil {
		a.fail(w, r, err)
		return
	}
	c := models.Comment{SprintID: id, AuthorID: author, Content: content}
	if strings.TrimSpace(in.ModuleType) != "" {
		mt, err := catalog.ParseModuleType(in.ModuleType)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		c.ModuleType = &mt
	}
	if err := a.store.AddComment(ctx, &c); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
