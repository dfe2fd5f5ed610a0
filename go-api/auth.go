package main

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/store"
)

// --------- DTOs ---------

type registerReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"` // consultant (default) | client
}

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userDTO struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	IsClient     bool   `json:"isClient"`
	IsConsultant bool   `json:"isConsultant"`
}

func toDTO(u models.User) userDTO {
	return userDTO{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		Name:         u.Name,
		IsClient:     u.IsClient,
		IsConsultant: u.IsConsultant,
	}
}

// --------- Handlers ---------

func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerReq
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		errorJSON(w, http.StatusBadRequest, "email and password required")
		return
	}
	if len(in.Password) < 8 {
		a.fail(w, r, invalid("password", "must be at least 8 characters"))
		return
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username, _, _ = strings.Cut(in.Email, "@")
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role != "" && role != "consultant" && role != "client" {
		a.fail(w, r, invalid("role", "use consultant or client"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	u := models.User{
		Email:        in.Email,
		Username:     username,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		IsClient:     role == "client",
		IsConsultant: role != "client",
	}
	if err := a.store.CreateUser(r.Context(), &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			errorJSON(w, http.StatusConflict, "email or username already in use")
			return
		}
		a.fail(w, r, err)
		return
	}

	if !a.startSession(w, r, u) {
		return
	}
	a.log.Info("user registered", zap.String("user", u.ID), zap.Bool("consultant", u.IsConsultant))
	writeJSON(w, http.StatusCreated, toDTO(u))
}

func (a *api) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var in signInReq
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	u, err := a.store.UserByEmail(r.Context(), in.Email)
	if errors.Is(err, store.ErrNotFound) {
		errorJSON(w, http.StatusUnauthorized, "invalid email or password")
		return
	} else if err != nil {
		a.fail(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		errorJSON(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if !a.startSession(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, toDTO(u))
}

func (a *api) handleSignOut(w http.ResponseWriter, r *http.Request) {
	a.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (a *api) handleMe(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(a.cfg.CookieName)
	if err != nil || c.Value == "" {
		errorJSON(w, http.StatusUnauthorized, "no session")
		return
	}
	claims, err := parseToken([]byte(a.cfg.JWTSecret), c.Value)
	if err != nil {
		errorJSON(w, http.StatusUnauthorized, "invalid session")
		return
	}
	u, err := a.store.UserByID(r.Context(), claims.UserID)
	if err != nil {
		errorJSON(w, http.StatusUnauthorized, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, toDTO(u))
}

func (a *api) startSession(w http.ResponseWriter, r *http.Request, u models.User) bool {
	tok, err := signToken([]byte(a.cfg.JWTSecret), u.ID, sessionTTL)
	if err != nil {
		a.fail(w, r, err)
		return false
	}
	a.setAuthCookie(w, tok)
	return true
}
