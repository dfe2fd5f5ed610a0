package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/generator"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/lifecycle"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads at most 1 MiB and rejects trailing garbage.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return &validationError{Msg: "invalid json"}
	}
	if dec.More() {
		return &validationError{Msg: "invalid json: trailing data"}
	}
	return nil
}

// validationError is a malformed or incomplete request body.
type validationError struct {
	Field string
	Msg   string
}

func (e *validationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func invalid(field, msg string) error { return &validationError{Field: field, Msg: msg} }

// statusFor maps domain errors to a status and the message shown to clients.
func statusFor(err error) (int, string) {
	var (
		verr *validationError
		gerr *generator.GenerationError
		oerr *store.OpError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, catalog.ErrInvalidTier), errors.Is(err, catalog.ErrInvalidModuleType):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, lifecycle.ErrInvalidContent):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &gerr):
		if gerr.Timeout {
			return http.StatusGatewayTimeout, gerr.Error()
		}
		return http.StatusBadGateway, gerr.Error()
	case errors.Is(err, lifecycle.ErrModuleNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, store.ErrNotFound):
		if errors.As(err, &oerr) && oerr.Resource != "" {
			return http.StatusNotFound, oerr.Resource + " not found"
		}
		return http.StatusNotFound, "not found"
	case errors.Is(err, lifecycle.ErrModuleLocked),
		errors.Is(err, lifecycle.ErrModulesExist),
		errors.Is(err, lifecycle.ErrConcurrencyConflict),
		errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, conflictMessage(err)
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// conflictMessage drops the store's op/resource prefix.
func conflictMessage(err error) string {
	var oerr *store.OpError
	if errors.As(err, &oerr) && oerr.Err != nil {
		return oerr.Err.Error()
	}
	return err.Error()
}

// fail writes err as a JSON error; 5xx are logged.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	errorJSON(w, status, msg)
}
