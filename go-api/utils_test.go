package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/generator"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/lifecycle"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/store"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", invalid("tier", "required"), http.StatusBadRequest, "tier: required"},
		{"tier", &catalog.InvalidTierError{Tier: "gold"}, http.StatusBadRequest, ""},
		{"content", fmt.Errorf("save: %w", lifecycle.ErrInvalidContent), http.StatusBadRequest, ""},
		{"sprint missing", &store.OpError{Op: "get", Resource: "sprint", ID: "x", Err: store.ErrNotFound}, http.StatusNotFound, "sprint not found"},
		{"module missing", fmt.Errorf("%w: s/swot_analysis", lifecycle.ErrModuleNotFound), http.StatusNotFound, ""},
		{"locked", lifecycle.ErrModuleLocked, http.StatusConflict, "module locked for this tier"},
		{"exists", lifecycle.ErrModulesExist, http.StatusConflict, ""},
		{"race", lifecycle.ErrConcurrencyConflict, http.StatusConflict, ""},
		{"transition", &store.OpError{Op: "advance", Resource: "sprint", Err: fmt.Errorf("%w: active -> draft", store.ErrInvalidTransition)}, http.StatusConflict, "invalid status transition: active -> draft"},
		{"generation", &generator.GenerationError{Module: catalog.RiskAssessment, Err: errors.New("status 500")}, http.StatusBadGateway, "generate risk_assessment: status 500"},
		{"generation timeout", &generator.GenerationError{Module: catalog.RiskAssessment, Timeout: true, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, ""},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := statusFor(tc.err)
			assert.Equal(t, tc.status, status)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, msg)
			}
		})
	}
}

func TestJWTRoundTrip(t *testing.T) {
	secret := []byte("k")
	tok, err := signToken(secret, "user-1", sessionTTL)
	assert.NoError(t, err)

	c, err := parseToken(secret, tok)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID)

	_, err = parseToken([]byte("other"), tok)
	assert.Error(t, err)

	expired, err := signToken(secret, "user-1", -time.Hour)
	assert.NoError(t, err)
	_, err = parseToken(secret, expired)
	assert.Error(t, err)
}

func TestStaticLinker(t *testing.T) {
	l := staticLinker{base: "https://pay.example/b/abc?prefilled_email=x"}
	got, err := l.PaymentLink(context.Background(), sprintWithID("sp-1"))
	assert.NoError(t, err)
	assert.Contains(t, got, "client_reference_id=sp-1")
	assert.Contains(t, got, "prefilled_email=x")

	_, err = staticLinker{base: "not a url"}.PaymentLink(context.Background(), sprintWithID("sp-1"))
	assert.Error(t, err)
}

func sprintWithID(id string) models.Sprint {
	return models.Sprint{ID: id, Tier: catalog.TierDiscovery}
}
