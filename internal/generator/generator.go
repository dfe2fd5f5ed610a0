// Package generator produces analysis content for sprint modules from a
// sprint's intake data. Backends are interchangeable behind Generator.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

//go:generate mockgen -source=generator.go -destination=mock_generator_test.go -package=generator

// Generator turns intake data into module content. Structured modules return a
// JSON object; text modules return a JSON string.
type Generator interface {
	Generate(ctx context.Context, mt catalog.ModuleType, intake models.IntakeData) (json.RawMessage, error)
}

// Label names a backend for logs.
func Label(g Generator) string {
	if n, ok := g.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", g)
}

// GenerationError reports a failed or timed-out generator call. The module is
// left as it was, so the call can be retried.
type GenerationError struct {
	Module  catalog.ModuleType
	Timeout bool
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("generate %s: timed out: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("generate %s: %v", e.Module, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrEmptyResponse is returned when a backend answers without content.
var ErrEmptyResponse = errors.New("empty response from model")

// normalize converts raw model output into stored content. JSON modules keep
// the parsed object when it is valid; anything else is stored as a string so
// the UI can still render it.
func normalize(mt catalog.ModuleType, raw string) (json.RawMessage, error) {
	text := stripFences(raw)
	if text == "" || text == "null" {
		return nil, ErrEmptyResponse
	}
	if mt.Format() == catalog.FormatJSON && json.Valid([]byte(text)) {
		return json.RawMessage(text), nil
	}
	b, err := json.Marshal(text)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// stripFences removes a surrounding markdown code fence, which models add
// despite being told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop the language tag line
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
