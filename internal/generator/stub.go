package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// Stub returns canned content without calling a model. Used for demos, seed
// data and when no LLM provider is configured.
type Stub struct{}

func (Stub) Name() string { return "stub" }

func (Stub) Generate(ctx context.Context, mt catalog.ModuleType, in models.IntakeData) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := Prompt(mt, in); err != nil {
		return nil, err
	}
	industry := in.Industry
	if industry == "" {
		industry = "the target market"
	}
	if mt.Format() == catalog.FormatText {
		return json.Marshal(fmt.Sprintf("%s\n\nSummary: placeholder analysis for a venture in %s.", mt.Title(), industry))
	}
	return json.Marshal(map[string]any{
		"module":  mt,
		"title":   mt.Title(),
		"summary": fmt.Sprintf("Placeholder %s for a venture in %s.", mt.Title(), industry),
	})
}
