package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// DefaultTimeout bounds one generator call.
const DefaultTimeout = 90 * time.Second

// Runner wraps a Generator with a per-call deadline and error classification.
type Runner struct {
	gen     Generator
	timeout time.Duration
	log     *zap.Logger
}

func NewRunner(gen Generator, timeout time.Duration, log *zap.Logger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{gen: gen, timeout: timeout, log: log}
}

// Run generates content for one module. Every failure, including a missed
// deadline or unusable output, is returned as *GenerationError.
func (r *Runner) Run(ctx context.Context, mt catalog.ModuleType, intake models.IntakeData) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	out, err := r.gen.Generate(ctx, mt, intake)
	if err == nil && !models.UsableAnalysis(out) {
		err = fmt.Errorf("backend returned invalid content")
	}
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		r.log.Warn("generation failed",
			zap.String("module", string(mt)),
			zap.Bool("timeout", timeout),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &GenerationError{Module: mt, Timeout: timeout, Err: err}
	}
	r.log.Debug("generation done", zap.String("module", string(mt)), zap.Duration("elapsed", time.Since(start)))
	return out, nil
}
