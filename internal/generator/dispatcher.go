package generator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// Completer records generated content; the lifecycle manager implements it.
type Completer interface {
	Module(ctx context.Context, sprintID string, mt catalog.ModuleType) (models.SprintModule, error)
	CompleteModule(ctx context.Context, sprintID string, mt catalog.ModuleType, content json.RawMessage) (models.SprintModule, error)
}

// Result is reported once per dispatched module.
type Result struct {
	SprintID string
	Module   catalog.ModuleType
	Row      models.SprintModule
	Err      error
}

// Dispatcher runs background generation for freshly submitted intake with a
// bounded number of concurrent model calls.
type Dispatcher struct {
	runner *Runner
	sink   Completer
	notify func(Result)
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	wg     sync.WaitGroup
}

// NewDispatcher allows at most limit generator calls at once. notify may be nil.
func NewDispatcher(runner *Runner, sink Completer, limit int, notify func(Result), log *zap.Logger) *Dispatcher {
	if limit <= 0 {
		limit = 2
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{runner: runner, sink: sink, notify: notify, log: log, ctx: ctx, cancel: cancel}
	d.group.SetLimit(limit)
	return d
}

// Dispatch queues generation of modules for the sprint and returns at once.
// Modules without a row, locked modules and completed modules are skipped.
func (d *Dispatcher) Dispatch(sprintID string, intake models.IntakeData, modules []catalog.ModuleType) {
	if len(modules) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, mt := range modules {
			if d.ctx.Err() != nil {
				return
			}
			d.group.Go(func() error {
				d.run(sprintID, intake, mt)
				return nil
			})
		}
	}()
}

func (d *Dispatcher) run(sprintID string, intake models.IntakeData, mt catalog.ModuleType) {
	row, err := d.sink.Module(d.ctx, sprintID, mt)
	if err != nil {
		d.log.Debug("skip generation", zap.String("sprint", sprintID), zap.String("module", string(mt)), zap.Error(err))
		return
	}
	if row.IsCompleted || row.IsLocked {
		return
	}

	res := Result{SprintID: sprintID, Module: mt}
	content, err := d.runner.Run(d.ctx, mt, intake)
	if err == nil {
		res.Row, err = d.sink.CompleteModule(d.ctx, sprintID, mt, content)
	}
	res.Err = err
	if err != nil && !errors.Is(err, context.Canceled) {
		d.log.Error("background generation failed",
			zap.String("sprint", sprintID),
			zap.String("module", string(mt)),
			zap.Error(err))
	}
	if d.notify != nil {
		d.notify(res)
	}
}

// Wait blocks until every dispatched module has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
	_ = d.group.Wait()
}

// Close cancels in-flight generation and waits for the workers to exit.
func (d *Dispatcher) Close() {
	d.cancel()
	d.Wait()
}
