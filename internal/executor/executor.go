package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/model"
	"github.com/vk/stepgrid/internal/result"
)

// ScenarioRunner runs a single scenario. It is implemented by engine.Engine.
type ScenarioRunner interface {
	Run(ctx context.Context, sc *model.Scenario) (*result.Scenario, error)
}

// Filter selects the scenarios to run. A nil Filter selects all.
type Filter func(sc *model.Scenario) bool

// Executor fans scenarios out to a worker pool.
type Executor struct {
	runner     ScenarioRunner
	numWorkers int
	group      string

	queued  atomic.Int64
	running atomic.Int64
	done    atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// New creates a new scenario executor.
func New(runner ScenarioRunner, numWorkers int, group string) *Executor {
	if numWorkers <= 0 {
		numWorkers = 10 // Default to 10 if an invalid number is provided.
	}
	if group == "" {
		group = "workers"
	}
	return &Executor{runner: runner, numWorkers: numWorkers, group: group}
}

// Progress is a point-in-time view of an execution.
type Progress struct {
	Queued  int64 `json:"queued"`
	Running int64 `json:"running"`
	Done    int64 `json:"done"`
	Failed  int64 `json:"failed"`
	Skipped int64 `json:"skipped"`
}

// Progress returns the current counters. It is safe to call concurrently with
// Execute.
func (e *Executor) Progress() Progress {
	return Progress{
		Queued:  e.queued.Load(),
		Running: e.running.Load(),
		Done:    e.done.Load(),
		Failed:  e.failed.Load(),
		Skipped: e.skipped.Load(),
	}
}

// Summary is the outcome of an execution. Results are in input order; a nil
// entry means the scenario never started because ctx was cancelled.
type Summary struct {
	Results []*result.Scenario
	Passed  int
	Failed  int
	Skipped int
	NotRun  int
}

// OK reports whether every selected scenario ran and passed.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Skipped == 0 && s.NotRun == 0
}

type job struct {
	index    int
	scenario *model.Scenario
}

// Execute runs every scenario accepted by filter and waits for all of them.
func (e *Executor) Execute(ctx context.Context, scenarios []*model.Scenario, filter Filter) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)

	var selected []*model.Scenario
	for _, sc := range scenarios {
		if filter == nil || filter(sc) {
			selected = append(selected, sc)
		}
	}
	logger.Debug("Scenarios selected.", "selected", len(selected), "total", len(scenarios))

	summary := &Summary{Results: make([]*result.Scenario, len(selected))}
	errs := make([]error, len(selected))

	jobs := make(chan job, len(selected))
	for i, sc := range selected {
		jobs <- job{index: i, scenario: sc}
	}
	close(jobs)
	e.queued.Add(int64(len(selected)))

	var wg sync.WaitGroup
	workers := min(e.numWorkers, len(selected))
	logger.Debug("Starting worker pool.", "workers", workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, jobs, summary.Results, errs, workerID)
		}(i)
	}

	logger.Info("Waiting for all scenarios to complete...", "scenarios", len(selected))
	wg.Wait()
	logger.Info("All scenarios completed.")

	for _, res := range summary.Results {
		if res == nil {
			summary.NotRun++
			continue
		}
		switch res.Status() {
		case result.Passed:
			summary.Passed++
		case result.Failed:
			summary.Failed++
		case result.Skipped:
			summary.Skipped++
		}
	}

	if err := errors.Join(errs...); err != nil {
		return summary, fmt.Errorf("execution aborted for some scenarios: %w", err)
	}
	return summary, nil
}
