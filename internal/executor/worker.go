package executor

import (
	"context"
	"fmt"

	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/result"
	"github.com/vk/stepgrid/internal/scope"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, jobs <-chan job, results []*result.Scenario, errs []error, workerID int) {
	key := scope.Key{Group: e.group, Worker: fmt.Sprintf("worker-%d", workerID)}
	ctx = scope.WithKey(ctx, key)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for j := range jobs {
		e.queued.Add(-1)
		if ctx.Err() != nil {
			logger.Debug("Context cancelled, not starting scenario.", "workerID", workerID, "scenario", j.scenario.Name)
			continue
		}

		e.running.Add(1)
		res, err := e.runner.Run(ctx, j.scenario)
		e.running.Add(-1)
		e.done.Add(1)

		results[j.index] = res
		if err != nil {
			logger.Error("Scenario execution aborted.", "workerID", workerID, "scenario", j.scenario.Name, "error", err)
			errs[j.index] = err
		}
		switch {
		case res == nil || res.Status() == result.Failed:
			e.failed.Add(1)
		case res.Status() == result.Skipped:
			e.skipped.Add(1)
		}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
