// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package concurrent provides helpers for running groups of tasks with a
// bounded number of workers.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs batches of tasks with a fixed concurrency limit.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a pool that runs at most workerCount tasks at once.
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{workerCount: workerCount}
}

// Run executes all tasks and stops scheduling new ones once any task fails.
// It returns the first error encountered.
func (wp *WorkerPool) Run(ctx context.Context, tasks ...func() error) error {
	if len(tasks) == 0 {
		return nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workerCount)

	for _, task := range tasks {
		g.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}
			return task()
		})
	}

	return g.Wait()
}

// RunAll executes every task regardless of individual failures and returns
// the errors that occurred. A task observing a cancelled context reports the
// context error instead of running.
func (wp *WorkerPool) RunAll(ctx context.Context, tasks ...func() error) []error {
	if len(tasks) == 0 {
		return nil
	}

	errCh := make(chan error, len(tasks))

	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for _, task := range tasks {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return nil
			default:
			}
			if err := task(); err != nil {
				errCh <- err
			}
			// Always nil so one failure does not cancel the rest.
			return nil
		})
	}

	_ = g.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errs
}
