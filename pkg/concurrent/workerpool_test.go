// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRun(t *testing.T) {
	pool := NewWorkerPool(3)

	var counter atomic.Int32
	tasks := make([]func() error, 10)
	for i := range tasks {
		tasks[i] = func() error {
			counter.Add(1)
			return nil
		}
	}

	err := pool.Run(context.Background(), tasks...)

	require.NoError(t, err)
	assert.Equal(t, int32(10), counter.Load())
}

func TestWorkerPoolRunReturnsFirstError(t *testing.T) {
	pool := NewWorkerPool(1)

	boom := errors.New("boom")
	var ran atomic.Int32
	err := pool.Run(context.Background(),
		func() error { ran.Add(1); return boom },
		func() error { ran.Add(1); return nil },
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestWorkerPoolRunNoTasks(t *testing.T) {
	pool := NewWorkerPool(2)
	assert.NoError(t, pool.Run(context.Background()))
	assert.Nil(t, pool.RunAll(context.Background()))
}

func TestWorkerPoolRunAllCollectsErrors(t *testing.T) {
	pool := NewWorkerPool(2)

	var succeeded atomic.Int32
	errs := pool.RunAll(context.Background(),
		func() error { return errors.New("first") },
		func() error { succeeded.Add(1); return nil },
		func() error { return errors.New("second") },
		func() error { succeeded.Add(1); return nil },
	)

	// Every task ran despite the failures.
	assert.Len(t, errs, 2)
	assert.Equal(t, int32(2), succeeded.Load())
}

func TestWorkerPoolRunAllCancelledContext(t *testing.T) {
	pool := NewWorkerPool(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	errs := pool.RunAll(ctx,
		func() error { ran.Add(1); return nil },
		func() error { ran.Add(1); return nil },
	)

	assert.Len(t, errs, 2)
	assert.Zero(t, ran.Load())
}

func TestNewWorkerPoolClampsWorkerCount(t *testing.T) {
	pool := NewWorkerPool(0)
	require.NoError(t, pool.Run(context.Background(), func() error { return nil }))
}
