// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool_ClampsWorkerCount(t *testing.T) {
	tests := []struct {
		name        string
		workerCount int
		expected    int
	}{
		{name: "zero defaults to 1", workerCount: 0, expected: 1},
		{name: "negative defaults to 1", workerCount: -4, expected: 1},
		{name: "positive kept as-is", workerCount: 8, expected: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workerCount)
			require.NotNil(t, pool)
			assert.Equal(t, tt.expected, pool.workerCount)
		})
	}
}

func TestWorkerPool_Run(t *testing.T) {
	pool := NewWorkerPool(2)

	var done int64
	jobs := make([]func() error, 5)
	for i := range jobs {
		jobs[i] = func() error {
			atomic.AddInt64(&done, 1)
			return nil
		}
	}

	err := pool.Run(context.Background(), jobs...)
	require.NoError(t, err)
	assert.Equal(t, int64(5), atomic.LoadInt64(&done))
}

func TestWorkerPool_Run_StopsOnFirstError(t *testing.T) {
	pool := NewWorkerPool(1)

	jobErr := errors.New("ffmpeg exited with status 1")
	var ranAfterFailure atomic.Bool

	err := pool.Run(context.Background(),
		func() error {
			time.Sleep(5 * time.Millisecond)
			return jobErr
		},
		func() error {
			ranAfterFailure.Store(true)
			return nil
		},
	)

	require.Error(t, err)
	assert.Equal(t, jobErr, err)
	// With a single worker the second job sees the cancelled group context.
	assert.False(t, ranAfterFailure.Load())
}

func TestWorkerPool_Run_NoJobs(t *testing.T) {
	pool := NewWorkerPool(2)
	require.NoError(t, pool.Run(context.Background()))
}

func TestWorkerPool_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(2)
	err := pool.Run(ctx, func() error { return nil })
	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestWorkerPool_RunAll_CollectsErrorsWithoutStopping(t *testing.T) {
	pool := NewWorkerPool(2)

	errA := errors.New("chunk 2 unreadable")
	errB := errors.New("chunk 7 unreadable")
	var done int64

	errs := pool.RunAll(context.Background(),
		func() error { return errA },
		func() error {
			atomic.AddInt64(&done, 1)
			return nil
		},
		func() error { return errB },
		func() error {
			atomic.AddInt64(&done, 1)
			return nil
		},
	)

	assert.Equal(t, int64(2), atomic.LoadInt64(&done))
	require.Len(t, errs, 2)
	assert.Contains(t, errs, errA)
	assert.Contains(t, errs, errB)
}

func TestWorkerPool_RunAll_NoJobs(t *testing.T) {
	pool := NewWorkerPool(2)
	assert.Nil(t, pool.RunAll(context.Background()))
}

func TestWorkerPool_RunAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(2)
	errs := pool.RunAll(ctx, func() error { return nil })

	require.Len(t, errs, 1)
	assert.Equal(t, context.Canceled, errs[0])
}
