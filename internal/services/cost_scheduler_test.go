package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReconciler struct {
	runs atomic.Int32
}

func (r *countingReconciler) RecomputeAll(ctx context.Context) (int, error) {
	r.runs.Add(1)
	return 0, nil
}

func TestCostSchedulerDisabled(t *testing.T) {
	reconciler := &countingReconciler{}
	scheduler := NewCostScheduler(reconciler, "")

	require.NoError(t, scheduler.Start())
	scheduler.Stop()
	assert.Zero(t, reconciler.runs.Load())
}

func TestCostSchedulerInvalidSchedule(t *testing.T) {
	scheduler := NewCostScheduler(&countingReconciler{}, "every tuesday")
	assert.Error(t, scheduler.Start())
}

func TestCostSchedulerRunsReconciler(t *testing.T) {
	reconciler := &countingReconciler{}
	scheduler := NewCostScheduler(reconciler, "@every 1h")

	require.NoError(t, scheduler.Start())
	scheduler.run()
	scheduler.Stop()
	assert.EqualValues(t, 1, reconciler.runs.Load())
}
