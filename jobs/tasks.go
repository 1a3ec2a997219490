package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAllocationReconcile removes profit allocations whose distribution
	// no longer exists.
	TaskAllocationReconcile = "allocation:reconcile"
	// TaskEquityDriftCheck flags businesses whose equity sum drifted from 100.
	TaskEquityDriftCheck = "equity:drift_check"
)

// NewAllocationReconcileTask constructs the nightly reconcile task.
func NewAllocationReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskAllocationReconcile, nil)
}

// NewEquityDriftCheckTask constructs the nightly drift check task.
func NewEquityDriftCheckTask() *asynq.Task {
	return asynq.NewTask(TaskEquityDriftCheck, nil)
}
