package app

import (
	"context"
	"errors"
)

// Task types dispatched through the queue.
const (
	TaskGrade = "grade"
	TaskRank  = "rank"
)

// Task is one unit of background work. ExamID is set for ranking tasks only.
type Task struct {
	Type   string `json:"type"`
	ExamID int64  `json:"examId,omitempty"`
}

// ErrNoTask is returned by Dequeue when the queue is idle; the worker
// simply polls again.
var ErrNoTask = errors.New("no task available")

// TaskQueue hands work to the background worker. Delivery is
// at-least-once; handlers must tolerate duplicates.
type TaskQueue interface {
	// EnqueueGrading schedules a grading pass over all ungraded attempts.
	EnqueueGrading(ctx context.Context) error
	// EnqueueRanking schedules a leaderboard rebuild for one exam.
	EnqueueRanking(ctx context.Context, examID int64) error
	// Dequeue blocks until a task arrives, the queue's poll window elapses
	// (ErrNoTask), or ctx is done.
	Dequeue(ctx context.Context) (Task, error)
}
