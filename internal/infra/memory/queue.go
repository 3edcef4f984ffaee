package memory

import (
	"context"

	"exam-grading-service/internal/app"
)

// Queue is a channel-backed implementation of app.TaskQueue for tests
// and single-process deployments without Redis.
type Queue struct {
	tasks chan app.Task
}

func NewQueue(size int) *Queue {
	return &Queue{tasks: make(chan app.Task, size)}
}

func (q *Queue) EnqueueGrading(ctx context.Context) error {
	return q.push(ctx, app.Task{Type: app.TaskGrade})
}

func (q *Queue) EnqueueRanking(ctx context.Context, examID int64) error {
	return q.push(ctx, app.Task{Type: app.TaskRank, ExamID: examID})
}

func (q *Queue) push(ctx context.Context, task app.Task) error {
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Dequeue(ctx context.Context) (app.Task, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-ctx.Done():
		return app.Task{}, ctx.Err()
	}
}

// Len reports the number of pending tasks; test helper.
func (q *Queue) Len() int {
	return len(q.tasks)
}
