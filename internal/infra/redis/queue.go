package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"exam-grading-service/internal/app"
	"github.com/redis/go-redis/v9"
)

const defaultQueueKey = "grading:tasks"

// Queue is a Redis list-backed implementation of app.TaskQueue. Tasks
// are JSON documents pushed to the tail and popped from the head, so
// several worker processes can share one queue.
type Queue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

func NewQueue(client *redis.Client, pollTimeout time.Duration) *Queue {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &Queue{client: client, key: defaultQueueKey, pollTimeout: pollTimeout}
}

func (q *Queue) EnqueueGrading(ctx context.Context) error {
	return q.push(ctx, app.Task{Type: app.TaskGrade})
}

func (q *Queue) EnqueueRanking(ctx context.Context, examID int64) error {
	return q.push(ctx, app.Task{Type: app.TaskRank, ExamID: examID})
}

func (q *Queue) push(ctx context.Context, task app.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// Dequeue blocks up to the poll timeout and returns app.ErrNoTask when
// the window elapses without work.
func (q *Queue) Dequeue(ctx context.Context) (app.Task, error) {
	res, err := q.client.BLPop(ctx, q.pollTimeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return app.Task{}, app.ErrNoTask
		}
		return app.Task{}, fmt.Errorf("dequeue task: %w", err)
	}
	// BLPOP returns [key, value].
	if len(res) != 2 {
		return app.Task{}, fmt.Errorf("dequeue task: unexpected reply length %d", len(res))
	}
	var task app.Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return app.Task{}, fmt.Errorf("unmarshal task: %w", err)
	}
	return task, nil
}
