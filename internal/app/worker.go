package app

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// Worker consumes queued tasks and runs them through the grader and
// ranking builder. It holds no state between tasks, so multiple worker
// processes can share one queue.
type Worker struct {
	queue    TaskQueue
	grader   *Grader
	builder  *RankingBuilder
	interval time.Duration // cadence of self-enqueued grading passes; 0 disables
}

func NewWorker(queue TaskQueue, grader *Grader, builder *RankingBuilder, interval time.Duration) *Worker {
	return &Worker{queue: queue, grader: grader, builder: builder, interval: interval}
}

// Run processes tasks until ctx is canceled. With a non-zero interval it
// also enqueues a grading task on that cadence, so completed attempts
// are picked up without an external trigger.
func (w *Worker) Run(ctx context.Context) error {
	if w.interval > 0 {
		go w.tickGrading(ctx)
	}

	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrNoTask) {
				continue
			}
			log.Printf("worker: dequeue failed: %v", err)
			continue
		}
		w.handle(ctx, task)
	}
}

func (w *Worker) tickGrading(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.queue.EnqueueGrading(ctx); err != nil {
				log.Printf("worker: enqueue periodic grading failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) handle(ctx context.Context, task Task) {
	switch task.Type {
	case TaskGrade:
		exams, err := w.grader.Run(ctx)
		if err != nil {
			// The next scheduled pass retries; candidates stay ungraded.
			log.Printf("worker: grading pass failed: %v", err)
			return
		}
		for _, examID := range exams {
			if err := w.queue.EnqueueRanking(ctx, examID); err != nil {
				log.Printf("worker: enqueue ranking for exam %d failed: %v", examID, err)
			}
		}
	case TaskRank:
		if err := w.builder.Rebuild(ctx, task.ExamID); err != nil {
			log.Printf("worker: rebuild ranking for exam %d failed: %v", task.ExamID, err)
		}
	default:
		log.Printf("worker: dropping unknown task type %q", task.Type)
	}
}

// RunOnce executes a single grading pass and rebuilds the leaderboard of
// every affected exam, rebuilds running in parallel. Used by the
// one-shot CLI path; the queue is not consulted.
func (w *Worker) RunOnce(ctx context.Context) error {
	exams, err := w.grader.Run(ctx)
	if err != nil {
		return err
	}
	eg, ctx := errgroup.WithContext(ctx)
	for _, examID := range exams {
		examID := examID
		eg.Go(func() error {
			return w.builder.Rebuild(ctx, examID)
		})
	}
	return eg.Wait()
}
