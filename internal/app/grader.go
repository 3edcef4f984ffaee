package app

import (
	"context"
	"fmt"
	"log"
	"sort"

	"exam-grading-service/internal/domain"
	"github.com/shopspring/decimal"
)

// GradeStore abstracts the attempt/answer records the grading job reads and writes.
type GradeStore interface {
	// ListUngradedAttempts returns a snapshot of every attempt whose score is
	// still unset. Attempts created after the snapshot is taken belong to the
	// next pass.
	ListUngradedAttempts(ctx context.Context) ([]domain.AttemptRef, error)
	// ListAnsweredQuestions returns the grading projection of one attempt:
	// one row per answered question with its weight and correctness.
	ListAnsweredQuestions(ctx context.Context, attemptID int64) ([]domain.AnsweredQuestion, error)
	// SetAttemptScore persists the computed score for one attempt.
	SetAttemptScore(ctx context.Context, attemptID int64, score decimal.Decimal) error
}

// ScoreAttempt sums the weights of correctly answered questions.
// Unanswered questions simply do not appear in the input and contribute
// nothing; an attempt with no answers scores zero.
func ScoreAttempt(answered []domain.AnsweredQuestion) decimal.Decimal {
	total := decimal.Zero
	for _, a := range answered {
		if a.Correct {
			total = total.Add(a.Weight)
		}
	}
	return total
}

// Grader runs grading passes over ungraded attempts.
type Grader struct {
	store GradeStore
}

func NewGrader(store GradeStore) *Grader {
	return &Grader{store: store}
}

// Run grades every attempt in the current ungraded snapshot and returns
// the distinct exams whose leaderboards now need rebuilding, sorted by ID.
//
// A failure on one attempt is logged and skipped so a single bad row
// cannot abort the batch. Already-graded attempts never re-enter the
// snapshot, so repeated runs are idempotent.
func (g *Grader) Run(ctx context.Context) ([]int64, error) {
	candidates, err := g.store.ListUngradedAttempts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ungraded attempts: %w", err)
	}

	touched := make(map[int64]struct{})
	for _, ref := range candidates {
		answered, err := g.store.ListAnsweredQuestions(ctx, ref.AttemptID)
		if err != nil {
			log.Printf("grading: load answers for attempt %d failed: %v", ref.AttemptID, err)
			continue
		}
		score := ScoreAttempt(answered)
		if err := g.store.SetAttemptScore(ctx, ref.AttemptID, score); err != nil {
			log.Printf("grading: persist score for attempt %d failed: %v", ref.AttemptID, err)
			continue
		}
		touched[ref.ExamID] = struct{}{}
	}

	exams := make([]int64, 0, len(touched))
	for examID := range touched {
		exams = append(exams, examID)
	}
	sort.Slice(exams, func(i, j int) bool { return exams[i] < exams[j] })
	return exams, nil
}
