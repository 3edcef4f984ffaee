package memory

import (
	"context"
	"errors"
	"testing"

	"exam-grading-service/internal/domain"
	"github.com/shopspring/decimal"
)

func TestSetAttemptScoreFreezesFirstValue(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	attempt := store.AddAttempt(1, 1)

	if err := store.SetAttemptScore(ctx, attempt, decimal.NewFromInt(3)); err != nil {
		t.Fatalf("first set: %v", err)
	}
	// A concurrent pass writing again must not overwrite the stored score.
	if err := store.SetAttemptScore(ctx, attempt, decimal.NewFromInt(9)); err != nil {
		t.Fatalf("second set: %v", err)
	}

	got, err := store.GetAttempt(ctx, attempt)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if got.Score == nil || !got.Score.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected frozen score 3, got %v", got.Score)
	}
}

func TestListUngradedExcludesScoredAttempts(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	graded := store.AddAttempt(1, 1)
	ungraded := store.AddAttempt(2, 1)

	if err := store.SetAttemptScore(ctx, graded, decimal.Zero); err != nil {
		t.Fatalf("set score: %v", err)
	}

	refs, err := store.ListUngradedAttempts(ctx)
	if err != nil {
		t.Fatalf("list ungraded: %v", err)
	}
	if len(refs) != 1 || refs[0].AttemptID != ungraded {
		t.Fatalf("expected only attempt %d, got %+v", ungraded, refs)
	}
}

func TestAnsweredQuestionsDanglingReferences(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	q := store.AddQuestion("q", decimal.NewFromInt(2))
	attempt := store.AddAttempt(1, 1)

	// Chosen answer no longer exists: row stays, earns no credit.
	store.AddParticipantAnswer(attempt, q, 999)
	// Question no longer exists: row disappears from the projection.
	store.AddParticipantAnswer(attempt, 998, 999)

	answered, err := store.ListAnsweredQuestions(ctx, attempt)
	if err != nil {
		t.Fatalf("list answered: %v", err)
	}
	if len(answered) != 1 {
		t.Fatalf("expected 1 projected row, got %d", len(answered))
	}
	if answered[0].Correct {
		t.Fatalf("dangling answer reference must not earn credit")
	}
}

func TestGetLeaderboardMissingExam(t *testing.T) {
	store := NewStore()
	if _, err := store.GetLeaderboard(context.Background(), 42); !errors.Is(err, domain.ErrRankingNotFound) {
		t.Fatalf("expected ErrRankingNotFound, got %v", err)
	}
}
