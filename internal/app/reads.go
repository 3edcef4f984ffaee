package app

import (
	"context"

	"exam-grading-service/internal/domain"
)

// ReadStore covers the read paths the trigger/read API exposes on top of
// the pipeline: an attempt's score and a persisted leaderboard.
type ReadStore interface {
	// GetAttempt returns one attempt or domain.ErrAttemptNotFound.
	GetAttempt(ctx context.Context, attemptID int64) (domain.Attempt, error)
	// GetLeaderboard returns the stored leaderboard for an exam or
	// domain.ErrRankingNotFound when the exam was never ranked.
	GetLeaderboard(ctx context.Context, examID int64) (domain.Leaderboard, error)
}
