package domain

import "errors"

var (
	// ErrExamNotFound indicates the exam does not exist in the store.
	ErrExamNotFound = errors.New("exam not found")
	// ErrAttemptNotFound indicates an attempt ID is unknown.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrRankingNotFound is returned when an exam has never been ranked.
	ErrRankingNotFound = errors.New("ranking not found")
	// ErrLeaderboardNotCached signals a cache miss for an exam's leaderboard.
	ErrLeaderboardNotCached = errors.New("leaderboard not cached")
)
