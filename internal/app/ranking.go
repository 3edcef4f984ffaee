package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"exam-grading-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// RankingStore abstracts the scored-attempt reads and the leaderboard
// replacement the ranking builder performs.
type RankingStore interface {
	// ListScoredAttempts returns every graded attempt for the exam.
	ListScoredAttempts(ctx context.Context, examID int64) ([]domain.ScoredAttempt, error)
	// ReplaceLeaderboard swaps the exam's leaderboard for the given ordered
	// entries in a single transaction: get-or-create the ranking, delete the
	// old entries, insert the new set. A failure must leave the previous
	// entries intact.
	ReplaceLeaderboard(ctx context.Context, examID int64, entries []domain.RankingEntry) error
}

// LeaderboardCache holds read-optimized leaderboard snapshots.
type LeaderboardCache interface {
	Put(ctx context.Context, lb domain.Leaderboard) error
	Get(ctx context.Context, examID int64) (domain.Leaderboard, error)
}

// RankingBuilder rebuilds per-exam leaderboards from graded attempts.
type RankingBuilder struct {
	store RankingStore
	cache LeaderboardCache // optional
	clock func() time.Time
	sf    singleflight.Group
}

func NewRankingBuilder(store RankingStore, cache LeaderboardCache) *RankingBuilder {
	return &RankingBuilder{store: store, cache: cache, clock: time.Now}
}

// NewRankingBuilderWithClock is test-only for deterministic snapshot timestamps.
func NewRankingBuilderWithClock(store RankingStore, cache LeaderboardCache, now func() time.Time) *RankingBuilder {
	return &RankingBuilder{store: store, cache: cache, clock: now}
}

// Rebuild recomputes and replaces the exam's leaderboard. Concurrent
// rebuilds of the same exam within this process collapse into one;
// cross-process serialization is the store's responsibility.
func (b *RankingBuilder) Rebuild(ctx context.Context, examID int64) error {
	_, err, _ := b.sf.Do(strconv.FormatInt(examID, 10), func() (interface{}, error) {
		return nil, b.rebuild(ctx, examID)
	})
	return err
}

func (b *RankingBuilder) rebuild(ctx context.Context, examID int64) error {
	scored, err := b.store.ListScoredAttempts(ctx, examID)
	if err != nil {
		return fmt.Errorf("list scored attempts for exam %d: %w", examID, err)
	}

	// Order is normalized here rather than trusted from the store:
	// score descending, then attempt ID ascending as the tiebreak.
	sort.Slice(scored, func(i, j int) bool {
		if cmp := scored[i].Score.Cmp(scored[j].Score); cmp != 0 {
			return cmp > 0
		}
		return scored[i].AttemptID < scored[j].AttemptID
	})

	entries := make([]domain.RankingEntry, 0, len(scored))
	for i, s := range scored {
		entries = append(entries, domain.RankingEntry{
			Position:  i + 1,
			UserID:    s.UserID,
			AttemptID: s.AttemptID,
			Score:     s.Score,
		})
	}

	if err := b.store.ReplaceLeaderboard(ctx, examID, entries); err != nil {
		return fmt.Errorf("replace leaderboard for exam %d: %w", examID, err)
	}

	if b.cache != nil {
		lb := domain.Leaderboard{ExamID: examID, Entries: entries, RebuiltAt: b.clock()}
		if err := b.cache.Put(ctx, lb); err != nil {
			// The store already holds the new entries; the cache catches up on the next rebuild.
			log.Printf("ranking: cache leaderboard for exam %d failed: %v", examID, err)
		}
	}
	return nil
}
