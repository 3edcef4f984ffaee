package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"exam-grading-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func TestLeaderboardCacheRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewLeaderboardCache(client, time.Minute)
	ctx := context.Background()

	lb := domain.Leaderboard{
		ExamID: 3,
		Entries: []domain.RankingEntry{
			{Position: 1, UserID: 1, AttemptID: 10, Score: decimal.NewFromInt(9)},
			{Position: 2, UserID: 2, AttemptID: 11, Score: decimal.NewFromInt(4)},
		},
		RebuiltAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	if err := cache.Put(ctx, lb); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("exam:3:leaderboard") {
		t.Fatalf("expected redis key to be set")
	}

	got, err := cache.Get(ctx, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ExamID != 3 || len(got.Entries) != 2 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if got.Entries[0].Position != 1 || !got.Entries[0].Score.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("unexpected first entry %+v", got.Entries[0])
	}
	if !got.RebuiltAt.Equal(lb.RebuiltAt) {
		t.Fatalf("expected rebuilt at %v, got %v", lb.RebuiltAt, got.RebuiltAt)
	}
}

func TestLeaderboardCacheMiss(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewLeaderboardCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	if _, err := cache.Get(context.Background(), 99); !errors.Is(err, domain.ErrLeaderboardNotCached) {
		t.Fatalf("expected ErrLeaderboardNotCached, got %v", err)
	}
}
