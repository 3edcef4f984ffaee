package memory

import (
	"context"
	"sync"

	"exam-grading-service/internal/domain"
)

// LeaderboardCache is a map-backed implementation of app.LeaderboardCache.
type LeaderboardCache struct {
	mu        sync.RWMutex
	snapshots map[int64]domain.Leaderboard
}

func NewLeaderboardCache() *LeaderboardCache {
	return &LeaderboardCache{snapshots: make(map[int64]domain.Leaderboard)}
}

func (c *LeaderboardCache) Put(_ context.Context, lb domain.Leaderboard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[lb.ExamID] = lb
	return nil
}

func (c *LeaderboardCache) Get(_ context.Context, examID int64) (domain.Leaderboard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lb, ok := c.snapshots[examID]
	if !ok {
		return domain.Leaderboard{}, domain.ErrLeaderboardNotCached
	}
	return lb, nil
}
