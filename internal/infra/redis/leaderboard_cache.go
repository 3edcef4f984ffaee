package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"exam-grading-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// LeaderboardCache stores leaderboard snapshots as JSON values keyed per
// exam. The ranking builder writes through after every successful
// rebuild; readers fall back to the store on a miss.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	rnd    *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Put(ctx context.Context, lb domain.Leaderboard) error {
	payload, err := json.Marshal(lb)
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}
	if err := c.client.Set(ctx, c.key(lb.ExamID), payload, c.ttlWithJitter()).Err(); err != nil {
		return fmt.Errorf("cache leaderboard: %w", err)
	}
	return nil
}

func (c *LeaderboardCache) Get(ctx context.Context, examID int64) (domain.Leaderboard, error) {
	raw, err := c.client.Get(ctx, c.key(examID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Leaderboard{}, domain.ErrLeaderboardNotCached
		}
		return domain.Leaderboard{}, fmt.Errorf("read cached leaderboard: %w", err)
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(raw, &lb); err != nil {
		return domain.Leaderboard{}, fmt.Errorf("unmarshal cached leaderboard: %w", err)
	}
	return lb, nil
}

func (c *LeaderboardCache) key(examID int64) string {
	return "exam:" + strconv.FormatInt(examID, 10) + ":leaderboard"
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
