package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"flag-trivia-service/internal/domain"
)

// RankingCache keeps leaderboard query results in Redis for a short TTL
// so hot partitions don't hit the SQL store on every page load. Entries
// for a partition are dropped whenever a score lands in it.
type RankingCache struct {
	client *redis.Client
	ttl    time.Duration
	rnd    *rand.Rand
}

func NewRankingCache(client *redis.Client, ttl time.Duration) *RankingCache {
	return &RankingCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *RankingCache) Get(ctx context.Context, region string, format domain.QuizFormat, mode domain.RankingMode) ([]domain.RankedEntry, bool, error) {
	raw, err := c.client.Get(ctx, c.key(region, format, mode)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entries []domain.RankedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (c *RankingCache) Set(ctx context.Context, region string, format domain.QuizFormat, mode domain.RankingMode, entries []domain.RankedEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(region, format, mode), raw, c.ttlWithJitter()).Err()
}

func (c *RankingCache) Invalidate(ctx context.Context, region string, format domain.QuizFormat) error {
	return c.client.Del(ctx,
		c.key(region, format, domain.ModeDaily),
		c.key(region, format, domain.ModeAllTime),
	).Err()
}

func (c *RankingCache) key(region string, format domain.QuizFormat, mode domain.RankingMode) string {
	return "ranking:" + string(mode) + ":" + region + ":" + string(format)
}

func (c *RankingCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
