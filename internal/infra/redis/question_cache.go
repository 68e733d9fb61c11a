package redis

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"quiz-training-service/internal/app"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache decorates a QuestionStore with Redis caching for the
// per-course pool stats (practice-eligible count and availability), which
// every training page request hits. Question content itself changes shape
// per page and is not cached.
// The count is stored as: SET course:{courseID}:practice-count {n}
type QuestionCache struct {
	app.QuestionStore

	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(store app.QuestionStore, client *redis.Client, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		QuestionStore: store,
		client:        client,
		ttl:           ttl,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) CountPracticeEligible(ctx context.Context, courseID string) (int, error) {
	key := c.countKey(courseID)

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		if count, err := strconv.Atoi(raw); err == nil {
			return count, nil
		}
	}

	result, err, _ := c.sf.Do(courseID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.Atoi(raw); err == nil {
				return count, nil
			}
		}

		count, err := c.QuestionStore.CountPracticeEligible(ctx, courseID)
		if err != nil {
			return 0, err
		}
		// best-effort fill
		_ = c.client.Set(ctx, key, strconv.Itoa(count), c.ttlWithJitter()).Err()
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (c *QuestionCache) HasPracticeEligible(ctx context.Context, courseID string) (bool, error) {
	count, err := c.CountPracticeEligible(ctx, courseID)
	return count > 0, err
}

// Invalidate drops the cached stats for a course, e.g. after authoring
// changes the pool.
func (c *QuestionCache) Invalidate(ctx context.Context, courseID string) error {
	return c.client.Del(ctx, c.countKey(courseID)).Err()
}

func (c *QuestionCache) countKey(courseID string) string {
	return "course:" + courseID + ":practice-count"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

var _ app.QuestionStore = (*QuestionCache)(nil)
