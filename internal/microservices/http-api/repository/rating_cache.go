package repository

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RatingCache stores per-title average scores. A cache built on a nil client
// caches nothing; every read misses and writes are dropped.
type RatingCache interface {
	Get(ctx context.Context, titleIDs []int64) (map[int64]float64, []int64, error)
	Set(ctx context.Context, ratings map[int64]float64) error
	Invalidate(ctx context.Context, titleIDs ...int64) error
}

// unrated marks a cached "no reviews yet" so it is not recomputed on every read
const unrated = "none"

type redisRatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRatingCache(client *redis.Client, ttl time.Duration) RatingCache {
	return &redisRatingCache{client: client, ttl: ttl}
}

func ratingKey(id int64) string {
	return "yamdb:rating:title:" + strconv.FormatInt(id, 10)
}

// Get returns cached ratings and the ids that missed. Titles cached as unrated
// are neither in the map nor in the misses.
func (c *redisRatingCache) Get(ctx context.Context, titleIDs []int64) (map[int64]float64, []int64, error) {
	hits := make(map[int64]float64, len(titleIDs))
	if c.client == nil || len(titleIDs) == 0 {
		return hits, titleIDs, nil
	}

	keys := make([]string, len(titleIDs))
	for i, id := range titleIDs {
		keys[i] = ratingKey(id)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return hits, titleIDs, err
	}

	var misses []int64
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, titleIDs[i])
			continue
		}
		if s == unrated {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			misses = append(misses, titleIDs[i])
			continue
		}
		hits[titleIDs[i]] = f
	}
	return hits, misses, nil
}

// Set caches the given ratings. Use NaN for a title with no reviews.
func (c *redisRatingCache) Set(ctx context.Context, ratings map[int64]float64) error {
	if c.client == nil || len(ratings) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for id, avg := range ratings {
		v := unrated
		if !math.IsNaN(avg) {
			v = strconv.FormatFloat(avg, 'f', -1, 64)
		}
		pipe.Set(ctx, ratingKey(id), v, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisRatingCache) Invalidate(ctx context.Context, titleIDs ...int64) error {
	if c.client == nil || len(titleIDs) == 0 {
		return nil
	}
	keys := make([]string, len(titleIDs))
	for i, id := range titleIDs {
		keys[i] = ratingKey(id)
	}
	err := c.client.Del(ctx, keys...).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
