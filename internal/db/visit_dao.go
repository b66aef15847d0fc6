package db

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// VisitDao keeps visit counts in one redis sorted set.
type VisitDao struct {
	client *redis.Client
	key    string
}

func NewVisitDao(client *redis.Client, prefix string) *VisitDao {
	return &VisitDao{client: client, key: VisitRankKey(prefix)}
}

// Record adds one visit for name and returns the new count.
func (d *VisitDao) Record(ctx context.Context, name string) (int64, error) {
	score, err := d.client.ZIncrBy(ctx, d.key, 1, name).Result()
	if err != nil {
		return 0, err
	}
	return int64(score), nil
}

// Count returns the visits recorded for name, zero when none were.
func (d *VisitDao) Count(ctx context.Context, name string) (int64, error) {
	score, err := d.client.ZScore(ctx, d.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(score), nil
}

// Remove forgets name and reports whether it had any visits.
func (d *VisitDao) Remove(ctx context.Context, name string) (bool, error) {
	n, err := d.client.ZRem(ctx, d.key, name).Result()
	return n > 0, err
}

type Visit struct {
	Name  string
	Count int64
}

// Top returns the n most visited names, highest first.
func (d *VisitDao) Top(ctx context.Context, n int64) ([]Visit, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := d.client.ZRevRangeWithScores(ctx, d.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Visit, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, Visit{Name: name, Count: int64(z.Score)})
	}
	return out, nil
}
