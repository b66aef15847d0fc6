// Package store counts visits per name, in redis when a client is wired and
// in process memory otherwise.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	"mvc-server/internal/config"
	"mvc-server/internal/db"
)

//mvc:service visitCounter
type VisitCounter struct {
	Redis  *redis.Client     `autowired:"redisClient,optional"`
	Config *config.AppConfig `autowired:"appConfig,optional"`

	dao *db.VisitDao

	mu     sync.Mutex
	counts map[string]int64
}

func (c *VisitCounter) Init() error {
	c.counts = make(map[string]int64)
	if c.Redis != nil {
		prefix := ""
		if c.Config != nil {
			prefix = c.Config.Redis.VisitKey
		}
		c.dao = db.NewVisitDao(c.Redis, prefix)
	}
	return nil
}

// Backend names where counts are kept.
func (c *VisitCounter) Backend() string {
	if c.dao != nil {
		return "redis"
	}
	return "memory"
}

func (c *VisitCounter) Record(ctx context.Context, name string) (int64, error) {
	if c.dao != nil {
		return c.dao.Record(ctx, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name]++
	return c.counts[name], nil
}

func (c *VisitCounter) Count(ctx context.Context, name string) (int64, error) {
	if c.dao != nil {
		return c.dao.Count(ctx, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name], nil
}

// Forget drops every visit of name.
func (c *VisitCounter) Forget(ctx context.Context, name string) (bool, error) {
	if c.dao != nil {
		return c.dao.Remove(ctx, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.counts[name]
	delete(c.counts, name)
	return ok, nil
}

func (c *VisitCounter) Top(ctx context.Context, n int64) ([]db.Visit, error) {
	if c.dao != nil {
		return c.dao.Top(ctx, n)
	}
	c.mu.Lock()
	out := make([]db.Visit, 0, len(c.counts))
	for name, count := range c.counts {
		out = append(out, db.Visit{Name: name, Count: count})
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n < 0 {
		n = 0
	}
	if int64(len(out)) > n {
		out = out[:n]
	}
	return out, nil
}
