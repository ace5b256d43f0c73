package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

// Redis stores each entry as JSON under <prefix>:entry:<id> with a TTL and
// keeps the newest ids in the list <prefix>:recent, trimmed to capacity.
type Redis struct {
	rdb      *goredis.Client
	log      *logger.Logger
	prefix   string
	ttl      time.Duration
	capacity int
}

func NewRedis(ctx context.Context, cfg config.RedisConfig, capacity int, log *logger.Logger) (*Redis, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if log == nil {
		log = logger.Nop()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{
		rdb:      rdb,
		log:      log.With("service", "RedisHistory"),
		prefix:   strings.TrimSpace(cfg.KeyPrefix),
		ttl:      cfg.TTL.Duration,
		capacity: capacity,
	}, nil
}

func (r *Redis) entryKey(id string) string { return r.prefix + ":entry:" + id }
func (r *Redis) recentKey() string         { return r.prefix + ":recent" }

func (r *Redis) Add(ctx context.Context, concept string, result breakdown.ConceptResult) (Entry, error) {
	e := newEntry(concept, result)
	raw, err := json.Marshal(e)
	if err != nil {
		return Entry{}, err
	}
	var evicted *goredis.StringSliceCmd
	_, err = r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, r.entryKey(e.ID), raw, r.ttl)
		p.LPush(ctx, r.recentKey(), e.ID)
		evicted = p.LRange(ctx, r.recentKey(), int64(r.capacity), -1)
		p.LTrim(ctx, r.recentKey(), 0, int64(r.capacity-1))
		return nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("redis history add: %w", err)
	}

	// Entries trimmed off the list go with it.
	if ids := evicted.Val(); len(ids) > 0 {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = r.entryKey(id)
		}
		if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
			return Entry{}, fmt.Errorf("redis history evict: %w", err)
		}
	}
	return e, nil
}

func (r *Redis) List(ctx context.Context, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit, r.capacity)
	ids, err := r.rdb.LRange(ctx, r.recentKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis history list: %w", err)
	}
	if len(ids) == 0 {
		return []Entry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.entryKey(id)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis history mget: %w", err)
	}

	out := make([]Entry, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// expired entry; its id ages out of the list on later trims
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			r.log.Warn("skipping corrupt history entry", "id", ids[i], "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Redis) Get(ctx context.Context, id string) (Entry, error) {
	raw, err := r.rdb.Get(ctx, r.entryKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("redis history get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("decode history entry: %w", err)
	}
	return e, nil
}

func (r *Redis) Close() error { return r.rdb.Close() }
