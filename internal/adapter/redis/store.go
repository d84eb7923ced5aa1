// Package redis implements the durable Cache Store on Redis.
//
// Each entry is a JSON document under bver:property:<cache key>. A sorted set
// (bver:property:index) scores every key by its write time in unix
// milliseconds so sweeps and stats never scan the keyspace.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bver-dev/bver/internal/cache"
	"github.com/bver-dev/bver/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "bver:property:"
	indexKey  = "bver:property:index"
)

// Store is a cache.Store backed by Redis.
type Store struct {
	client *goredis.Client
}

// NewClient builds a go-redis client with service timeouts.
func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// New wraps an existing client.
func New(client *goredis.Client) *Store {
	return &Store{client: client}
}

func dataKey(key string) string {
	return keyPrefix + key
}

func (s *Store) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	data, err := s.client.Get(ctx, dataKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("%w: get %s: %w", domain.ErrCacheUnavailable, key, err)
	}

	var e cache.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return cache.Entry{}, false, fmt.Errorf("decode cached entry %s: %w", key, err)
	}
	return e, true, nil
}

func (s *Store) Put(ctx context.Context, e cache.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry %s: %w", e.Key, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, dataKey(e.Key), data, 0)
		pipe.ZAdd(ctx, indexKey, goredis.Z{Score: float64(e.WrittenAt.UnixMilli()), Member: e.Key})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", domain.ErrCacheUnavailable, e.Key, err)
	}
	return nil
}

func (s *Store) SweepExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	keys, err := s.client.ZRangeByScore(ctx, indexKey, &goredis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: sweep: %w", domain.ErrCacheUnavailable, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	dataKeys := make([]string, len(keys))
	members := make([]any, len(keys))
	for i, k := range keys {
		dataKeys[i] = dataKey(k)
		members[i] = k
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, dataKeys...)
		pipe.ZRem(ctx, indexKey, members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: sweep: %w", domain.ErrCacheUnavailable, err)
	}
	return int64(len(keys)), nil
}

func (s *Store) Stats(ctx context.Context, cutoff time.Time) (cache.Stats, error) {
	total, err := s.client.ZCard(ctx, indexKey).Result()
	if err != nil {
		return cache.Stats{}, fmt.Errorf("%w: stats: %w", domain.ErrCacheUnavailable, err)
	}
	valid, err := s.client.ZCount(ctx, indexKey, "("+strconv.FormatInt(cutoff.UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return cache.Stats{}, fmt.Errorf("%w: stats: %w", domain.ErrCacheUnavailable, err)
	}
	return cache.Stats{TotalEntries: total, ValidEntries: valid, ExpiredEntries: total - valid}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %w", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
