package cachestore

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

type RedisCacheOptions struct {
	// default expiry for every cache name
	TTL time.Duration
	// per-name expiry, overriding TTL (eg, "member" profiles)
	NameTTL map[string]time.Duration
	// size of the in-process TinyLFU layer in front of redis. Zero disables it, so a purge on one instance is seen by all of them.
	LocalSize int
}

// Redis-backed cache, optionally with a small in-process TinyLFU layer in front.
type RedisCacheStore struct {
	Data    *cache.Cache
	TTL     time.Duration
	NameTTL map[string]time.Duration
	// true when the local layer is enabled
	local bool
}

var _ CacheStore = (*RedisCacheStore)(nil)

func NewRedisCacheStore(redisURL string, opts RedisCacheOptions) (*RedisCacheStore, error) {
	ctx := context.Background()
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	return NewRedisCacheStoreFromClient(rdb, opts), nil
}

func NewRedisCacheStoreFromClient(rdb *redis.Client, opts RedisCacheOptions) *RedisCacheStore {
	copts := &cache.Options{
		Redis: rdb,
	}
	if opts.LocalSize > 0 {
		copts.LocalCache = cache.NewTinyLFU(opts.LocalSize, opts.TTL)
	}
	return &RedisCacheStore{
		Data:    cache.New(copts),
		TTL:     opts.TTL,
		NameTTL: opts.NameTTL,
		local:   opts.LocalSize > 0,
	}
}

func redisCacheKey(name, key string) string {
	return "bouncer/cache/" + name + "/" + key
}

func (s *RedisCacheStore) ttlFor(name string) time.Duration {
	if ttl, ok := s.NameTTL[name]; ok {
		return ttl
	}
	return s.TTL
}

func (s *RedisCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	var val string
	err := s.Data.Get(ctx, redisCacheKey(name, key), &val)
	if errors.Is(err, cache.ErrCacheMiss) {
		recordLookup("redis", name, false)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	recordLookup("redis", name, true)
	return val, nil
}

func (s *RedisCacheStore) Set(ctx context.Context, name, key string, val string) error {
	ttl := s.ttlFor(name)
	return s.Data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisCacheKey(name, key),
		Value: val,
		TTL:   ttl,
		// the local layer has a single store-wide expiry; skip it for names with a shorter one
		SkipLocalCache: s.local && ttl < s.TTL,
	})
}

func (s *RedisCacheStore) Purge(ctx context.Context, name, key string) error {
	err := s.Data.Delete(ctx, redisCacheKey(name, key))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}

