package whitelist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var redisWhitelistKey = "bouncer/whitelist"

// Stores the whitelist document as a single JSON string value. A redis SET replaces the whole value at once, which gives the atomic save required by Backend.
type RedisBackend struct {
	Client *redis.Client
	Key    string
}

var _ Backend = (*RedisBackend)(nil)

func NewRedisBackend(redisURL string) (*RedisBackend, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisBackend{
		Client: rdb,
		Key:    redisWhitelistKey,
	}, nil
}

func (b *RedisBackend) Load(ctx context.Context) (*Document, error) {
	raw, err := b.Client.Get(ctx, b.Key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: redis key %s", ErrNotExist, b.Key)
	} else if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing whitelist from redis key %s: %w", b.Key, err)
	}
	return &doc, nil
}

func (b *RedisBackend) Save(ctx context.Context, doc *Document) error {
	raw, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	return b.Client.Set(ctx, b.Key, raw, 0).Err()
}
