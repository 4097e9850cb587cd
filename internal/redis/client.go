package redisdb

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"ira-chat/internal/chat"
	"ira-chat/internal/config"
)

func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// KV adapts *redis.Client to the narrow interface the chat store needs.
type KV struct {
	rdb *redis.Client
}

func NewKV(rdb *redis.Client) *KV {
	return &KV{rdb: rdb}
}

func (k *KV) Get(ctx context.Context, key string) (string, error) {
	val, err := k.rdb.Get(ctx, key).Result()
	return val, mapNotFound(err)
}

// mapNotFound translates redis.Nil into the store-agnostic sentinel the
// chat layer matches on; every other error passes through untouched.
func mapNotFound(err error) error {
	if errors.Is(err, redis.Nil) {
		return chat.ErrNotFound
	}
	return err
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	return k.rdb.Set(ctx, key, value, 0).Err()
}

func (k *KV) RPush(ctx context.Context, key, value string) error {
	return k.rdb.RPush(ctx, key, value).Err()
}

func (k *KV) LTrim(ctx context.Context, key string, start, stop int64) error {
	return k.rdb.LTrim(ctx, key, start, stop).Err()
}

func (k *KV) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return k.rdb.LRange(ctx, key, start, stop).Result()
}
