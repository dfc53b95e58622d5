package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// Cache JSON 对象缓存，穿透加载时通过 singleflight 合并并发请求
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// Get 读取并反序列化缓存值
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	ctx, span := tracer.Start(ctx, "cache.Get")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		span.RecordError(err)
		return fmt.Errorf("failed to get cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// Set 序列化并写入缓存
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "cache.Set")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := c.client.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

// Delete 删除缓存键
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	ctx, span := tracer.Start(ctx, "cache.Delete")
	defer span.End()

	if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

// GetOrLoad 读缓存，未命中时调用 loader 加载并回填。
// 同一 key 的并发加载会被合并为一次 loader 调用。
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "cache.GetOrLoad")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal loaded value: %w", err)
		}
		if err := c.client.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
			// 回填失败不影响本次返回
			span.RecordError(err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
