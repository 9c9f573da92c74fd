package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(host, port, password string, dbIndex int) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           dbIndex,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return rdb, nil
}

// RedisSurface realises the widget sharing container on redis: items live at
// "<group>:<key>" and timeline reloads are published on "<group>:timelines".
type RedisSurface struct {
	rdb   *redis.Client
	group string
}

func NewRedisSurface(rdb *redis.Client, group string) *RedisSurface {
	return &RedisSurface{rdb: rdb, group: group}
}

func itemKey(key, group string) string {
	return fmt.Sprintf("%s:%s", group, key)
}

func TimelineChannel(group string) string {
	return fmt.Sprintf("%s:timelines", group)
}

func (s *RedisSurface) GetItem(ctx context.Context, key, group string) (string, error) {
	val, err := s.rdb.Get(ctx, itemKey(key, group)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (s *RedisSurface) SetItem(ctx context.Context, key, value, group string) error {
	if err := s.rdb.Set(ctx, itemKey(key, group), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisSurface) RemoveItem(ctx context.Context, key, group string) error {
	if err := s.rdb.Del(ctx, itemKey(key, group)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisSurface) ReloadAllTimelines(ctx context.Context) error {
	if err := s.rdb.Publish(ctx, TimelineChannel(s.group), "reload").Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
