package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"factory-floor/internal/models"
)

const (
	snapshotKey = "floor:snapshot:latest"
	batchesKey  = "floor:batches_total"
)

// SnapshotStore хранилище последнего снимка состояний станций
type SnapshotStore interface {
	StoreSnapshot(ctx context.Context, snapshot models.Snapshot) error
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
	BatchesStored(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Stats() map[string]interface{}
	Close() error
}

// RedisCache обертка для Redis клиента
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache создает новый Redis кэш
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// StoreSnapshot перезаписывает последний снимок (порядок гарантирует Processor)
func (r *RedisCache) StoreSnapshot(ctx context.Context, snapshot models.Snapshot) error {
	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, snapshotKey, jsonData, r.ttl)
	pipe.Incr(ctx, batchesKey)
	pipe.Expire(ctx, batchesKey, r.ttl)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot получает последний снимок; nil, если его нет или истек TTL
func (r *RedisCache) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	data, err := r.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// BatchesStored получает значение счетчика сохраненных снимков
func (r *RedisCache) BatchesStored(ctx context.Context) (int64, error) {
	val, err := r.client.Get(ctx, batchesKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// Close закрывает соединение с Redis
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// Ping проверяет доступность Redis
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Stats возвращает статистику пула соединений
func (r *RedisCache) Stats() map[string]interface{} {
	stats := r.client.PoolStats()

	return map[string]interface{}{
		"backend":     "redis",
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
