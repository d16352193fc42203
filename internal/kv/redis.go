package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore はRedisをバックエンドとするKVストア。
// IncrByはRedisネイティブのINCRBYに委譲するため、
// 同一キーへの並行インクリメントはRedis側で直列化される。
type RedisStore struct {
	client *goredis.Client
}

// NewRedisStore はRedisへの接続を確立してRedisStoreを生成する。
// 接続確認のため起動時にPINGを送信し、失敗した場合はエラーを返す。
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Get はキーに対応する値を返す。存在しない場合はErrNotFoundを返す。
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return v, nil
}

// Set はキーに値を書き込む。TTLは設定しない（全レコードが永続）。
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete はキーを削除する。
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// List は指定プレフィックスを持つ全エントリをキー昇順で返す。
// SCANでキーを収集してからMGETで値をまとめて取得する。
func (s *RedisStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to mget: %w", err)
	}

	entries := make([]Entry, 0, len(keys))
	for i, k := range keys {
		// SCANとMGETの間に削除されたキーはnilになるためスキップ
		if values[i] == nil {
			continue
		}
		str, ok := values[i].(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Key: k, Value: []byte(str)})
	}
	return entries, nil
}

// IncrBy はINCRBYでキーの整数値をアトミックに増加させる。
func (s *RedisStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := s.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment key %s: %w", key, err)
	}
	return n, nil
}

// Ping はRedisへの接続性を確認する。
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close はRedisへの接続を閉じる。
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// compile-time interface check
var _ Store = (*RedisStore)(nil)
