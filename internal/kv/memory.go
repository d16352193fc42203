package kv

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MemoryStore はテストとローカル開発用のインメモリKVストア。
// sync.RWMutexで全操作を保護する。プロセス終了でデータは失われる。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Get はキーに対応する値を返す。存在しない場合はErrNotFoundを返す。
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set はキーに値を書き込む。
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

// Delete はキーを削除する。
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// List は指定プレフィックスを持つ全エントリをキー昇順で返す。
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []Entry
	for k, v := range s.data {
		if strings.HasPrefix(k, prefix) {
			value := make([]byte, len(v))
			copy(value, v)
			entries = append(entries, Entry{Key: k, Value: value})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// IncrBy はキーの整数値をdeltaだけアトミックに増加させる。
// カウンタ値はRedisのINCRBYと互換のASCII整数表現で保持する。
func (s *MemoryStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if v, ok := s.data[key]; ok {
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, err
		}
		current = n
	}
	current += delta
	s.data[key] = []byte(strconv.FormatInt(current, 10))
	return current, nil
}

// Ping は常に成功する。
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close は何もしない。
func (s *MemoryStore) Close() error {
	return nil
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
