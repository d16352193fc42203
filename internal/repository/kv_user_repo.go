package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/lingua/internal/kv"
	"github.com/hitoshi/lingua/internal/model"
)

// KVUserRepo はKVストアを使用したユーザーリポジトリ。
type KVUserRepo struct {
	store kv.Store
}

// NewKVUserRepo はKVUserRepoを生成する。
func NewKVUserRepo(store kv.Store) *KVUserRepo {
	return &KVUserRepo{store: store}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *KVUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	data, err := r.store.Get(ctx, userKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	user := &model.User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *KVUserRepo) Create(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := r.store.Set(ctx, userKey(user.ID), data); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// ListIDs は全ユーザーのIDを返す。
func (r *KVUserRepo) ListIDs(ctx context.Context) ([]string, error) {
	entries, err := r.store.List(ctx, userKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, strings.TrimPrefix(e.Key, userKeyPrefix))
	}
	return ids, nil
}

// compile-time interface check
var _ UserRepository = (*KVUserRepo)(nil)
