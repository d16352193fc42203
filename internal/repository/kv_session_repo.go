package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/lingua/internal/kv"
	"github.com/hitoshi/lingua/internal/model"
)

// KVSessionRepo はKVストアを使用したセッションリポジトリ。
// トークンの発行・失効は外部の認証基盤の責務であり、
// 本リポジトリは参照とテスト用の作成のみを提供する。
type KVSessionRepo struct {
	store kv.Store
	now   func() time.Time
}

// NewKVSessionRepo はKVSessionRepoを生成する。
func NewKVSessionRepo(store kv.Store) *KVSessionRepo {
	return &KVSessionRepo{
		store: store,
		now:   time.Now,
	}
}

// FindByToken は指定トークンのセッションを取得する。
// 見つからない場合、または期限切れの場合はnilを返す。
func (r *KVSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	data, err := r.store.Get(ctx, sessionKey(token))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	session := &model.Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if !session.ExpiresAt.IsZero() && session.ExpiresAt.Before(r.now()) {
		return nil, nil
	}
	return session, nil
}

// Create はセッションを作成する。
func (r *KVSessionRepo) Create(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.store.Set(ctx, sessionKey(session.Token), data); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*KVSessionRepo)(nil)
