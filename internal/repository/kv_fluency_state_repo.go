package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/lingua/internal/kv"
	"github.com/hitoshi/lingua/internal/model"
)

// KVFluencyStateRepo はKVストアを使用した習熟度状態リポジトリ。
type KVFluencyStateRepo struct {
	store kv.Store
}

// NewKVFluencyStateRepo はKVFluencyStateRepoを生成する。
func NewKVFluencyStateRepo(store kv.Store) *KVFluencyStateRepo {
	return &KVFluencyStateRepo{store: store}
}

// FindByUserID は指定ユーザーの習熟度状態を取得する。未初期化の場合はnilを返す。
func (r *KVFluencyStateRepo) FindByUserID(ctx context.Context, userID string) (*model.UserFluencyState, error) {
	data, err := r.store.Get(ctx, stateKey(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find fluency state: %w", err)
	}

	state := &model.UserFluencyState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fluency state: %w", err)
	}
	return state, nil
}

// Save は習熟度状態を書き込む。既存の状態は上書きされる。
func (r *KVFluencyStateRepo) Save(ctx context.Context, state *model.UserFluencyState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal fluency state: %w", err)
	}
	if err := r.store.Set(ctx, stateKey(state.UserID), data); err != nil {
		return fmt.Errorf("failed to save fluency state: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FluencyStateRepository = (*KVFluencyStateRepo)(nil)
