package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/lingua/internal/kv"
	"github.com/hitoshi/lingua/internal/model"
)

// KVHistoryRepo はKVストアを使用したレベル変更履歴リポジトリ。
// 追記専用であり、既存エントリの更新・削除は行わない。
//
// キーにはユーザーごとのシーケンス番号をゼロ埋めで埋め込むため、
// プレフィックス走査のキー昇順がそのまま挿入順（古い順）になる。
// タイムスタンプではなくシーケンスで並べるため、時刻の衝突で
// 順序が入れ替わることはない。
type KVHistoryRepo struct {
	store kv.Store
}

// NewKVHistoryRepo はKVHistoryRepoを生成する。
func NewKVHistoryRepo(store kv.Store) *KVHistoryRepo {
	return &KVHistoryRepo{store: store}
}

// Append は履歴エントリを追記する。
// シーケンス番号のアトミックな採番により、並行追記でもキーは衝突しない。
func (r *KVHistoryRepo) Append(ctx context.Context, entry *model.HistoryEntry) error {
	seq, err := r.store.IncrBy(ctx, historySeqKey(entry.UserID), 1)
	if err != nil {
		return fmt.Errorf("failed to allocate history seq: %w", err)
	}
	entry.Seq = seq

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}
	if err := r.store.Set(ctx, historyKey(entry.UserID, seq), data); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// ListByUserID は指定ユーザーの全履歴エントリを新しい順で返す。
func (r *KVHistoryRepo) ListByUserID(ctx context.Context, userID string) ([]*model.HistoryEntry, error) {
	entries, err := r.store.List(ctx, historyUserPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}

	// キー昇順 = 古い順のため、逆順に詰め替えて新しい順にする
	out := make([]*model.HistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := &model.HistoryEntry{}
		if err := json.Unmarshal(entries[i].Value, e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Latest は指定ユーザーの最新の履歴エントリを返す。履歴がない場合はnilを返す。
func (r *KVHistoryRepo) Latest(ctx context.Context, userID string) (*model.HistoryEntry, error) {
	entries, err := r.store.List(ctx, historyUserPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	e := &model.HistoryEntry{}
	if err := json.Unmarshal(entries[len(entries)-1].Value, e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
	}
	return e, nil
}

// compile-time interface check
var _ HistoryRepository = (*KVHistoryRepo)(nil)
