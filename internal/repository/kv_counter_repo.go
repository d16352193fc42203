package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/lingua/internal/kv"
	"github.com/hitoshi/lingua/internal/model"
)

// KVCounterRepo はKVストアを使用した証明書番号カウンタリポジトリ。
//
// 採番はストアのIncrByに委譲する。IncrByは全バックエンドでアトミックな
// fetch-and-addであるため、read-increment-writeを3操作に分けた場合に
// 発生する重複採番の競合は起こらない。
type KVCounterRepo struct {
	store kv.Store
}

// NewKVCounterRepo はKVCounterRepoを生成する。
func NewKVCounterRepo(store kv.Store) *KVCounterRepo {
	return &KVCounterRepo{store: store}
}

// NextCertificateSeq は(年, レベル)ごとのカウンタをアトミックに1増加させ、
// 増加後の値を返す。カウンタが存在しない場合は0から開始する（最初の値は1）。
func (r *KVCounterRepo) NextCertificateSeq(ctx context.Context, year int, level model.Level) (int64, error) {
	seq, err := r.store.IncrBy(ctx, certCounter(year, level), 1)
	if err != nil {
		return 0, fmt.Errorf("failed to increment certificate counter: %w", err)
	}
	return seq, nil
}

// compile-time interface check
var _ CounterRepository = (*KVCounterRepo)(nil)
