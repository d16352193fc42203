package fluency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/lingua/internal/metrics"
	"github.com/hitoshi/lingua/internal/model"
	"github.com/hitoshi/lingua/internal/repository"
)

// BulkMigrateResult は一括移行の実行結果を表す。
type BulkMigrateResult struct {
	MigratedCount int `json:"migratedCount"`
	SkippedCount  int `json:"skippedCount"`
}

// Migrator は習熟度状態を持たないレガシーユーザーに初期レベルを付与する。
//
// 単一ユーザーのEnsureInitialized（プロフィール読み取り時の機会的実行）と
// 全ユーザーを走査するBulkMigrate（管理者による一括実行）の両方が、
// アカウント作成時と同じ初期付与パスに委譲される。
// どちらのパスも冪等であり、初期化済みユーザーには何も行わない。
type Migrator struct {
	users    repository.UserRepository
	states   repository.FluencyStateRepository
	history  repository.HistoryRepository
	recorder metrics.Recorder
	now      func() time.Time
}

// NewMigrator はMigratorを生成する。recorderはnilでもよい。
func NewMigrator(
	users repository.UserRepository,
	states repository.FluencyStateRepository,
	history repository.HistoryRepository,
	recorder metrics.Recorder,
) *Migrator {
	return &Migrator{
		users:    users,
		states:   states,
		history:  history,
		recorder: recorder,
		now:      time.Now,
	}
}

// EnsureInitialized は指定ユーザーの習熟度状態を返す。
// 状態が存在しない場合は最下位レベルで初期化し、changedBy = system の
// 履歴エントリをちょうど1件追記する。既に初期化済みの場合は何も変更しない。
func (m *Migrator) EnsureInitialized(ctx context.Context, userID string) (*model.UserFluencyState, error) {
	state, _, err := m.ensureInitializedAs(ctx, userID, model.SystemActor)
	return state, err
}

// BulkMigrate は全ユーザーを走査し、習熟度状態を持たないユーザーを
// 初期化する。管理者起因のため changedBy = actorID を記録する。
// 初期化済みのユーザーはスキップとして数える。
func (m *Migrator) BulkMigrate(ctx context.Context, actorID string) (*BulkMigrateResult, error) {
	ids, err := m.users.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}

	result := &BulkMigrateResult{}
	for _, id := range ids {
		_, created, err := m.ensureInitializedAs(ctx, id, actorID)
		if err != nil {
			return nil, fmt.Errorf("ユーザー %s の移行に失敗しました: %w", id, err)
		}
		if created {
			result.MigratedCount++
		} else {
			result.SkippedCount++
		}
	}

	if m.recorder != nil {
		m.recorder.RecordBackfillMigrated(result.MigratedCount)
	}

	slog.Info("一括移行が完了しました",
		slog.String("actor_id", actorID),
		slog.Int("migrated", result.MigratedCount),
		slog.Int("skipped", result.SkippedCount),
	)

	return result, nil
}

// ensureInitializedAs は初期付与の共通パス。
// 状態が既に存在する場合はそれを返し、createdはfalseとなる。
func (m *Migrator) ensureInitializedAs(ctx context.Context, userID, actorID string) (*model.UserFluencyState, bool, error) {
	existing, err := m.states.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("習熟度状態の取得に失敗しました: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	now := m.now().UTC()
	state := &model.UserFluencyState{
		UserID:         userID,
		Level:          model.MinLevel(),
		LevelUpdatedAt: now,
		LevelUpdatedBy: actorID,
	}
	if err := m.states.Save(ctx, state); err != nil {
		return nil, false, fmt.Errorf("習熟度状態の保存に失敗しました: %w", err)
	}

	entry := &model.HistoryEntry{
		ID:            uuid.NewString(),
		UserID:        userID,
		PreviousLevel: nil,
		NewLevel:      state.Level,
		ChangedAt:     now,
		ChangedBy:     actorID,
	}
	if err := m.history.Append(ctx, entry); err != nil {
		// 状態は書き込み済み。履歴の欠落は次回遷移時のチェーン修復で補われる。
		return nil, false, fmt.Errorf("初期履歴の追記に失敗しました: %w", err)
	}

	return state, true, nil
}
