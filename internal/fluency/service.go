package fluency

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/lingua/internal/metrics"
	"github.com/hitoshi/lingua/internal/model"
	"github.com/hitoshi/lingua/internal/repository"
	"github.com/hitoshi/lingua/internal/security"
)

// CertificateStatus は遷移結果における証明書の発行状況を表す。
// 「降格のため発行対象外」と「発行を試みたが失敗した」を区別する。
type CertificateStatus string

const (
	// CertificateIssued は証明書が発行されたことを示す。
	CertificateIssued CertificateStatus = "issued"
	// CertificateIssueFailed は遷移は成功したが証明書発行に失敗したことを示す。
	CertificateIssueFailed CertificateStatus = "issue_failed"
	// CertificateNotApplicable は降格のため証明書が発行対象外であることを示す。
	CertificateNotApplicable CertificateStatus = "not_applicable"
)

// TransitionResult はレベル遷移の実行結果を表す。
type TransitionResult struct {
	State         *model.UserFluencyState
	PreviousLevel model.Level
	Direction     Direction
	// Certificate は昇格時に発行された証明書。
	// 降格時および発行失敗時はnil。区別はCertificateStatusで行う。
	Certificate       *model.Certificate
	CertificateStatus CertificateStatus
}

// CertificateIssuerService は証明書発行のインターフェース。
// Issuerの部分集合として定義する。
type CertificateIssuerService interface {
	Issue(ctx context.Context, userID, userName string, level model.Level, issuedBy string) (*model.Certificate, error)
}

// StateInitializer は初期付与・一括移行のインターフェース。
// Migratorの部分集合として定義する。
type StateInitializer interface {
	EnsureInitialized(ctx context.Context, userID string) (*model.UserFluencyState, error)
	BulkMigrate(ctx context.Context, actorID string) (*BulkMigrateResult, error)
}

// Service は習熟度状態の唯一の変更主体。
// 検証、状態の永続化、履歴の追記、昇格時の証明書発行をオーケストレーションする。
//
// 状態・履歴・証明書の3書き込みはストア上でアトミックではない。
// Serviceは内部リトライを行わず、部分的な書き込みを観測可能なまま残す。
// 書き込み間でプロセスが落ちた場合のチェーン不変条件の復元はrepairChainが担う。
type Service struct {
	users       repository.UserRepository
	states      repository.FluencyStateRepository
	history     repository.HistoryRepository
	certs       repository.CertificateRepository
	issuer      CertificateIssuerService
	initializer StateInitializer
	sanitizer   security.ReasonSanitizerService
	recorder    metrics.Recorder
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(
	users repository.UserRepository,
	states repository.FluencyStateRepository,
	history repository.HistoryRepository,
	certs repository.CertificateRepository,
	issuer CertificateIssuerService,
	initializer StateInitializer,
	sanitizer security.ReasonSanitizerService,
	recorder metrics.Recorder,
) *Service {
	return &Service{
		users:       users,
		states:      states,
		history:     history,
		certs:       certs,
		issuer:      issuer,
		initializer: initializer,
		sanitizer:   sanitizer,
		recorder:    recorder,
		now:         time.Now,
	}
}

// Transition はレベル遷移を実行する。
//
// 手順:
//  1. 特権チェック（管理者のみ）
//  2. 対象ユーザーの存在確認と状態のロード（未初期化なら初期付与）
//  3. チェーン修復（過去の部分書き込みの検出と補完）
//  4. 遷移の検証（未知レベル / 同一レベル / 飛び級の拒否）
//  5. 状態の保存 → 履歴の追記 → 昇格時のみ証明書発行
//
// 証明書発行の失敗は遷移をロールバックしない。レベル変更が主効果であり、
// 発行失敗はログに記録した上でCertificateIssueFailedとして結果に含める。
func (s *Service) Transition(ctx context.Context, actorID string, actorPrivileged bool, targetUserID, requestedCode, reason string) (*TransitionResult, error) {
	start := s.now()
	defer func() {
		if s.recorder != nil {
			s.recorder.RecordTransitionDuration(time.Since(start))
		}
	}()

	if !actorPrivileged {
		s.recordRejected(model.ErrCodeForbidden)
		return nil, model.NewForbiddenError()
	}

	user, err := s.users.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.recordRejected(model.ErrCodeUserNotFound)
		return nil, model.NewUserNotFoundError(targetUserID)
	}

	state, err := s.initializer.EnsureInitialized(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	if err := s.repairChain(ctx, state); err != nil {
		return nil, err
	}

	requested, ok := model.ParseLevel(requestedCode)
	if !ok {
		s.recordRejected(model.ErrCodeUnknownLevel)
		return nil, model.NewUnknownLevelError(requestedCode)
	}

	direction, err := ValidateTransition(state.Level, requested)
	if err != nil {
		if apiErr, isAPIErr := err.(*model.APIError); isAPIErr {
			s.recordRejected(apiErr.Code)
		}
		return nil, err
	}

	now := s.now().UTC()
	previous := state.Level

	newState := &model.UserFluencyState{
		UserID:         targetUserID,
		Level:          requested,
		LevelUpdatedAt: now,
		LevelUpdatedBy: actorID,
	}
	if err := s.states.Save(ctx, newState); err != nil {
		return nil, err
	}

	entry := &model.HistoryEntry{
		ID:            uuid.NewString(),
		UserID:        targetUserID,
		PreviousLevel: &previous,
		NewLevel:      requested,
		ChangedAt:     now,
		ChangedBy:     actorID,
		Reason:        s.sanitizeReason(reason),
	}
	if err := s.history.Append(ctx, entry); err != nil {
		// 状態は書き込み済みだが履歴が欠けた。エラーとして表面化させ、
		// 次回の遷移リクエストでrepairChainが補完する。
		slog.Error("履歴の追記に失敗しました",
			slog.String("user_id", targetUserID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordTransition(string(direction))
	}

	slog.Info("レベル遷移を実行しました",
		slog.String("user_id", targetUserID),
		slog.String("actor_id", actorID),
		slog.String("previous_level", string(previous)),
		slog.String("new_level", string(requested)),
		slog.String("direction", string(direction)),
	)

	result := &TransitionResult{
		State:             newState,
		PreviousLevel:     previous,
		Direction:         direction,
		CertificateStatus: CertificateNotApplicable,
	}

	if direction == DirectionUpgrade {
		cert, issueErr := s.issuer.Issue(ctx, targetUserID, user.Name, requested, actorID)
		if issueErr != nil {
			slog.Error("証明書の発行に失敗しました",
				slog.String("user_id", targetUserID),
				slog.String("level", string(requested)),
				slog.String("error", issueErr.Error()),
			)
			if s.recorder != nil {
				s.recorder.RecordCertificateIssueFailure()
			}
			result.CertificateStatus = CertificateIssueFailed
		} else {
			result.Certificate = cert
			result.CertificateStatus = CertificateIssued
			if s.recorder != nil {
				s.recorder.RecordCertificateIssued(string(requested))
			}
		}
	}

	return result, nil
}

// GetState は対象ユーザーの現在の習熟度状態を返す。
// 未初期化のレガシーユーザーはこの読み取りを契機に初期化される。
func (s *Service) GetState(ctx context.Context, userID string) (*model.UserFluencyState, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	return s.initializer.EnsureInitialized(ctx, userID)
}

// GetHistory は対象ユーザーのレベル変更履歴を新しい順で返す。
// 読み取りは純粋な射影であり、状態を変更しない。
func (s *Service) GetHistory(ctx context.Context, userID string) ([]*model.HistoryEntry, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	return s.history.ListByUserID(ctx, userID)
}

// ListCertificates は対象ユーザーの証明書を発行日時の古い順で返す。
func (s *Service) ListCertificates(ctx context.Context, userID string) ([]*model.Certificate, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	return s.certs.ListByUserID(ctx, userID)
}

// GetCertificate は指定IDの証明書を返す。
func (s *Service) GetCertificate(ctx context.Context, userID, certificateID string) (*model.Certificate, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}

	cert, err := s.certs.FindByID(ctx, userID, certificateID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, model.NewCertificateNotFoundError(certificateID)
	}
	return cert, nil
}

// BulkMigrate は管理者による一括移行を実行する。
func (s *Service) BulkMigrate(ctx context.Context, actorID string, actorPrivileged bool) (*BulkMigrateResult, error) {
	if !actorPrivileged {
		return nil, model.NewForbiddenError()
	}
	return s.initializer.BulkMigrate(ctx, actorID)
}

// repairChain は状態と履歴の不整合を検出して補完する。
//
// 状態の保存後・履歴の追記前にプロセスが落ちると、履歴の先頭が
// 状態のレベルと一致しなくなる。この場合、changedBy = system の
// 調整エントリを追記してチェーン不変条件を復元してから処理を続ける。
func (s *Service) repairChain(ctx context.Context, state *model.UserFluencyState) error {
	latest, err := s.history.Latest(ctx, state.UserID)
	if err != nil {
		return err
	}

	if latest != nil && latest.NewLevel == state.Level {
		return nil
	}

	entry := &model.HistoryEntry{
		ID:        uuid.NewString(),
		UserID:    state.UserID,
		NewLevel:  state.Level,
		ChangedAt: state.LevelUpdatedAt,
		ChangedBy: model.SystemActor,
	}
	if latest != nil {
		prev := latest.NewLevel
		entry.PreviousLevel = &prev
	}

	slog.Warn("履歴チェーンの欠落を検出したため修復します",
		slog.String("user_id", state.UserID),
		slog.String("state_level", string(state.Level)),
	)

	return s.history.Append(ctx, entry)
}

// sanitizeReason は理由テキストをサニタイズする。sanitizer未設定時は空白除去のみ。
func (s *Service) sanitizeReason(reason string) string {
	if s.sanitizer == nil {
		return strings.TrimSpace(reason)
	}
	return s.sanitizer.Sanitize(reason)
}

// recordRejected は拒否された遷移をメトリクスに記録する。
func (s *Service) recordRejected(code string) {
	if s.recorder != nil {
		s.recorder.RecordTransitionRejected(code)
	}
}
