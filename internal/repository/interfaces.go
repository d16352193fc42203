// Package repository はデータ永続化のインターフェースを定義する。
//
// 全実装は抽象KVストア（internal/kv.Store）の上に構築される。
// キースキーム:
//
//	user:{userId}                        ユーザーレコード
//	session:{token}                      セッション（認証グルー）
//	fluency:state:{userId}               習熟度状態
//	fluency:seq:{userId}                 履歴シーケンス（アトミックカウンタ）
//	fluency:history:{userId}:{seq:012d}  履歴エントリ
//	cert:{userId}:{certId}               証明書
//	counter:cert:{year}:{level}          証明書番号カウンタ（アトミックカウンタ）
package repository

import (
	"context"

	"github.com/hitoshi/lingua/internal/model"
)

// UserRepository はユーザーデータの参照インターフェース。
// ユーザーのCRUD自体は外部システムの責務のため、参照系と
// テスト・シード用のCreateのみを提供する。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。テストおよびシード用。
	Create(ctx context.Context, user *model.User) error

	// ListIDs は全ユーザーのIDを返す。一括移行のスイープで使用する。
	ListIDs(ctx context.Context) ([]string, error)
}

// SessionRepository はベアラートークンとユーザーの紐付けの参照インターフェース。
type SessionRepository interface {
	// FindByToken は指定トークンのセッションを取得する。
	// 見つからない場合、または期限切れの場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.Session, error)

	// Create はセッションを作成する。テストおよびシード用。
	Create(ctx context.Context, session *model.Session) error
}

// FluencyStateRepository は習熟度状態の永続化インターフェース。
type FluencyStateRepository interface {
	// FindByUserID は指定ユーザーの習熟度状態を取得する。
	// 未初期化の場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.UserFluencyState, error)

	// Save は習熟度状態を書き込む。既存の状態は上書きされる。
	Save(ctx context.Context, state *model.UserFluencyState) error
}

// HistoryRepository はレベル変更履歴の追記専用インターフェース。
// エントリは更新・削除されない。
type HistoryRepository interface {
	// Append は履歴エントリを追記する。
	// ユーザーごとのシーケンス番号をアトミックに採番してentry.Seqに設定する。
	Append(ctx context.Context, entry *model.HistoryEntry) error

	// ListByUserID は指定ユーザーの全履歴エントリを新しい順で返す。
	// タイムスタンプが衝突した場合も挿入順（シーケンス順）で安定する。
	ListByUserID(ctx context.Context, userID string) ([]*model.HistoryEntry, error)

	// Latest は指定ユーザーの最新の履歴エントリを返す。履歴がない場合はnilを返す。
	Latest(ctx context.Context, userID string) (*model.HistoryEntry, error)
}

// CertificateRepository は証明書の永続化インターフェース。
// 証明書は発行後に更新・削除されない。
type CertificateRepository interface {
	// Save は証明書を書き込む。
	Save(ctx context.Context, cert *model.Certificate) error

	// FindByID はユーザーIDと証明書IDで証明書を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, certificateID string) (*model.Certificate, error)

	// ListByUserID は指定ユーザーの全証明書を発行日時の古い順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Certificate, error)
}

// CounterRepository は証明書番号カウンタの採番インターフェース。
type CounterRepository interface {
	// NextCertificateSeq は(年, レベル)ごとのカウンタをアトミックに1増加させ、
	// 増加後の値を返す。並行呼び出しでも重複した値を返してはならない。
	NextCertificateSeq(ctx context.Context, year int, level model.Level) (int64, error)
}
