// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す。
type Role string

const (
	// RoleLearner は一般の学習者。
	RoleLearner Role = "learner"
	// RoleAdmin は管理者。レベル遷移と一括移行を実行できる。
	RoleAdmin Role = "admin"
)

// Privileged はレベル遷移などの特権操作が許可される役割かを返す。
func (r Role) Privileged() bool {
	return r == RoleAdmin
}

// User はサービス利用ユーザーを表す。
// プロフィールのCRUDは別システムの責務であり、
// 本サブシステムは存在確認・表示名・役割の参照と全件走査のみを行う。
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Session はベアラートークンとユーザーの紐付けを表す。
// トークンの発行・失効は外部の認証基盤の責務。
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
