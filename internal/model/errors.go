// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, fluency, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeCertificateNotFound = "CERTIFICATE_NOT_FOUND"
	ErrCodeUnknownLevel        = "UNKNOWN_LEVEL"
	ErrCodeNoOpTransition      = "NOOP_TRANSITION"
	ErrCodeSkippedLevel        = "SKIPPED_LEVEL"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "有効なトークンを指定してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作には管理者権限が必要です。",
		Category: "auth",
		Action:   "管理者アカウントで実行してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "fluency",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewCertificateNotFoundError は証明書が見つからない場合のエラーを生成する。
func NewCertificateNotFoundError(certificateID string) *APIError {
	return &APIError{
		Code:     ErrCodeCertificateNotFound,
		Message:  fmt.Sprintf("指定された証明書が見つかりません: %s", certificateID),
		Category: "fluency",
		Action:   "証明書IDを確認してください。",
	}
}

// NewUnknownLevelError は未知のレベルコードが指定された場合のエラーを生成する。
func NewUnknownLevelError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownLevel,
		Message:  fmt.Sprintf("未知のレベルコードです: %s", code),
		Category: "validation",
		Action:   "レベルには A1、A2、B1、B2、C1 のいずれかを指定してください。",
	}
}

// NewNoOpTransitionError は現在と同一レベルへの遷移が要求された場合のエラーを生成する。
func NewNoOpTransitionError(level Level) *APIError {
	return &APIError{
		Code:     ErrCodeNoOpTransition,
		Message:  fmt.Sprintf("ユーザーは既にレベル %s です。", level),
		Category: "validation",
		Action:   "現在と異なる隣接レベルを指定してください。",
	}
}

// NewSkippedLevelError はレベルを飛ばした遷移が要求された場合のエラーを生成する。
func NewSkippedLevelError(current, requested Level) *APIError {
	return &APIError{
		Code:     ErrCodeSkippedLevel,
		Message:  fmt.Sprintf("レベルは1段階ずつしか変更できません: %s → %s", current, requested),
		Category: "validation",
		Action:   "現在のレベルに隣接するレベルを指定してください。",
	}
}

// NewInvalidRequestError はリクエスト形式の不備エラーを生成する。
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
