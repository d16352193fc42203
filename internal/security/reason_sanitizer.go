// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ReasonSanitizerService はレベル遷移リクエストに添えられる自由記述の
// 理由テキストをサニタイズし、監査履歴への格納時にXSSなどのリスクを排除する。
// bluemondayのStrictPolicyを使用し、HTMLタグを一切許可しない。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxReasonLength は理由テキストの最大長（rune数）。超過分は切り詰める。
const maxReasonLength = 500

// ReasonSanitizerService は理由テキストのサニタイズ機能のインターフェースを定義する。
// 履歴エントリへの保存前に使用される。
type ReasonSanitizerService interface {
	// Sanitize は理由テキストからHTMLタグを全て除去し、
	// 前後の空白を取り除いた上で最大長に切り詰めて返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// reasonSanitizer はReasonSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type reasonSanitizer struct {
	policy *bluemonday.Policy
}

// NewReasonSanitizer はReasonSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのHTML要素と属性を除去する。
func NewReasonSanitizer() *reasonSanitizer {
	return &reasonSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は理由テキストをサニタイズして返す。
func (s *reasonSanitizer) Sanitize(raw string) string {
	cleaned := strings.TrimSpace(s.policy.Sanitize(raw))

	runes := []rune(cleaned)
	if len(runes) > maxReasonLength {
		cleaned = string(runes[:maxReasonLength])
	}
	return cleaned
}
