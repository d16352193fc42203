// Package fluency は習熟度レベルの遷移と証明書発行のドメインロジックを提供する。
package fluency

import "github.com/hitoshi/lingua/internal/model"

// Direction は遷移の方向を表す。
type Direction string

const (
	// DirectionUpgrade は1段階上への遷移。証明書発行の対象。
	DirectionUpgrade Direction = "upgrade"
	// DirectionDowngrade は1段階下への遷移。証明書は発行されない。
	DirectionDowngrade Direction = "downgrade"
)

// ValidateTransition は要求された遷移が正当かを判定する純粋関数。
//
// 判定は次の順序で行う:
//  1. 両レベルが閉じた集合に含まれない場合はUNKNOWN_LEVEL
//  2. 現在と同一レベルへの要求はNOOP_TRANSITION
//  3. インデックス差の絶対値が1でない場合はSKIPPED_LEVEL
//  4. それ以外は方向（昇格/降格）を返す
//
// 「1段階ずつ」の制約を迂回する設定は存在しない。複数段階の変更が
// 必要な場合は、単一段階の遷移を順に実行すること。
func ValidateTransition(current, requested model.Level) (Direction, error) {
	if !current.IsValid() {
		return "", model.NewUnknownLevelError(string(current))
	}
	if !requested.IsValid() {
		return "", model.NewUnknownLevelError(string(requested))
	}

	if requested == current {
		return "", model.NewNoOpTransitionError(current)
	}

	diff := requested.Index() - current.Index()
	if diff != 1 && diff != -1 {
		return "", model.NewSkippedLevelError(current, requested)
	}

	if diff > 0 {
		return DirectionUpgrade, nil
	}
	return DirectionDowngrade, nil
}
