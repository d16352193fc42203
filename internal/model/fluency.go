// Package model はドメインモデルを定義する。
package model

import "time"

// SystemActor はシステム起因の変更を示すアクターID。
// アカウント作成時の初期付与やチェーン修復で使用する。
const SystemActor = "system"

// UserFluencyState はユーザーの現在の習熟度状態を表す。
// ユーザーごとに1件。遷移実行またはバックフィル移行によってのみ更新される。
type UserFluencyState struct {
	UserID         string    `json:"user_id"`
	Level          Level     `json:"level"`
	LevelUpdatedAt time.Time `json:"level_updated_at"`
	// LevelUpdatedBy は変更を行ったアクターのID。
	// システム起因の変更の場合はSystemActor。
	LevelUpdatedBy string `json:"level_updated_by"`
}

// HistoryEntry はレベル変更の監査履歴エントリを表す。一度書き込まれたら不変。
//
// 同一ユーザーのエントリをSeq順に並べたとき、
// entry[i].NewLevel == entry[i+1].PreviousLevel のチェーンを成し、
// 最古のエントリのみ PreviousLevel が nil となる。
type HistoryEntry struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	// PreviousLevel は変更前のレベル。初回付与のエントリのみnil。
	PreviousLevel *Level    `json:"previous_level"`
	NewLevel      Level     `json:"new_level"`
	ChangedAt     time.Time `json:"changed_at"`
	ChangedBy     string    `json:"changed_by"`
	Reason        string    `json:"reason,omitempty"`
	// Seq はユーザーごとの挿入順序。タイムスタンプが衝突しても順序は安定する。
	Seq int64 `json:"seq"`
}

// Certificate は昇格時に発行される証明書を表す。一度発行されたら不変。
// CertificateNumber はグローバルに一意で、(発行年, レベル) ごとに単調増加する。
type Certificate struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	UserName          string    `json:"user_name"`
	Level             Level     `json:"level"`
	IssuedAt          time.Time `json:"issued_at"`
	IssuedBy          string    `json:"issued_by"`
	CertificateNumber string    `json:"certificate_number"`
}
