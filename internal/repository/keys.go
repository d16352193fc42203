package repository

import (
	"fmt"

	"github.com/hitoshi/lingua/internal/model"
)

// キープレフィックスの定義。キースキーム全体はパッケージコメントを参照。
const (
	userKeyPrefix    = "user:"
	sessionKeyPrefix = "session:"
	stateKeyPrefix   = "fluency:state:"
	historySeqPrefix = "fluency:seq:"
	historyKeyPrefix = "fluency:history:"
	certKeyPrefix    = "cert:"
	certCounterKey   = "counter:cert:"
)

func userKey(userID string) string {
	return userKeyPrefix + userID
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func stateKey(userID string) string {
	return stateKeyPrefix + userID
}

func historySeqKey(userID string) string {
	return historySeqPrefix + userID
}

// historyKey はシーケンス番号をゼロ埋め12桁で埋め込む。
// キーの辞書順がそのまま挿入順となる。
func historyKey(userID string, seq int64) string {
	return fmt.Sprintf("%s%s:%012d", historyKeyPrefix, userID, seq)
}

func historyUserPrefix(userID string) string {
	return historyKeyPrefix + userID + ":"
}

func certKey(userID, certificateID string) string {
	return fmt.Sprintf("%s%s:%s", certKeyPrefix, userID, certificateID)
}

func certUserPrefix(userID string) string {
	return certKeyPrefix + userID + ":"
}

func certCounter(year int, level model.Level) string {
	return fmt.Sprintf("%s%04d:%s", certCounterKey, year, level)
}
