// Package kv は抽象キーバリューストアのインターフェースと実装を提供する。
//
// 本サブシステムはストレージエンジンをget/set/delete/プレフィックス走査の
// 抽象KVストアとして消費する。複数キーにまたがるトランザクションは前提と
// しないため、正しさが求められる操作はIncrByのアトミック性のみに依存する。
package kv

import (
	"context"
	"errors"
)

// ErrNotFound はキーが存在しない場合にGetが返すエラー。
var ErrNotFound = errors.New("kv: key not found")

// Entry はキーと値のペアを表す。
type Entry struct {
	Key   string
	Value []byte
}

// Store はキーバリューストアの抽象インターフェース。
// 全メソッドは複数ゴルーチンから並行に呼び出されても安全であること。
type Store interface {
	// Get はキーに対応する値を返す。存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, key string) ([]byte, error)

	// Set はキーに値を書き込む。既存の値は上書きされる。
	Set(ctx context.Context, key string, value []byte) error

	// Delete はキーを削除する。存在しないキーの削除はエラーにならない。
	Delete(ctx context.Context, key string) error

	// List は指定プレフィックスを持つ全エントリをキー昇順で返す。
	List(ctx context.Context, prefix string) ([]Entry, error)

	// IncrBy はキーの整数値をdeltaだけアトミックに増加させ、増加後の値を返す。
	// キーが存在しない場合は0として扱う。
	// read-increment-writeの競合を防ぐため、必ずストア側で直列化されること。
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)

	// Ping はストアへの接続性を確認する。ヘルスチェック用。
	Ping(ctx context.Context) error

	// Close はストアへの接続を解放する。
	Close() error
}
