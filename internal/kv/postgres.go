package kv

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PostgresStore はPostgreSQLをバックエンドとするKVストア。
// エントリはkv_entriesテーブル、カウンタはkv_countersテーブルに保持する。
// IncrByはINSERT ... ON CONFLICT ... RETURNINGの単一文で実行され、
// 行ロックにより同一キーへの並行インクリメントが直列化される。
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore はPostgresStoreを生成する。
// スキーマはinternal/databaseのマイグレーションで作成済みであること。
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get はキーに対応する値を返す。存在しない場合はErrNotFoundを返す。
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = $1`,
		key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Set はキーに値をUPSERTで書き込む。
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete はキーを削除する。存在しないキーの削除はエラーにならない。
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE key = $1`,
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// List は指定プレフィックスを持つ全エントリをキー昇順で返す。
func (s *PostgresStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM kv_entries WHERE key LIKE $1 ESCAPE '\' ORDER BY key`,
		escapeLikePrefix(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

// IncrBy はキーの整数値をdeltaだけアトミックに増加させ、増加後の値を返す。
func (s *PostgresStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO kv_counters (key, value)
		 VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = kv_counters.value + EXCLUDED.value
		 RETURNING value`,
		key, delta,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to increment key %s: %w", key, err)
	}
	return value, nil
}

// Ping はデータベースへの接続性を確認する。
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close はデータベース接続を閉じる。
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// escapeLikePrefix はLIKEパターンのメタ文字をエスケープする。
func escapeLikePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix)
}

// compile-time interface check
var _ Store = (*PostgresStore)(nil)
