package fluency

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/lingua/internal/model"
	"github.com/hitoshi/lingua/internal/repository"
)

// CertificateNumberPrefix は証明書番号の先頭に付く固定プレフィックス。
const CertificateNumberPrefix = "DLA"

// Numberer は証明書番号を採番する。
// 番号は PREFIX-YEAR-LEVEL-NNNNNN 形式で、NNNNNNは(年, レベル)ごとに
// 単調増加するゼロ埋め6桁の整数。
//
// 採番はCounterRepositoryのアトミックなfetch-and-addに委譲するため、
// 同一(年, レベル)への並行昇格でも番号が重複することはない。
type Numberer struct {
	counters repository.CounterRepository
	now      func() time.Time
}

// NewNumberer はNumbererを生成する。
func NewNumberer(counters repository.CounterRepository) *Numberer {
	return &Numberer{
		counters: counters,
		now:      time.Now,
	}
}

// Allocate は呼び出し時点の暦年（UTC）にスコープされた証明書番号を採番する。
func (n *Numberer) Allocate(ctx context.Context, level model.Level) (string, error) {
	year := n.now().UTC().Year()

	seq, err := n.counters.NextCertificateSeq(ctx, year, level)
	if err != nil {
		return "", fmt.Errorf("証明書番号の採番に失敗しました: %w", err)
	}

	return FormatCertificateNumber(year, level, seq), nil
}

// FormatCertificateNumber は証明書番号をワイヤフォーマットで整形する。
func FormatCertificateNumber(year int, level model.Level, seq int64) string {
	return fmt.Sprintf("%s-%04d-%s-%06d", CertificateNumberPrefix, year, level, seq)
}
