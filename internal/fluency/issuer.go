package fluency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/lingua/internal/model"
	"github.com/hitoshi/lingua/internal/repository"
)

// NumberAllocator は証明書番号の採番インターフェース。
// Numbererの部分集合として定義する。
type NumberAllocator interface {
	Allocate(ctx context.Context, level model.Level) (string, error)
}

// Issuer は証明書を構築して永続化する。
//
// 昇格・降格の判定はIssuerの責務ではない。降格や同一レベルへの
// 要求に対して呼び出さないのは呼び出し側（Service）の責務。
type Issuer struct {
	certs    repository.CertificateRepository
	numberer NumberAllocator
	now      func() time.Time
}

// NewIssuer はIssuerを生成する。
func NewIssuer(certs repository.CertificateRepository, numberer NumberAllocator) *Issuer {
	return &Issuer{
		certs:    certs,
		numberer: numberer,
		now:      time.Now,
	}
}

// Issue は証明書番号を採番し、新しい一意なIDで証明書を構築・永続化して返す。
func (i *Issuer) Issue(ctx context.Context, userID, userName string, level model.Level, issuedBy string) (*model.Certificate, error) {
	number, err := i.numberer.Allocate(ctx, level)
	if err != nil {
		return nil, err
	}

	cert := &model.Certificate{
		ID:                uuid.NewString(),
		UserID:            userID,
		UserName:          userName,
		Level:             level,
		IssuedAt:          i.now().UTC(),
		IssuedBy:          issuedBy,
		CertificateNumber: number,
	}

	if err := i.certs.Save(ctx, cert); err != nil {
		return nil, fmt.Errorf("証明書の保存に失敗しました: %w", err)
	}
	return cert, nil
}
