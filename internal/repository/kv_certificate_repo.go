package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/hitoshi/lingua/internal/kv"
	"github.com/hitoshi/lingua/internal/model"
)

// KVCertificateRepo はKVストアを使用した証明書リポジトリ。
// 証明書は発行後に更新・削除されない。
type KVCertificateRepo struct {
	store kv.Store
}

// NewKVCertificateRepo はKVCertificateRepoを生成する。
func NewKVCertificateRepo(store kv.Store) *KVCertificateRepo {
	return &KVCertificateRepo{store: store}
}

// Save は証明書を書き込む。
func (r *KVCertificateRepo) Save(ctx context.Context, cert *model.Certificate) error {
	data, err := json.Marshal(cert)
	if err != nil {
		return fmt.Errorf("failed to marshal certificate: %w", err)
	}
	if err := r.store.Set(ctx, certKey(cert.UserID, cert.ID), data); err != nil {
		return fmt.Errorf("failed to save certificate: %w", err)
	}
	return nil
}

// FindByID はユーザーIDと証明書IDで証明書を取得する。見つからない場合はnilを返す。
func (r *KVCertificateRepo) FindByID(ctx context.Context, userID, certificateID string) (*model.Certificate, error) {
	data, err := r.store.Get(ctx, certKey(userID, certificateID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find certificate: %w", err)
	}

	cert := &model.Certificate{}
	if err := json.Unmarshal(data, cert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal certificate: %w", err)
	}
	return cert, nil
}

// ListByUserID は指定ユーザーの全証明書を発行日時の古い順で返す。
// 発行日時が同一の場合は証明書番号順で安定させる。
func (r *KVCertificateRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Certificate, error) {
	entries, err := r.store.List(ctx, certUserPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}

	certs := make([]*model.Certificate, 0, len(entries))
	for _, e := range entries {
		cert := &model.Certificate{}
		if err := json.Unmarshal(e.Value, cert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	sort.SliceStable(certs, func(i, j int) bool {
		if certs[i].IssuedAt.Equal(certs[j].IssuedAt) {
			return certs[i].CertificateNumber < certs[j].CertificateNumber
		}
		return certs[i].IssuedAt.Before(certs[j].IssuedAt)
	})
	return certs, nil
}

// compile-time interface check
var _ CertificateRepository = (*KVCertificateRepo)(nil)
