package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lingua/internal/model"
)

// CertificateServiceInterface は証明書ハンドラーが必要とするサービスインターフェース。
type CertificateServiceInterface interface {
	// ListCertificates は対象ユーザーの証明書を発行日時の古い順で返す。
	ListCertificates(ctx context.Context, userID string) ([]*model.Certificate, error)
	// GetCertificate は指定IDの証明書を返す。
	GetCertificate(ctx context.Context, userID, certificateID string) (*model.Certificate, error)
}

// CertificateHandler は証明書のHTTPハンドラー。
type CertificateHandler struct {
	service CertificateServiceInterface
}

// NewCertificateHandler はCertificateHandlerを生成する。
func NewCertificateHandler(service CertificateServiceInterface) *CertificateHandler {
	return &CertificateHandler{
		service: service,
	}
}

// certificateListResponse は証明書一覧のAPIレスポンス。
type certificateListResponse struct {
	UserID       string                `json:"userId"`
	Certificates []certificateResponse `json:"certificates"`
}

// certificateDetailResponse は証明書詳細のAPIレスポンス。
type certificateDetailResponse struct {
	Certificate certificateResponse `json:"certificate"`
}

// ListCertificates は対象ユーザーの証明書一覧を古い順で返す。
// GET /api/certificates/{userId}
func (h *CertificateHandler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	certs, err := h.service.ListCertificates(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]certificateResponse, len(certs))
	for i, cert := range certs {
		results[i] = toCertificateResponse(cert)
	}

	writeJSONResponse(w, http.StatusOK, certificateListResponse{
		UserID:       userID,
		Certificates: results,
	})
}

// GetCertificate は指定IDの証明書を返す。
// GET /api/certificates/{userId}/{certificateId}
func (h *CertificateHandler) GetCertificate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	certificateID := chi.URLParam(r, "certificateId")

	cert, err := h.service.GetCertificate(r.Context(), userID, certificateID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, certificateDetailResponse{
		Certificate: toCertificateResponse(cert),
	})
}
