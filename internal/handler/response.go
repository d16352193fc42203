// Package handler はHTTP APIハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/lingua/internal/model"
)

// apiErrorResponse はAPIエラーレスポンスの統一フォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// levelMetadataResponse はレベルの表示用メタデータのAPIレスポンス。
type levelMetadataResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// certificateResponse は証明書のAPIレスポンス。
type certificateResponse struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	UserName          string    `json:"userName"`
	Level             string    `json:"level"`
	IssuedAt          time.Time `json:"issuedAt"`
	IssuedBy          string    `json:"issuedBy"`
	CertificateNumber string    `json:"certificateNumber"`
}

// toLevelMetadataResponse はmodel.LevelMetadataからAPIレスポンスに変換する。
func toLevelMetadataResponse(meta model.LevelMetadata) levelMetadataResponse {
	return levelMetadataResponse{
		Code:        string(meta.Code),
		Name:        meta.Name,
		Description: meta.Description,
		Color:       meta.Color,
		Icon:        meta.Icon,
	}
}

// toCertificateResponse はmodel.CertificateからAPIレスポンスに変換する。
func toCertificateResponse(cert *model.Certificate) certificateResponse {
	return certificateResponse{
		ID:                cert.ID,
		UserID:            cert.UserID,
		UserName:          cert.UserName,
		Level:             string(cert.Level),
		IssuedAt:          cert.IssuedAt,
		IssuedBy:          cert.IssuedBy,
		CertificateNumber: cert.CertificateNumber,
	}
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSONResponse(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodeCertificateNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnknownLevel, model.ErrCodeNoOpTransition, model.ErrCodeSkippedLevel, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
