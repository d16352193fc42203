package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lingua/internal/fluency"
	"github.com/hitoshi/lingua/internal/middleware"
	"github.com/hitoshi/lingua/internal/model"
)

// FluencyServiceInterface は習熟度ハンドラーが必要とするサービスインターフェース。
type FluencyServiceInterface interface {
	// GetState は対象ユーザーの現在の習熟度状態を返す。
	// 未初期化のレガシーユーザーは読み取りを契機に初期化される。
	GetState(ctx context.Context, userID string) (*model.UserFluencyState, error)
	// Transition はレベル遷移を実行する。管理者のみ。
	Transition(ctx context.Context, actorID string, actorPrivileged bool, targetUserID, requestedCode, reason string) (*fluency.TransitionResult, error)
	// GetHistory はレベル変更履歴を新しい順で返す。
	GetHistory(ctx context.Context, userID string) ([]*model.HistoryEntry, error)
}

// FluencyHandler は習熟度状態と履歴のHTTPハンドラー。
type FluencyHandler struct {
	service FluencyServiceInterface
}

// NewFluencyHandler はFluencyHandlerを生成する。
func NewFluencyHandler(service FluencyServiceInterface) *FluencyHandler {
	return &FluencyHandler{
		service: service,
	}
}

// fluencyStateResponse は習熟度状態のAPIレスポンス。
type fluencyStateResponse struct {
	UserID         string                `json:"userId"`
	Level          string                `json:"level"`
	LevelUpdatedAt time.Time             `json:"levelUpdatedAt"`
	LevelUpdatedBy string                `json:"levelUpdatedBy"`
	Metadata       levelMetadataResponse `json:"metadata"`
}

// transitionRequest はレベル遷移リクエストのボディ。
type transitionRequest struct {
	NewLevel string `json:"newLevel"`
	Reason   string `json:"reason"`
}

// transitionResponse はレベル遷移のAPIレスポンス。
type transitionResponse struct {
	Success           bool                  `json:"success"`
	UserID            string                `json:"userId"`
	PreviousLevel     string                `json:"previousLevel"`
	NewLevel          string                `json:"newLevel"`
	LevelUpdatedAt    time.Time             `json:"levelUpdatedAt"`
	LevelUpdatedBy    string                `json:"levelUpdatedBy"`
	Metadata          levelMetadataResponse `json:"metadata"`
	Certificate       *certificateResponse  `json:"certificate"`
	CertificateStatus string                `json:"certificateStatus"`
}

// historyEntryResponse は履歴エントリのAPIレスポンス。
type historyEntryResponse struct {
	ID            string    `json:"id"`
	PreviousLevel *string   `json:"previousLevel"`
	NewLevel      string    `json:"newLevel"`
	ChangedAt     time.Time `json:"changedAt"`
	ChangedBy     string    `json:"changedBy"`
	Reason        string    `json:"reason,omitempty"`
}

// historyResponse は履歴一覧のAPIレスポンス。
type historyResponse struct {
	UserID  string                 `json:"userId"`
	History []historyEntryResponse `json:"history"`
}

// GetState は対象ユーザーの現在の習熟度状態を返す。
// GET /api/fluency/{userId}
func (h *FluencyHandler) GetState(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	state, err := h.service.GetState(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, fluencyStateResponse{
		UserID:         state.UserID,
		Level:          string(state.Level),
		LevelUpdatedAt: state.LevelUpdatedAt,
		LevelUpdatedBy: state.LevelUpdatedBy,
		Metadata:       toLevelMetadataResponse(state.Level.Metadata()),
	})
}

// Transition はレベル遷移を実行する。
// PATCH /api/fluency/{userId}
func (h *FluencyHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	userID := chi.URLParam(r, "userId")

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディのJSONが不正です"))
		return
	}
	if req.NewLevel == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("newLevelは必須です"))
		return
	}

	result, err := h.service.Transition(r.Context(), actor.ID, actor.Privileged, userID, req.NewLevel, req.Reason)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := transitionResponse{
		Success:           true,
		UserID:            result.State.UserID,
		PreviousLevel:     string(result.PreviousLevel),
		NewLevel:          string(result.State.Level),
		LevelUpdatedAt:    result.State.LevelUpdatedAt,
		LevelUpdatedBy:    result.State.LevelUpdatedBy,
		Metadata:          toLevelMetadataResponse(result.State.Level.Metadata()),
		CertificateStatus: string(result.CertificateStatus),
	}
	if result.Certificate != nil {
		cert := toCertificateResponse(result.Certificate)
		resp.Certificate = &cert
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// GetHistory は対象ユーザーのレベル変更履歴を新しい順で返す。
// GET /api/fluency/history/{userId}
func (h *FluencyHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	entries, err := h.service.GetHistory(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	history := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		entry := historyEntryResponse{
			ID:        e.ID,
			NewLevel:  string(e.NewLevel),
			ChangedAt: e.ChangedAt,
			ChangedBy: e.ChangedBy,
			Reason:    e.Reason,
		}
		if e.PreviousLevel != nil {
			prev := string(*e.PreviousLevel)
			entry.PreviousLevel = &prev
		}
		history[i] = entry
	}

	writeJSONResponse(w, http.StatusOK, historyResponse{
		UserID:  userID,
		History: history,
	})
}
