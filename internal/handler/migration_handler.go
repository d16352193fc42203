package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/lingua/internal/fluency"
	"github.com/hitoshi/lingua/internal/middleware"
	"github.com/hitoshi/lingua/internal/model"
)

// MigrationServiceInterface は一括移行ハンドラーが必要とするサービスインターフェース。
type MigrationServiceInterface interface {
	// BulkMigrate は習熟度状態を持たない全ユーザーに初期レベルを付与する。管理者のみ。
	BulkMigrate(ctx context.Context, actorID string, actorPrivileged bool) (*fluency.BulkMigrateResult, error)
}

// MigrationHandler は一括移行のHTTPハンドラー。
type MigrationHandler struct {
	service MigrationServiceInterface
}

// NewMigrationHandler はMigrationHandlerを生成する。
func NewMigrationHandler(service MigrationServiceInterface) *MigrationHandler {
	return &MigrationHandler{
		service: service,
	}
}

// bulkMigrateResponse は一括移行のAPIレスポンス。
type bulkMigrateResponse struct {
	Success       bool `json:"success"`
	MigratedCount int  `json:"migratedCount"`
	SkippedCount  int  `json:"skippedCount"`
}

// BulkMigrate は一括移行を実行する。
// POST /api/migrate-fluency-levels
func (h *MigrationHandler) BulkMigrate(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	result, err := h.service.BulkMigrate(r.Context(), actor.ID, actor.Privileged)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, bulkMigrateResponse{
		Success:       true,
		MigratedCount: result.MigratedCount,
		SkippedCount:  result.SkippedCount,
	})
}
