package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/lingua/internal/metrics"
	"github.com/hitoshi/lingua/internal/middleware"
)

// Pinger はストアの疎通確認インターフェース。kv.Storeの部分集合として定義する。
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenResolver     middleware.TokenResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ドメインサービス
	FluencyService     FluencyServiceInterface
	CertificateService CertificateServiceInterface
	MigrationService   MigrationServiceInterface

	// 運用エンドポイント
	Store    Pinger
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Auth → Logging → RateLimit(General)
//
// LoggingはAuthの内側に置く。アクセスログにactor_idを含めるため。
// /health と /metrics はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())

	fluencyHandler := NewFluencyHandler(deps.FluencyService)
	certHandler := NewCertificateHandler(deps.CertificateService)
	migrationHandler := NewMigrationHandler(deps.MigrationService)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.Store))

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → Logging → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenResolver))
		r.Use(middleware.NewLoggingMiddleware(slog.Default()))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 習熟度状態と履歴
		r.Route("/api/fluency", func(r chi.Router) {
			r.Get("/history/{userId}", fluencyHandler.GetHistory)

			r.Route("/{userId}", func(r chi.Router) {
				r.Get("/", fluencyHandler.GetState)
				// PATCH /api/fluency/{userId} - レベル遷移（状態変更系レート制限を追加）
				r.With(deps.RateLimiter.MutationMiddleware()).Patch("/", fluencyHandler.Transition)
			})
		})

		// 証明書
		r.Route("/api/certificates/{userId}", func(r chi.Router) {
			r.Get("/", certHandler.ListCertificates)
			r.Get("/{certificateId}", certHandler.GetCertificate)
		})

		// 一括移行（状態変更系レート制限を追加）
		r.With(deps.RateLimiter.MutationMiddleware()).
			Post("/api/migrate-fluency-levels", migrationHandler.BulkMigrate)
	})

	return r
}

// healthHandler はストアの疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				status = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
