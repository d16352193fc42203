package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/lingua/internal/auth"
	"github.com/hitoshi/lingua/internal/config"
	"github.com/hitoshi/lingua/internal/database"
	"github.com/hitoshi/lingua/internal/fluency"
	"github.com/hitoshi/lingua/internal/handler"
	"github.com/hitoshi/lingua/internal/kv"
	"github.com/hitoshi/lingua/internal/logger"
	"github.com/hitoshi/lingua/internal/metrics"
	"github.com/hitoshi/lingua/internal/middleware"
	"github.com/hitoshi/lingua/internal/model"
	"github.com/hitoshi/lingua/internal/repository"
	"github.com/hitoshi/lingua/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("store_backend", cfg.StoreBackend),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// openStore は設定されたバックエンドのKVストアを開き、接続を確認する。
func openStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		store := kv.NewPostgresStore(db)
		if err := store.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return store, nil

	case config.StoreRedis:
		store, err := kv.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store, nil

	case config.StoreMemory:
		return kv.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.StoreBackend)
	}
}

// runServe はAPIサーバーモードで起動する。
// KVストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. ストア接続
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	slog.Info("store connection established",
		slog.String("backend", cfg.StoreBackend),
	)

	// 2. リポジトリの初期化
	userRepo := repository.NewKVUserRepo(store)
	sessionRepo := repository.NewKVSessionRepo(store)
	stateRepo := repository.NewKVFluencyStateRepo(store)
	historyRepo := repository.NewKVHistoryRepo(store)
	certRepo := repository.NewKVCertificateRepo(store)
	counterRepo := repository.NewKVCounterRepo(store)

	// 3. メトリクスの初期化
	reg := prometheus.NewRegistry()
	recorder := metrics.NewCollector(reg)

	// 4. ドメインサービスの初期化
	numberer := fluency.NewNumberer(counterRepo)
	issuer := fluency.NewIssuer(certRepo, numberer)
	migrator := fluency.NewMigrator(userRepo, stateRepo, historyRepo, recorder)
	fluencyService := fluency.NewService(
		userRepo, stateRepo, historyRepo, certRepo,
		issuer, migrator, security.NewReasonSanitizer(), recorder,
	)

	authService := auth.NewService(sessionRepo, userRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)

	// 5. レート制限の初期化（configはreq/min単位、rate.Limitはreq/sec単位）
	rlCfg := middleware.DefaultRateLimiterConfig()
	rlCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rlCfg.GeneralBurst = cfg.RateLimitGeneral
	rlCfg.MutationRate = rate.Limit(float64(cfg.RateLimitMutation) / 60.0)
	rlCfg.MutationBurst = cfg.RateLimitMutation
	rateLimiter := middleware.NewRateLimiter(rlCfg)
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		TokenResolver:      authService,
		CORSAllowedOrigin:  cfg.CORSAllowedOrigin,
		RateLimiter:        rateLimiter,
		FluencyService:     fluencyService,
		CertificateService: fluencyService,
		MigrationService:   fluencyService,
		Store:              store,
		Gatherer:           reg,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
// スキーマを持つのはpostgresバックエンドのみ。
func runMigrate(cfg *config.Config) error {
	if cfg.StoreBackend != config.StorePostgres {
		return fmt.Errorf("migrate is only supported for STORE_BACKEND=postgres (got %q)", cfg.StoreBackend)
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed は管理者ユーザーとそのセッショントークンを作成する。
// 初期セットアップおよび開発環境用。引数でユーザー名を指定できる。
func runSeed(cfg *config.Config, args []string) error {
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	name := "管理者"
	if len(args) > 0 && args[0] != "" {
		name = args[0]
	}

	userRepo := repository.NewKVUserRepo(store)
	sessionRepo := repository.NewKVSessionRepo(store)
	authService := auth.NewService(sessionRepo, userRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)

	admin := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      model.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	session, err := authService.CreateSession(ctx, admin.ID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("admin user seeded",
		slog.String("user_id", admin.ID),
		slog.String("name", admin.Name),
		slog.String("token", session.Token),
		slog.Time("expires_at", session.ExpiresAt),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
