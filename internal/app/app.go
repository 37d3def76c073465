// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/badgekeeper/internal/baker"
	"github.com/hitoshi/badgekeeper/internal/component"
	"github.com/hitoshi/badgekeeper/internal/config"
	"github.com/hitoshi/badgekeeper/internal/database"
	"github.com/hitoshi/badgekeeper/internal/handler"
	"github.com/hitoshi/badgekeeper/internal/imagestore"
	"github.com/hitoshi/badgekeeper/internal/logger"
	"github.com/hitoshi/badgekeeper/internal/metrics"
	"github.com/hitoshi/badgekeeper/internal/model"
	"github.com/hitoshi/badgekeeper/internal/repository"
	"github.com/hitoshi/badgekeeper/internal/security"
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
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// Services はワイヤリング済みのコンポーネントサービス群。
// ホスト側（取り込みパイプラインや管理CLI）はこれを経由して保存処理を呼び出す。
type Services struct {
	Upsert *component.UpsertService
	Delete *component.DeleteService
}

// BuildServices はDB接続と設定からコンポーネントサービス群を構築する。
// 運用サーバーとホスト側の双方から使用される共通ワイヤリング。
func BuildServices(ctx context.Context, db *sql.DB, cfg *config.Config, collector metrics.MetricsCollector) (*Services, error) {
	issuerRepo := repository.NewPostgresIssuerRepo(db)
	badgeRepo := repository.NewPostgresBadgeClassRepo(db)
	instanceRepo := repository.NewPostgresBadgeInstanceRepo(db)
	userRepo := repository.NewPostgresUserRepo(db)

	images, err := buildImageStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ssrfGuard := security.NewSSRFGuard()
	httpBaker := baker.NewHTTPBaker(ssrfGuard, cfg.BakeRate, cfg.BakeTimeout, cfg.BakeMaxSize)

	media := component.MediaConfig{
		MediaURL:   cfg.MediaURL,
		HTTPOrigin: cfg.HTTPOrigin,
	}

	upsertSvc := component.NewUpsertService(
		issuerRepo, badgeRepo, instanceRepo,
		&recipientResolverAdapter{users: userRepo},
		httpBaker, images, media, collector,
	)
	deleteSvc := component.NewDeleteService(issuerRepo, badgeRepo, instanceRepo)

	return &Services{Upsert: upsertSvc, Delete: deleteSvc}, nil
}

// buildImageStore は設定に応じた画像ストアを構築する。
func buildImageStore(ctx context.Context, cfg *config.Config) (component.ImageStore, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendGCS:
		return imagestore.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSPrefix)
	default:
		return imagestore.NewFSStore(cfg.MediaRoot)
	}
}

// recipientResolverAdapter はユーザーリポジトリをRecipientResolverに適合させる。
// 受領者識別子はメールアドレスとして解決する。
type recipientResolverAdapter struct {
	users repository.UserRepository
}

// compile-time interface check
var _ component.RecipientResolver = (*recipientResolverAdapter)(nil)

func (a *recipientResolverAdapter) FindRecipientUser(ctx context.Context, identifier string) (*model.User, error) {
	return a.users.FindByEmail(ctx, identifier)
}

// runServe は運用サーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、ヘルスチェックと
// メトリクス公開用のHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. サービスのワイヤリング
	// 運用ルーターはサービスを参照しないため結果は保持しない。
	// 画像ストアやベイカーの構成不備を起動時に検出するためだけに構築する。
	ctx := context.Background()
	if _, err := BuildServices(ctx, db, cfg, collector); err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}

	// 4. 運用ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		HealthChecker: db,
		Gatherer:      registry,
	})

	// 5. HTTPサーバーの起動
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
		slog.Info("ops server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down ops server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("ops server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
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
