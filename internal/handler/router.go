// Package handler は運用系HTTPエンドポイントのルーティングを提供する。
// バッジの公開配信APIは本モジュールのスコープ外であり、ここでは
// ヘルスチェックとメトリクス公開のみを扱う。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/badgekeeper/internal/metrics"
	"github.com/hitoshi/badgekeeper/internal/middleware"
)

// HealthChecker はレディネス確認用のDB疎通チェックインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer
}

// NewRouter は運用エンドポイントのルーティングを構成したchi.Routerを返す。
//
//	GET /health  - プロセス生存確認（常に200）
//	GET /ready   - DB疎通確認（失敗時503）
//	GET /metrics - Prometheusスクレイプ
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()

		if deps.HealthChecker == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		if err := deps.HealthChecker.PingContext(ctx); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}
