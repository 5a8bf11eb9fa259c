package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/salesdash/internal/dashboard"
	"github.com/hitoshi/salesdash/internal/guard"
	"github.com/hitoshi/salesdash/internal/metrics"
	"github.com/hitoshi/salesdash/internal/middleware"
	"github.com/hitoshi/salesdash/internal/model"
)

// HealthChecker はToken Storeなど外部依存の疎通確認のインターフェース。
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Session はログイン操作とガード判定の両方に使うセッションのインターフェース。
// session.Managerが実装する。
type Session interface {
	SessionService
	middleware.SessionSource
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Sessions   Session
	Dashboards *dashboard.Set

	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	Logger            *slog.Logger

	// 運用
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → (ダッシュボードのみ) Guard
//
// ログイン画面とログイン・ログアウト・/meはガードの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.Metrics
	if mc == nil {
		mc = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.Sessions)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Get(guard.LoginPath, authHandler.LoginPage)
	if deps.RateLimiter != nil {
		r.With(deps.RateLimiter.LoginMiddleware()).Post(guard.LoginPath, authHandler.Login)
	} else {
		r.Post(guard.LoginPath, authHandler.Login)
	}
	r.Post("/logout", authHandler.Logout)
	r.Get("/me", authHandler.Me)

	// --- ロールごとのダッシュボード ---
	// 各ダッシュボードはガードの判定を通過した場合のみ描画する
	mount := func(route guard.Route, routes func(chi.Router)) {
		r.Route(route.Path, func(r chi.Router) {
			r.Use(middleware.NewGuardMiddleware(deps.Sessions, route.Path, route.Allowed, mc))
			routes(r)
		})
	}

	for _, route := range guard.Routes() {
		switch route.Path {
		case guard.SuperAdminPath:
			mount(route, NewSuperAdminHandler(deps.Dashboards.SuperAdmin).Routes)
		case guard.AdminPath:
			mount(route, NewAdminHandler(deps.Dashboards.Admin).Routes)
		case guard.TeamLeadPath:
			mount(route, NewTeamLeadHandler(deps.Dashboards.TeamLead).Routes)
		}
	}

	// ルート直下はログイン状態に応じたダッシュボードへ誘導する
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		dest := guard.LoginPath
		if sess, ok := deps.Sessions.Current(); ok {
			dest = guard.Destination(sess.Role)
		}
		http.Redirect(w, r, dest, http.StatusFound)
	})

	return r
}

// healthHandler は疎通確認の結果を返すハンドラーを生成する。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				slog.Warn("health check failed", slog.String("error", err.Error()))
				middleware.WriteAPIError(w, model.NewUnhealthyError())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
