package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/salesdash/internal/config"
	"github.com/hitoshi/salesdash/internal/database"
	"github.com/hitoshi/salesdash/internal/handler"
	"github.com/hitoshi/salesdash/internal/middleware"
)

// runServe はコンソールサーバーを起動する。
// 保存済みのセッションを復元してからHTTPサーバーを起動し、
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, rt *runtime) error {
	// 復元できない場合も匿名で起動し、/login・/logoutで保存先を書き直せるようにする
	if err := rt.restore(ctx); err != nil {
		rt.logger.Warn("starting anonymous: stored session could not be restored",
			slog.String("error", err.Error()),
		)
	}

	rateLimiter := middleware.NewRateLimiter(
		middleware.DefaultRateLimiterConfig(rt.cfg.RateLimitLogin),
		rt.metrics, rt.logger,
	)
	defer rateLimiter.Stop()

	deps := rt.routerDeps()
	deps.RateLimiter = rateLimiter
	router := handler.NewRouter(deps)

	server := &http.Server{
		Addr:         ":" + rt.cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("console server starting",
			slog.String("addr", server.Addr),
			slog.String("api_base_url", rt.cfg.APIBaseURL),
			slog.String("token_store", rt.cfg.TokenStore),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	rt.logger.Info("shutting down console server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	rt.logger.Info("console server stopped gracefully")
	return nil
}

// runMigrate はトークン保存用テーブルのマイグレーションを実行する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
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
