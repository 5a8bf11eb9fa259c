// Package app はsalesdashの起動処理とCLIコマンドを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/salesdash/internal/apiclient"
	"github.com/hitoshi/salesdash/internal/config"
	"github.com/hitoshi/salesdash/internal/dashboard"
	"github.com/hitoshi/salesdash/internal/handler"
	"github.com/hitoshi/salesdash/internal/interceptor"
	"github.com/hitoshi/salesdash/internal/logger"
	"github.com/hitoshi/salesdash/internal/metrics"
	"github.com/hitoshi/salesdash/internal/session"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// ログはlogwに出力する。
func Init(logw io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.SetupDefault(logw, slog.LevelInfo)
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(logw, logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析して実行する。
// argsにはos.Args[1:]を渡す。コマンドの出力はwに書き込む。
func Run(w io.Writer, args []string) error {
	root := NewRootCmd(w)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// runtime はコマンド実行に必要な依存関係をまとめたもの。
// Token Storeを共有するため、CLIとサーバーで同じ構成を使う。
type runtime struct {
	cfg        *config.Config
	logger     *slog.Logger
	stores     *stores
	client     *apiclient.Client
	sessions   *session.Manager
	dashboards *dashboard.Set
	metrics    metrics.MetricsCollector
	registry   *prometheus.Registry
}

// newRuntime はToken Storeを開き、インターセプター付きのクライアントとセッションを構成する。
// withMetricsがtrueの場合はPrometheusのレジストリを用意する。
func newRuntime(cfg *config.Config, log *slog.Logger, withMetrics bool) (*runtime, error) {
	st, err := openStores(cfg)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:     cfg,
		logger:  log,
		stores:  st,
		metrics: metrics.Nop{},
	}

	if withMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rt.registry = reg
		rt.metrics = metrics.NewCollector(reg)
	}

	httpClient := &http.Client{
		Transport: interceptor.NewBearerTransport(http.DefaultTransport, st.tokens, rt.metrics, log),
	}
	rt.client = apiclient.NewClient(httpClient, cfg.APIBaseURL, log)
	rt.client.RequestTimeout = cfg.APITimeout
	rt.sessions = session.NewManager(rt.client, st.tokens, st.profiles, rt.metrics, log)
	rt.dashboards = dashboard.NewSet(rt.client, rt.sessions, log)

	return rt, nil
}

// restore は保存済みのトークンからセッションを復元する。
func (rt *runtime) restore(ctx context.Context) error {
	state, err := rt.sessions.Restore(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	rt.logger.Debug("session restored", slog.String("state", string(state)))
	return nil
}

// routerDeps はコンソールサーバーのルーター依存関係を構成する。
func (rt *runtime) routerDeps() *handler.RouterDeps {
	deps := &handler.RouterDeps{
		Sessions:          rt.sessions,
		Dashboards:        rt.dashboards,
		CORSAllowedOrigin: rt.cfg.CORSAllowedOrigin,
		Metrics:           rt.metrics,
		Logger:            rt.logger,
		HealthChecker:     rt.stores.health,
	}
	if rt.registry != nil {
		deps.Gatherer = rt.registry
	}
	return deps
}

// Close は開いた外部接続を閉じる。
func (rt *runtime) Close() error {
	return rt.stores.Close()
}
