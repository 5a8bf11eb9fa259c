// Package interceptor は送信リクエストに認証情報を付与するHTTPトランスポートを提供する。
package interceptor

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/salesdash/internal/metrics"
	"github.com/hitoshi/salesdash/internal/tokenstore"
)

// BearerTransport はリクエスト送信のたびにトークンストアを読み、
// トークンがあれば Authorization: Bearer ヘッダーを付与するhttp.RoundTripper。
//
// 401/403を受けてもリトライや再ログインは行わず、レスポンスをそのまま返す。
// 強制ログアウトなどの回復処理は呼び出し元の責務とする。
type BearerTransport struct {
	base    http.RoundTripper
	store   tokenstore.Store
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewBearerTransport はBearerTransportを生成する。
// baseがnilの場合はhttp.DefaultTransportを使う。
func NewBearerTransport(base http.RoundTripper, store tokenstore.Store, mc metrics.MetricsCollector, logger *slog.Logger) *BearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BearerTransport{
		base:    base,
		store:   store,
		metrics: mc,
		logger:  logger,
	}
}

// RoundTrip はhttp.RoundTripperを実装する。
// 呼び出し元のリクエストは変更せず、ヘッダーを付与したクローンを送信する。
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok, err := t.store.Read(req.Context())
	if err != nil {
		closeBody(req)
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	out := req.Clone(req.Context())
	if ok {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(out)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.metrics.RecordAPIRequest(req.Method, status, duration)

	if err != nil {
		t.logger.Warn("backend request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	// 呼び出し元が拒否応答とトークンを突き合わせられるよう、送信したクローンを返す
	resp.Request = out

	t.logger.Debug("backend request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", status),
		slog.Bool("authenticated", ok),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/float64(time.Millisecond)),
	)

	return resp, nil
}

// closeBody はRoundTripperの契約に従い、送信しなかったリクエストのボディを閉じる。
func closeBody(req *http.Request) {
	if req.Body != nil {
		req.Body.Close()
	}
}

var _ http.RoundTripper = (*BearerTransport)(nil)
