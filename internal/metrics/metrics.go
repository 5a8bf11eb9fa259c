// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// インターセプタ、セッション管理、ミドルウェアから利用する。
type MetricsCollector interface {
	RecordAPIRequest(method string, statusCode int, duration time.Duration)
	RecordLogin(success bool)
	RecordLogout(forced bool)
	RecordGuardDecision(destination, verdict string)
	RecordRateLimited(limitType string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	apiRequests   *prometheus.CounterVec
	apiLatency    prometheus.Histogram
	logins        *prometheus.CounterVec
	logouts       *prometheus.CounterVec
	guardDecision *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesdash_api_requests_total",
			Help: "バックエンドAPI呼び出しのメソッド・ステータス別の合計数",
		}, []string{"method", "status_code"}),
		apiLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "salesdash_api_latency_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesdash_logins_total",
			Help: "ログイン試行の結果別の合計数",
		}, []string{"result"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesdash_logouts_total",
			Help: "ログアウトの契機別の合計数",
		}, []string{"reason"}),
		guardDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesdash_guard_decisions_total",
			Help: "ルートガードの判定結果別の合計数",
		}, []string{"destination", "verdict"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesdash_rate_limited_total",
			Help: "レート制限で拒否されたリクエスト数",
		}, []string{"limit_type"}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.logins,
		c.logouts,
		c.guardDecision,
		c.rateLimited,
	)

	return c
}

// RecordAPIRequest はバックエンドAPI呼び出しを記録する。
// statusCodeが0の場合は通信エラーとして "error" ラベルで記録する。
func (c *Collector) RecordAPIRequest(method string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	c.apiRequests.WithLabelValues(method, status).Inc()
	c.apiLatency.Observe(duration.Seconds())
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordLogout はログアウトを記録する。
// forcedはバックエンドの認証拒否による強制ログアウトを示す。
func (c *Collector) RecordLogout(forced bool) {
	reason := "user"
	if forced {
		reason = "auth_failure"
	}
	c.logouts.WithLabelValues(reason).Inc()
}

// RecordGuardDecision はルートガードの判定を記録する。
func (c *Collector) RecordGuardDecision(destination, verdict string) {
	c.guardDecision.WithLabelValues(destination, verdict).Inc()
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited(limitType string) {
	c.rateLimited.WithLabelValues(limitType).Inc()
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordAPIRequest(string, int, time.Duration) {}
func (Nop) RecordLogin(bool)                            {}
func (Nop) RecordLogout(bool)                           {}
func (Nop) RecordGuardDecision(string, string)          {}
func (Nop) RecordRateLimited(string)                    {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
