// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果のラベル値。
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// 認証拒否理由のラベル値。
const (
	RejectMissingCookie  = "missing_cookie"
	RejectUnknownToken   = "unknown_token"
	RejectExpiredSession = "expired_session"
	RejectOrphanSession  = "orphan_session"
	RejectStoreError     = "store_error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordLogin(result string)
	RecordAuthRejection(reason string)
	RecordReviewSubmitted(modelName string)
	RecordModelFailure(modelName string)
	RecordModelLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins           *prometheus.CounterVec
	authRejections   *prometheus.CounterVec
	reviewsSubmitted *prometheus.CounterVec
	modelFailures    *prometheus.CounterVec
	modelLatency     prometheus.Histogram
	httpStatus       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codereview_logins_total",
			Help: "OAuthログインの結果別件数",
		}, []string{"result"}),
		authRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codereview_auth_rejections_total",
			Help: "セッション認証で拒否されたリクエストの理由別件数",
		}, []string{"reason"}),
		reviewsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codereview_reviews_submitted_total",
			Help: "保存されたレビューのモデル別件数",
		}, []string{"model"}),
		modelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codereview_model_failures_total",
			Help: "推論サービス呼び出し失敗のモデル別件数",
		}, []string{"model"}),
		modelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codereview_model_latency_seconds",
			Help:    "推論サービス呼び出しのレイテンシ（秒）",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codereview_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.logins,
		c.authRejections,
		c.reviewsSubmitted,
		c.modelFailures,
		c.modelLatency,
		c.httpStatus,
	)

	return c
}

// RecordLogin はログイン結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordAuthRejection は認証拒否を理由付きで記録する。
func (c *Collector) RecordAuthRejection(reason string) {
	c.authRejections.WithLabelValues(reason).Inc()
}

// RecordReviewSubmitted はレビューの保存を記録する。
func (c *Collector) RecordReviewSubmitted(modelName string) {
	c.reviewsSubmitted.WithLabelValues(modelName).Inc()
}

// RecordModelFailure は推論サービスの失敗を記録する。
func (c *Collector) RecordModelFailure(modelName string) {
	c.modelFailures.WithLabelValues(modelName).Inc()
}

// RecordModelLatency は推論サービス呼び出しのレイテンシを記録する。
func (c *Collector) RecordModelLatency(duration time.Duration) {
	c.modelLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
