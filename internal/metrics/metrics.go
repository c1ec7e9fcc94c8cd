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
// ガードミドルウェアやカートストアから利用する。
type MetricsCollector interface {
	RecordGuardDecision(route string, outcome string)
	RecordGuardRedirect(target string)
	RecordSessionOperation(operation string, success bool)
	ObserveCartSync(operation string, success bool, duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// ガード判定の結果ラベル
const (
	GuardOutcomeAllowed    = "allowed"
	GuardOutcomeRedirected = "redirected"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	guardDecisions  *prometheus.CounterVec
	guardRedirects  *prometheus.CounterVec
	sessionOps      *prometheus.CounterVec
	cartSyncTotal   *prometheus.CounterVec
	cartSyncLatency prometheus.Histogram
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiendakeys_guard_decisions_total",
			Help: "ルート別・結果別のナビゲーションガード判定数",
		}, []string{"route", "outcome"}),
		guardRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiendakeys_guard_redirects_total",
			Help: "リダイレクト先別のガードリダイレクト数",
		}, []string{"target"}),
		sessionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiendakeys_session_operations_total",
			Help: "セッション操作（login/logout/restore）の結果別合計数",
		}, []string{"operation", "result"}),
		cartSyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiendakeys_cart_sync_total",
			Help: "マーケットAPIとのカート同期の操作別・結果別合計数",
		}, []string{"operation", "result"}),
		cartSyncLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tiendakeys_cart_sync_latency_seconds",
			Help:    "カート同期のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiendakeys_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.guardDecisions,
		c.guardRedirects,
		c.sessionOps,
		c.cartSyncTotal,
		c.cartSyncLatency,
		c.httpStatus,
	)

	return c
}

// RecordGuardDecision はガード判定を記録する。
func (c *Collector) RecordGuardDecision(route string, outcome string) {
	c.guardDecisions.WithLabelValues(route, outcome).Inc()
}

// RecordGuardRedirect はガードによるリダイレクトを記録する。
func (c *Collector) RecordGuardRedirect(target string) {
	c.guardRedirects.WithLabelValues(target).Inc()
}

// RecordSessionOperation はセッション操作の結果を記録する。
func (c *Collector) RecordSessionOperation(operation string, success bool) {
	c.sessionOps.WithLabelValues(operation, resultLabel(success)).Inc()
}

// ObserveCartSync はカート同期の結果とレイテンシを記録する。
func (c *Collector) ObserveCartSync(operation string, success bool, duration time.Duration) {
	c.cartSyncTotal.WithLabelValues(operation, resultLabel(success)).Inc()
	c.cartSyncLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
