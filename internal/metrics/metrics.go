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
// 見出しサービスと検証エンジンから利用する。
type MetricsCollector interface {
	RecordHeadlineFetchSuccess(provider string)
	RecordHeadlineFetchFailure(provider string)
	RecordUpstreamStatus(api string, statusCode int)
	RecordUpstreamLatency(api string, duration time.Duration)
	RecordVerdict(status string, method string)
	RecordClaimCheckFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	headlineFetchSuccess *prometheus.CounterVec
	headlineFetchFail    *prometheus.CounterVec
	upstreamStatus       *prometheus.CounterVec
	upstreamLatency      *prometheus.HistogramVec
	verdicts             *prometheus.CounterVec
	claimCheckFail       prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		headlineFetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factman_headline_fetch_success_total",
			Help: "見出し取得成功のプロバイダ別合計数",
		}, []string{"provider"}),
		headlineFetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factman_headline_fetch_fail_total",
			Help: "見出し取得失敗のプロバイダ別合計数",
		}, []string{"provider"}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factman_upstream_status_total",
			Help: "上流API別・HTTPステータスコード別のレスポンス数",
		}, []string{"api", "status_code"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factman_upstream_latency_seconds",
			Help:    "上流API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"api"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factman_verdicts_total",
			Help: "検証判定のステータス別・手段別合計数",
		}, []string{"status", "method"}),
		claimCheckFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factman_claimcheck_fail_total",
			Help: "ファクトチェックAPI呼び出し失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.headlineFetchSuccess,
		c.headlineFetchFail,
		c.upstreamStatus,
		c.upstreamLatency,
		c.verdicts,
		c.claimCheckFail,
	)

	return c
}

// RecordHeadlineFetchSuccess は見出し取得成功を記録する。
func (c *Collector) RecordHeadlineFetchSuccess(provider string) {
	c.headlineFetchSuccess.WithLabelValues(provider).Inc()
}

// RecordHeadlineFetchFailure は見出し取得失敗を記録する。
func (c *Collector) RecordHeadlineFetchFailure(provider string) {
	c.headlineFetchFail.WithLabelValues(provider).Inc()
}

// RecordUpstreamStatus は上流APIのHTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(api string, statusCode int) {
	c.upstreamStatus.WithLabelValues(api, strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamLatency は上流API呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(api string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(api).Observe(duration.Seconds())
}

// RecordVerdict は検証判定を記録する。
func (c *Collector) RecordVerdict(status string, method string) {
	c.verdicts.WithLabelValues(status, method).Inc()
}

// RecordClaimCheckFailure はファクトチェックAPI呼び出し失敗を記録する。
func (c *Collector) RecordClaimCheckFailure() {
	c.claimCheckFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
