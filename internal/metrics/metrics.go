// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// コンポーネント保存サービスとベイカーから利用する。
type MetricsCollector interface {
	RecordLookupHit(kind string)
	RecordCreate(kind string)
	RecordBakeSuccess()
	RecordBakeFailure()
	RecordBakeLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	lookupHits  *prometheus.CounterVec
	creates     *prometheus.CounterVec
	bakeSuccess prometheus.Counter
	bakeFail    prometheus.Counter
	bakeLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		lookupHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "badgekeeper_component_lookup_hits_total",
			Help: "URLルックアップで既存行が返された回数（コンポーネント種別ごと）",
		}, []string{"kind"}),
		creates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "badgekeeper_component_created_total",
			Help: "新規作成されたコンポーネント行の合計数（種別ごと）",
		}, []string{"kind"}),
		bakeSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badgekeeper_bake_success_total",
			Help: "ベイク済み画像取得成功の合計数",
		}),
		bakeFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badgekeeper_bake_fail_total",
			Help: "ベイク済み画像取得失敗の合計数",
		}),
		bakeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "badgekeeper_bake_latency_seconds",
			Help:    "ベイク済み画像取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.lookupHits,
		c.creates,
		c.bakeSuccess,
		c.bakeFail,
		c.bakeLatency,
	)

	return c
}

// RecordLookupHit は既存行ヒットを記録する。
func (c *Collector) RecordLookupHit(kind string) {
	c.lookupHits.WithLabelValues(kind).Inc()
}

// RecordCreate は新規行の作成を記録する。
func (c *Collector) RecordCreate(kind string) {
	c.creates.WithLabelValues(kind).Inc()
}

// RecordBakeSuccess はベイク済み画像取得の成功を記録する。
func (c *Collector) RecordBakeSuccess() {
	c.bakeSuccess.Inc()
}

// RecordBakeFailure はベイク済み画像取得の失敗を記録する。
func (c *Collector) RecordBakeFailure() {
	c.bakeFail.Inc()
}

// RecordBakeLatency はベイク済み画像取得のレイテンシを記録する。
func (c *Collector) RecordBakeLatency(duration time.Duration) {
	c.bakeLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
