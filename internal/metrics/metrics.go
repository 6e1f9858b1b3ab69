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
// HTTPミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordAthleteCreated()
	RecordAthleteConflict()
	RecordAthleteDeleted()
	RecordPersistenceFailure(operation string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	athletesCreated    prometheus.Counter
	athleteConflicts   prometheus.Counter
	athletesDeleted    prometheus.Counter
	persistenceFailure *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workoutapi_http_requests_total",
			Help: "メソッド・ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workoutapi_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		athletesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workoutapi_athletes_created_total",
			Help: "登録されたアスリートの合計数",
		}),
		athleteConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workoutapi_athlete_cpf_conflicts_total",
			Help: "CPF重複により拒否された登録の合計数",
		}),
		athletesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workoutapi_athletes_deleted_total",
			Help: "削除されたアスリートの合計数",
		}),
		persistenceFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workoutapi_persistence_failures_total",
			Help: "操作別の永続化失敗数",
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.athletesCreated,
		c.athleteConflicts,
		c.athletesDeleted,
		c.persistenceFailure,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAthleteCreated はアスリート登録成功を記録する。
func (c *Collector) RecordAthleteCreated() {
	c.athletesCreated.Inc()
}

// RecordAthleteConflict はCPF重複による登録拒否を記録する。
func (c *Collector) RecordAthleteConflict() {
	c.athleteConflicts.Inc()
}

// RecordAthleteDeleted はアスリート削除を記録する。
func (c *Collector) RecordAthleteDeleted() {
	c.athletesDeleted.Inc()
}

// RecordPersistenceFailure は永続化失敗を操作名と共に記録する。
func (c *Collector) RecordPersistenceFailure(operation string) {
	c.persistenceFailure.WithLabelValues(operation).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。
// メトリクスを必要としないテストやツールで使用する。
type NopCollector struct{}

func (NopCollector) RecordHTTPRequest(string, string, int, time.Duration) {}
func (NopCollector) RecordAthleteCreated() {}
func (NopCollector) RecordAthleteConflict() {}
func (NopCollector) RecordAthleteDeleted() {}
func (NopCollector) RecordPersistenceFailure(string) {}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
