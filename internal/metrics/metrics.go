// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 食事記録の操作種別
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ストレージ操作の種別と結果
const (
	StorageUpload = "upload"
	StorageRemove = "remove"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、ミドルウェア、ワーカーから利用する。
type MetricsCollector interface {
	RecordFoodEntry(operation string)
	RecordStorageOperation(operation, result string)
	RecordCompensation(bucket string)
	RecordOrphanedObject(bucket string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordSessionsPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	foodEntries    *prometheus.CounterVec
	storageOps     *prometheus.CounterVec
	compensations  *prometheus.CounterVec
	orphans        *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	sessionsPurged prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		foodEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodtracker_food_entries_total",
			Help: "食事記録の作成・更新・削除の合計数",
		}, []string{"operation"}),
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodtracker_storage_operations_total",
			Help: "オブジェクトストレージ操作の合計数",
		}, []string{"operation", "result"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodtracker_storage_compensations_total",
			Help: "テーブル書き込み失敗によりアップロード済み画像を削除した回数",
		}, []string{"bucket"}),
		orphans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodtracker_storage_orphans_total",
			Help: "削除に失敗して参照されないまま残った画像の数",
		}, []string{"bucket"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodtracker_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodtracker_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodtracker_sessions_purged_total",
			Help: "クリーンアップジョブが削除した期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.foodEntries,
		c.storageOps,
		c.compensations,
		c.orphans,
		c.httpStatus,
		c.requestLatency,
		c.sessionsPurged,
	)

	return c
}

// RecordFoodEntry は食事記録の操作を記録する。
func (c *Collector) RecordFoodEntry(operation string) {
	c.foodEntries.WithLabelValues(operation).Inc()
}

// RecordStorageOperation はストレージ操作の結果を記録する。
func (c *Collector) RecordStorageOperation(operation, result string) {
	c.storageOps.WithLabelValues(operation, result).Inc()
}

// RecordCompensation は補償削除を記録する。
func (c *Collector) RecordCompensation(bucket string) {
	c.compensations.WithLabelValues(bucket).Inc()
}

// RecordOrphanedObject は孤立した画像を記録する。
func (c *Collector) RecordOrphanedObject(bucket string) {
	c.orphans.WithLabelValues(bucket).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordSessionsPurged は削除されたセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordFoodEntry(string)                {}
func (Nop) RecordStorageOperation(string, string) {}
func (Nop) RecordCompensation(string)             {}
func (Nop) RecordOrphanedObject(string)           {}
func (Nop) RecordHTTPStatus(int)                  {}
func (Nop) RecordRequestLatency(time.Duration)    {}
func (Nop) RecordSessionsPurged(int64)            {}

// OrNop はcがnilの場合にNopを返す。
func OrNop(c MetricsCollector) MetricsCollector {
	if c == nil {
		return Nop{}
	}
	return c
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
