// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果のラベル値
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
	RecordLogin(method, outcome string)
	RecordTaskOperation(operation string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
	logins          *prometheus.CounterVec
	taskOperations  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskboard_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_logins_total",
			Help: "ログイン方式・結果別のログイン試行数",
		}, []string{"method", "outcome"}),
		taskOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_task_operations_total",
			Help: "成功したタスク操作の合計数",
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestDuration,
		c.logins,
		c.taskOperations,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordLogin はログイン試行を記録する。methodは google / password。
func (c *Collector) RecordLogin(method, outcome string) {
	c.logins.WithLabelValues(method, outcome).Inc()
}

// RecordTaskOperation はタスク操作（create / update / delete）を記録する。
func (c *Collector) RecordTaskOperation(operation string) {
	c.taskOperations.WithLabelValues(operation).Inc()
}

// Nop は何も記録しないMetricsCollector。メトリクス無効時やテストで使用する。
type Nop struct{}

func (Nop) RecordHTTPStatus(int)                {}
func (Nop) RecordRequestDuration(time.Duration) {}
func (Nop) RecordLogin(string, string)          {}
func (Nop) RecordTaskOperation(string)          {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
