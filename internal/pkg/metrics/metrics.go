package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約操作の総数（operation: reserve/cancel/update, outcome: success/insufficient_seats/not_found/invalid_state/invalid_request/busy/timeout/error/noop）
	ReservationsTotal *prometheus.CounterVec

	// 便の行ロック（SELECT ... FOR UPDATE）取得までの待ち時間
	TripLockWait prometheus.Histogram

	// Redis前段ロックの操作時間（operation: acquire/release, status: success/failed）
	GateLockDuration *prometheus.HistogramVec

	// ステータス別の予約数（status: confirmed/cancelled）
	ActiveReservations *prometheus.GaugeVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservations_total",
				Help: "Total number of reservation admission decisions",
			},
			[]string{"operation", "outcome"},
		),
		TripLockWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trip_lock_wait_seconds",
				Help:    "Time spent waiting for the trip row lock",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		GateLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gate_lock_duration_seconds",
				Help:    "Time spent on redis gate lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		ActiveReservations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "active_reservations",
				Help: "Current number of reservations by status",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationsTotal,
		m.TripLockWait,
		m.GateLockDuration,
		m.ActiveReservations,
	)

	return m
}

// ObserveReservation は予約操作の結果を記録する。m が nil の場合は何もしない
func (m *Metrics) ObserveReservation(operation, outcome string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveTripLockWait は行ロックの待ち時間を記録する
func (m *Metrics) ObserveTripLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.TripLockWait.Observe(d.Seconds())
}

// ObserveGateLock は前段ロック操作の時間を記録する
func (m *Metrics) ObserveGateLock(operation string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failed"
	}
	m.GateLockDuration.WithLabelValues(operation, status).Observe(d.Seconds())
}

// SetReservationCounts はステータス別の予約数を反映する
func (m *Metrics) SetReservationCounts(counts map[string]int) {
	if m == nil {
		return
	}
	for status, n := range counts {
		m.ActiveReservations.WithLabelValues(status).Set(float64(n))
	}
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
