// Package metrics 提供 Prometheus helper，覆盖 HTTP、预测引擎与对账引擎的核心指标
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数（按方法/路径/状态码）
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 预测生成计数
	ForecastsTotal prometheus.Counter
	// 预测计算耗时
	ForecastDuration prometheus.Histogram
	// 单次预测聚合的事件数
	ForecastEvents prometheus.Histogram

	// 对账执行计数
	ReconciliationsTotal prometheus.Counter
	// 对账耗时
	ReconciliationDuration prometheus.Histogram
	// 记录的匹配数
	MatchesRecorded prometheus.Counter
	// 未匹配的预测事件数（最近一次对账）
	UnmatchedForecast prometheus.Gauge
	// 未匹配的实际流水数（最近一次对账）
	UnmatchedActual prometheus.Gauge
}

// New 创建并注册指标实例
func New(serviceName string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashflow",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cashflow",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ForecastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cashflow",
			Subsystem: serviceName,
			Name:      "forecasts_total",
			Help:      "Total forecasts generated",
		}),
		ForecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cashflow",
			Subsystem: serviceName,
			Name:      "forecast_duration_seconds",
			Help:      "Forecast computation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ForecastEvents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cashflow",
			Subsystem: serviceName,
			Name:      "forecast_events",
			Help:      "Scheduled events aggregated per forecast",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000},
		}),
		ReconciliationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cashflow",
			Subsystem: serviceName,
			Name:      "reconciliations_total",
			Help:      "Total reconciliation runs",
		}),
		ReconciliationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cashflow",
			Subsystem: serviceName,
			Name:      "reconciliation_duration_seconds",
			Help:      "Reconciliation run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		MatchesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cashflow",
			Subsystem: serviceName,
			Name:      "matches_recorded_total",
			Help:      "Variance matches recorded",
		}),
		UnmatchedForecast: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cashflow",
			Subsystem: serviceName,
			Name:      "unmatched_forecast_events",
			Help:      "Unmatched forecast events in the last reconciliation run",
		}),
		UnmatchedActual: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cashflow",
			Subsystem: serviceName,
			Name:      "unmatched_actual_events",
			Help:      "Unmatched actual transactions in the last reconciliation run",
		}),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ForecastsTotal,
		m.ForecastDuration,
		m.ForecastEvents,
		m.ReconciliationsTotal,
		m.ReconciliationDuration,
		m.MatchesRecorded,
		m.UnmatchedForecast,
		m.UnmatchedActual,
	)

	return m
}

// Handler 返回可挂载到 gin 的 Prometheus handler
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
