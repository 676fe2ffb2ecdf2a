// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 插件测试指标
	pluginTestsTotal   *prometheus.CounterVec
	pluginTestDuration *prometheus.HistogramVec
	pluginSkipsTotal   *prometheus.CounterVec

	// 校验指标
	validationFailures *prometheus.CounterVec

	// 商店数据指标
	storeFetchesTotal *prometheus.CounterVec

	// 版本缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 插件测试指标
	c.pluginTestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_tests_total",
			Help:      "Total number of plugin load tests",
		},
		[]string{"result"}, // result: passed, failed
	)

	c.pluginTestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plugin_test_duration_seconds",
			Help:      "Plugin load test duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"result"},
	)

	c.pluginSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_skips_total",
			Help:      "Total number of plugins skipped during store scan",
		},
		[]string{"reason"}, // reason: git_sourced, up_to_date
	)

	// 校验指标
	c.validationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Total number of metadata validation failures",
		},
		[]string{"field"},
	)

	// 商店数据指标
	c.storeFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_fetches_total",
			Help:      "Total number of store data fetches",
		},
		[]string{"resource", "status"},
	)

	// 版本缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🧪 插件测试指标记录
// =============================================================================

// RecordPluginTest 记录一次插件加载测试
func (c *Collector) RecordPluginTest(passed bool, duration time.Duration) {
	result := "failed"
	if passed {
		result = "passed"
	}
	c.pluginTestsTotal.WithLabelValues(result).Inc()
	c.pluginTestDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordSkip 记录一次跳过
func (c *Collector) RecordSkip(reason string) {
	c.pluginSkipsTotal.WithLabelValues(reason).Inc()
}

// RecordValidationFailure 记录一次字段校验失败
func (c *Collector) RecordValidationFailure(field string) {
	c.validationFailures.WithLabelValues(field).Inc()
}

// RecordStoreFetch 记录一次商店数据拉取
func (c *Collector) RecordStoreFetch(resource, status string) {
	c.storeFetchesTotal.WithLabelValues(resource, status).Inc()
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 🌐 指标端点
// =============================================================================

// Serve 在批量测试期间暴露 /metrics 端点，ctx 取消时关闭
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	c.logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
