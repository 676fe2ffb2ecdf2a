package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.pluginTestsTotal)
	assert.NotNil(t, collector.pluginTestDuration)
	assert.NotNil(t, collector.pluginSkipsTotal)
	assert.NotNil(t, collector.validationFailures)
	assert.NotNil(t, collector.storeFetchesTotal)
}

func TestCollector_RecordPluginTest(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	// 记录一次通过与一次失败
	collector.RecordPluginTest(true, 10*time.Second)
	collector.RecordPluginTest(false, 3*time.Second)

	count := testutil.CollectAndCount(collector.pluginTestsTotal)
	assert.Greater(t, count, 0)

	durationCount := testutil.CollectAndCount(collector.pluginTestDuration)
	assert.Greater(t, durationCount, 0)
}

func TestCollector_RecordSkip(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordSkip("git_sourced")
	collector.RecordSkip("up_to_date")

	count := testutil.CollectAndCount(collector.pluginSkipsTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordValidationFailure(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordValidationFailure("homepage")

	count := testutil.CollectAndCount(collector.validationFailures)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordStoreFetch(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordStoreFetch("plugins", "ok")
	collector.RecordStoreFetch("results", "error")

	count := testutil.CollectAndCount(collector.storeFetchesTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordCacheOperation(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	// 记录缓存命中
	collector.RecordCacheHit("redis")

	// 记录缓存未命中
	collector.RecordCacheMiss("redis")

	// 验证指标
	hitCount := testutil.CollectAndCount(collector.cacheHits)
	assert.Greater(t, hitCount, 0)

	missCount := testutil.CollectAndCount(collector.cacheMisses)
	assert.Greater(t, missCount, 0)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	// 并发记录多个指标
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			collector.RecordPluginTest(id%2 == 0, time.Duration(id)*time.Second)
			collector.RecordSkip("up_to_date")
			collector.RecordCacheHit("redis")
			done <- true
		}(i)
	}

	// 等待所有 goroutine 完成
	for i := 0; i < 10; i++ {
		<-done
	}

	// 验证指标被正确记录
	testCount := testutil.CollectAndCount(collector.pluginTestsTotal)
	assert.Greater(t, testCount, 0)

	skipCount := testutil.CollectAndCount(collector.pluginSkipsTotal)
	assert.Greater(t, skipCount, 0)

	cacheCount := testutil.CollectAndCount(collector.cacheHits)
	assert.Greater(t, cacheCount, 0)
}
