package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/storeflow/config"
)

// memoryCache 测试用内存缓存
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func newTestVersionSource(t *testing.T, handler http.Handler) *VersionSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultStoreConfig()
	cfg.ProxyURL = srv.URL
	cfg.RequestTimeout = 5 * time.Second
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000

	return NewVersionSource(cfg, nil)
}

func TestVersionSource_Latest(t *testing.T) {
	var requested string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Write([]byte(`{"Version": "v1.4.2", "Time": "2026-01-02T00:00:00Z"}`))
	})

	vs := newTestVersionSource(t, mux)

	version, err := vs.Latest(context.Background(), "github.com/Alice/Weather")
	require.NoError(t, err)
	assert.Equal(t, "v1.4.2", version)
	// 大写字母按代理协议转义
	assert.Equal(t, "/github.com/!alice/!weather/@latest", requested)
}

func TestVersionSource_LatestNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	vs := newTestVersionSource(t, mux)

	_, err := vs.Latest(context.Background(), "github.com/missing/module")
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestVersionSource_LatestEmptyVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	vs := newTestVersionSource(t, mux)

	_, err := vs.Latest(context.Background(), "github.com/a/b")
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestVersionSource_CacheHitSkipsProxy(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"Version": "v2.0.0"}`))
	})

	vs := newTestVersionSource(t, mux).WithCache(newMemoryCache(), time.Hour)

	v1, err := vs.Latest(context.Background(), "github.com/a/b")
	require.NoError(t, err)
	v2, err := vs.Latest(context.Background(), "github.com/a/b")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls)
}

// cacheRecorder 记录缓存命中观测回调
type cacheRecorder struct {
	hits   int
	misses int
}

func (c *cacheRecorder) RecordCacheHit(cacheType string)  { c.hits++ }
func (c *cacheRecorder) RecordCacheMiss(cacheType string) { c.misses++ }

func TestVersionSource_CacheObserver(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Version": "v2.0.0"}`))
	})

	rec := &cacheRecorder{}
	vs := newTestVersionSource(t, mux).
		WithCache(newMemoryCache(), time.Hour).
		WithCacheObserver(rec)

	// 首次未命中，第二次命中
	_, err := vs.Latest(context.Background(), "github.com/a/b")
	require.NoError(t, err)
	_, err = vs.Latest(context.Background(), "github.com/a/b")
	require.NoError(t, err)

	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, 1, rec.hits)
}

func TestIsUpToDate(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		latest   string
		want     bool
	}{
		{name: "相同版本", previous: "v1.2.3", latest: "v1.2.3", want: true},
		{name: "落后版本", previous: "v1.2.3", latest: "v1.3.0", want: false},
		{name: "超前版本", previous: "v2.0.0", latest: "v1.9.9", want: true},
		{name: "缺少上次版本", previous: "", latest: "v1.0.0", want: false},
		{name: "缺少最新版本", previous: "v1.0.0", latest: "", want: false},
		{name: "相同伪版本", previous: "v0.0.0-20260101000000-abcdef123456", latest: "v0.0.0-20260101000000-abcdef123456", want: true},
		{name: "不同伪版本", previous: "v0.0.0-20250101000000-abcdef123456", latest: "v0.0.0-20260101000000-fedcba654321", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUpToDate(tt.previous, tt.latest))
		})
	}
}

func TestEscapeModulePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "github.com/alice/weather", want: "github.com/alice/weather"},
		{in: "github.com/Alice/Weather", want: "github.com/!alice/!weather"},
		{in: "github.com/BaSui01/agentflow", want: "github.com/!ba!sui01/agentflow"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeModulePath(tt.in))
		})
	}
}
