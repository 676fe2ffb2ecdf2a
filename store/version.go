package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/storeflow/config"
)

// ErrVersionNotFound 模块代理查不到版本
var ErrVersionNotFound = errors.New("version not found")

// VersionCache 版本查询缓存接口，由 internal/cache 实现
type VersionCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// CacheObserver 缓存命中观测接口，由 internal/metrics 实现
type CacheObserver interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// VersionSource 模块最新版本查询器
//
// 通过模块代理的 @latest 端点查询，带限速与可选缓存。
type VersionSource struct {
	proxyURL   string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      VersionCache
	cacheTTL   time.Duration
	observer   CacheObserver
	logger     *zap.Logger
}

// NewVersionSource 创建版本查询器
func NewVersionSource(cfg config.StoreConfig, logger *zap.Logger) *VersionSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VersionSource{
		proxyURL:   strings.TrimRight(cfg.ProxyURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		logger:     logger.With(zap.String("component", "version_source")),
	}
}

// WithCache 设置版本缓存
func (v *VersionSource) WithCache(cache VersionCache, ttl time.Duration) *VersionSource {
	v.cache = cache
	v.cacheTTL = ttl
	return v
}

// WithHTTPClient 替换 HTTP 客户端，测试用
func (v *VersionSource) WithHTTPClient(hc *http.Client) *VersionSource {
	v.httpClient = hc
	return v
}

// WithCacheObserver 设置缓存命中观测器
func (v *VersionSource) WithCacheObserver(o CacheObserver) *VersionSource {
	v.observer = o
	return v
}

// proxyInfo 模块代理 @latest 响应
type proxyInfo struct {
	Version string `json:"Version"`
	Time    string `json:"Time"`
}

// Latest 查询模块的最新版本
func (v *VersionSource) Latest(ctx context.Context, modulePath string) (string, error) {
	cacheKey := "storeflow:version:" + modulePath

	if v.cache != nil {
		if cached, err := v.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			v.logger.Debug("version cache hit", zap.String("module", modulePath))
			if v.observer != nil {
				v.observer.RecordCacheHit("version")
			}
			return cached, nil
		}
		if v.observer != nil {
			v.observer.RecordCacheMiss("version")
		}
	}

	if err := v.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	url := fmt.Sprintf("%s/%s/@latest", v.proxyURL, escapeModulePath(modulePath))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query latest version: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return "", fmt.Errorf("%w: %s", ErrVersionNotFound, modulePath)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("query latest version: status %d: %s", resp.StatusCode, body)
	}

	var info proxyInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode proxy response: %w", err)
	}
	if info.Version == "" {
		return "", fmt.Errorf("%w: %s", ErrVersionNotFound, modulePath)
	}

	if v.cache != nil {
		if err := v.cache.Set(ctx, cacheKey, info.Version, v.cacheTTL); err != nil {
			v.logger.Warn("version cache set failed",
				zap.String("module", modulePath), zap.Error(err))
		}
	}

	return info.Version, nil
}

// IsUpToDate 判断 previous 版本是否已经是最新版本。
// 无法解析的版本按字符串相等比较（伪版本场景）。
func IsUpToDate(previous, latest string) bool {
	if previous == "" || latest == "" {
		return false
	}
	pv, err1 := semver.NewVersion(strings.TrimPrefix(previous, "v"))
	lv, err2 := semver.NewVersion(strings.TrimPrefix(latest, "v"))
	if err1 != nil || err2 != nil {
		return previous == latest
	}
	return !pv.LessThan(lv)
}

// escapeModulePath 按模块代理协议转义路径中的大写字母。
// 例如 github.com/Foo/Bar → github.com/!foo/!bar
func escapeModulePath(path string) string {
	var b strings.Builder
	for _, r := range path {
		if unicode.IsUpper(r) {
			b.WriteByte('!')
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
