package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/storeflow/config"
)

// FetchObserver 商店数据拉取观测接口，由 internal/metrics 实现
type FetchObserver interface {
	RecordStoreFetch(resource, status string)
}

// Client 商店数据客户端
type Client struct {
	cfg        config.StoreConfig
	httpClient *http.Client
	observer   FetchObserver
	logger     *zap.Logger
}

// NewClient 创建商店数据客户端
func NewClient(cfg config.StoreConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.With(zap.String("component", "store_client")),
	}
}

// WithHTTPClient 替换 HTTP 客户端，测试用
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithObserver 设置拉取观测器
func (c *Client) WithObserver(o FetchObserver) *Client {
	c.observer = o
	return c
}

// fetchJSON 下载并解析 JSON 文件，按资源名记录拉取结果
func (c *Client) fetchJSON(ctx context.Context, resource, url string, dest any) error {
	err := c.doFetch(ctx, url, dest)
	if c.observer != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.observer.RecordStoreFetch(resource, status)
	}
	return err
}

func (c *Client) doFetch(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("fetch %s: status %d: %s", url, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}

	c.logger.Debug("store data fetched", zap.String("url", url))
	return nil
}

// Plugins 获取商店插件列表并构建索引
func (c *Client) Plugins(ctx context.Context) (*Index, error) {
	var plugins []Plugin
	if err := c.fetchJSON(ctx, "plugins", c.cfg.PluginsURL, &plugins); err != nil {
		return nil, err
	}
	c.logger.Info("store plugins loaded", zap.Int("count", len(plugins)))
	return NewIndex(plugins), nil
}

// RegistryPlugins 获取仓库插件数据（含作者等补充信息）
func (c *Client) RegistryPlugins(ctx context.Context) (map[string]Plugin, error) {
	var plugins []Plugin
	if err := c.fetchJSON(ctx, "registry_plugins", c.cfg.RegistryPluginsURL, &plugins); err != nil {
		return nil, err
	}
	result := make(map[string]Plugin, len(plugins))
	for _, p := range plugins {
		result[p.Key()] = p
	}
	return result, nil
}

// PreviousResults 获取上次测试结果
func (c *Client) PreviousResults(ctx context.Context) (map[string]TestResult, error) {
	results := make(map[string]TestResult)
	if err := c.fetchJSON(ctx, "results", c.cfg.ResultsURL, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// PluginConfigs 获取插件配置项登记表
func (c *Client) PluginConfigs(ctx context.Context) (map[string]string, error) {
	configs := make(map[string]string)
	if err := c.fetchJSON(ctx, "plugin_configs", c.cfg.PluginConfigURL, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}
