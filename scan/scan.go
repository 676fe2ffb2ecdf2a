package scan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/storeflow/ci"
	"github.com/BaSui01/storeflow/config"
	"github.com/BaSui01/storeflow/internal/metrics"
	"github.com/BaSui01/storeflow/runner"
	"github.com/BaSui01/storeflow/store"
	"github.com/BaSui01/storeflow/validation"
)

// 跳过原因
const (
	SkipGitSourced = "git_sourced"
	SkipUpToDate   = "up_to_date"
)

// Skip 一次跳过记录
type Skip struct {
	Key    string
	Reason string
}

// Summary 批量测试汇总
type Summary struct {
	// Total 商店插件总数
	Total int
	// Tested 本次实际测试的插件标识符，按商店顺序
	Tested []string
	// Skipped 跳过的插件及原因
	Skipped []Skip
	// Results 合并后的全量结果
	Results map[string]store.TestResult
	// Elapsed 总耗时
	Elapsed time.Duration
}

// StoreTest 商店批量测试
type StoreTest struct {
	cfg       *config.Config
	client    *store.Client
	versions  *store.VersionSource
	validator *validation.Validator
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewStoreTest 创建批量测试
func NewStoreTest(cfg *config.Config, logger *zap.Logger) *StoreTest {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreTest{
		cfg:      cfg,
		client:   store.NewClient(cfg.Store, logger),
		versions: store.NewVersionSource(cfg.Store, logger),
		// 批量场景不逐个访问插件主页
		validator: validation.NewValidator(logger).WithSkipHomepage(true),
		logger:    logger.With(zap.String("component", "scan")),
	}
}

// WithClient 替换商店数据客户端
func (s *StoreTest) WithClient(c *store.Client) *StoreTest {
	s.client = c
	return s
}

// WithVersionSource 替换版本查询器
func (s *StoreTest) WithVersionSource(v *store.VersionSource) *StoreTest {
	s.versions = v
	return s
}

// WithValidator 替换校验器
func (s *StoreTest) WithValidator(v *validation.Validator) *StoreTest {
	s.validator = v
	return s
}

// WithCollector 设置指标收集器
func (s *StoreTest) WithCollector(c *metrics.Collector) *StoreTest {
	s.collector = c
	return s
}

// Run 执行批量测试
func (s *StoreTest) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	// 收集器就位后商店拉取与版本缓存也计入指标
	if s.collector != nil {
		s.client.WithObserver(s.collector)
		s.versions.WithCacheObserver(s.collector)
	}

	idx, err := s.client.Plugins(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store plugins: %w", err)
	}
	registry, err := s.client.RegistryPlugins(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry plugins: %w", err)
	}
	previous, err := s.client.PreviousResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("load previous results: %w", err)
	}
	configs, err := s.client.PluginConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load plugin configs: %w", err)
	}

	summary := &Summary{Total: idx.Len()}
	candidates := s.selectCandidates(ctx, idx, previous, summary)
	s.logger.Info("待测插件筛选完成",
		zap.Int("total", summary.Total),
		zap.Int("candidates", len(candidates)),
		zap.Int("skipped", len(summary.Skipped)),
	)

	fresh := make(map[string]store.TestResult, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Scan.Concurrency)

	for _, key := range candidates {
		g.Go(func() error {
			result, err := s.testOne(gctx, idx, registry, previous, configs, key)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			fresh[key] = *result
			// 每完成一个插件就落盘一次，中途失败不丢进度
			merged := Merge(idx, previous, fresh)
			if err := WriteResults(s.cfg.Scan.OutputDir, idx, merged); err != nil {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Results = Merge(idx, previous, fresh)
	for _, key := range idx.Keys() {
		if _, ok := fresh[key]; ok {
			summary.Tested = append(summary.Tested, key)
		}
	}
	summary.Elapsed = time.Since(start)

	if err := WriteResults(s.cfg.Scan.OutputDir, idx, summary.Results); err != nil {
		return nil, err
	}

	s.logger.Info("批量测试完成",
		zap.Int("tested", len(summary.Tested)),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// selectCandidates 按商店顺序筛选待测插件
func (s *StoreTest) selectCandidates(ctx context.Context, idx *store.Index, previous map[string]store.TestResult, summary *Summary) []string {
	keys := idx.Keys()
	if offset := s.cfg.Scan.Offset; offset > 0 && offset < len(keys) {
		keys = keys[offset:]
	} else if s.cfg.Scan.Offset >= len(keys) {
		return nil
	}

	var candidates []string
	for _, key := range keys {
		if s.cfg.Scan.Limit > 0 && len(candidates) >= s.cfg.Scan.Limit {
			break
		}

		plugin, _ := idx.ByKey(key)
		if plugin.IsGitSourced() {
			s.skip(summary, key, SkipGitSourced)
			continue
		}

		if !s.cfg.Scan.Force {
			if prev, ok := previous[key]; ok && s.upToDate(ctx, plugin, prev) {
				s.skip(summary, key, SkipUpToDate)
				continue
			}
		}

		candidates = append(candidates, key)
	}
	return candidates
}

// upToDate 查询模块代理判断插件版本是否已是最新。
// 查询失败时不跳过，照常测试。
func (s *StoreTest) upToDate(ctx context.Context, plugin store.Plugin, prev store.TestResult) bool {
	latest, err := s.versions.Latest(ctx, plugin.ProjectLink)
	if err != nil {
		if !errors.Is(err, store.ErrVersionNotFound) {
			s.logger.Warn("版本查询失败",
				zap.String("plugin", plugin.Key()),
				zap.Error(err),
			)
		}
		return false
	}
	return store.IsUpToDate(prev.Version, latest)
}

func (s *StoreTest) skip(summary *Summary, key, reason string) {
	summary.Skipped = append(summary.Skipped, Skip{Key: key, Reason: reason})
	if s.collector != nil {
		s.collector.RecordSkip(reason)
	}
	s.logger.Debug("跳过插件", zap.String("plugin", key), zap.String("reason", reason))
}

// testOne 测试单个插件并组装结果
func (s *StoreTest) testOne(
	ctx context.Context,
	idx *store.Index,
	registry map[string]store.Plugin,
	previous map[string]store.TestResult,
	configs map[string]string,
	key string,
) (*store.TestResult, error) {
	// 配置项优先取登记表，缺失时沿用上次测试的配置
	pluginConfig := configs[key]
	if pluginConfig == "" {
		if prev, ok := previous[key]; ok {
			pluginConfig = prev.Config
		}
	}

	dirName := strings.NewReplacer(":", "-", "/", "-").Replace(key)
	reporter := ci.New(filepath.Join(s.cfg.Scan.OutputDir, dirName+"-output.txt"), "")

	pt, err := runner.NewPluginTest(s.cfg.Runner, key, pluginConfig, s.logger)
	if err != nil {
		return nil, err
	}
	pt.WithStoreIndex(idx).WithReporter(reporter)

	testStart := time.Now()
	res, err := pt.Run(ctx)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(testStart)
	if s.collector != nil {
		s.collector.RecordPluginTest(res.Run, elapsed)
	}

	meta, err := ci.ParseMetadata(res.Output)
	if err != nil && !errors.Is(err, ci.ErrNoMetadata) {
		s.logger.Warn("元数据解析失败", zap.String("plugin", key), zap.Error(err))
	}

	plugin, ok := registry[key]
	if !ok {
		plugin, _ = idx.ByKey(key)
	}
	outcome := s.validator.ValidateMetadata(ctx, res.Run, plugin, meta)
	if s.collector != nil {
		for _, fe := range outcome.Errors {
			s.collector.RecordValidationFailure(fe.Field)
		}
	}

	result := &store.TestResult{
		Time:              time.Now().UTC(),
		Version:           res.Version,
		Config:            pluginConfig,
		Run:               res.Run,
		Valid:             outcome.Valid,
		Metadata:          meta,
		ValidationMessage: outcome.Message,
		Previous:          &plugin,
		Current:           outcome.Current,
		Elapsed:           elapsed,
		OutputSize:        len(res.Output),
	}
	return result, nil
}
