package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/storeflow/ci"
	"github.com/BaSui01/storeflow/config"
	"github.com/BaSui01/storeflow/internal/results"
	"github.com/BaSui01/storeflow/internal/telemetry"
	"github.com/BaSui01/storeflow/issue"
	"github.com/BaSui01/storeflow/runner"
	"github.com/BaSui01/storeflow/store"
	"github.com/BaSui01/storeflow/validation"
)

// =============================================================================
// 🧪 test 命令：单插件测试（议题模式）
// =============================================================================

func runTest(args []string) {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	key := fs.String("key", "", "Plugin key (project_link:module_name), skips event parsing")
	pluginConfig := fs.String("plugin-config", "", "KEY=VALUE plugin config lines")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	ctx := context.Background()

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer shutdownTelemetry(otelProviders)

	reporter := ci.FromEnv()

	// 未显式指定插件时，从 GitHub 事件负载提取
	testKey, testConfig := *key, *pluginConfig
	if testKey == "" {
		sub, err := submissionFromEvent(logger)
		if err != nil {
			if errors.Is(err, issue.ErrNotApplicable) {
				logger.Info("事件与插件发布无关，跳过", zap.Error(err))
				return
			}
			// 议题缺少插件信息按跳过处理，但测试结果仍要写回工作流
			logger.Warn("无法从议题中提取插件信息", zap.Error(err))
			reporter.SetValue("RESULT", "false")
			reporter.SetMultiline("OUTPUT", fmt.Sprintf("无法从议题中提取插件信息：%v", err))
			return
		}
		testKey = sub.ProjectLink + ":" + sub.ModuleName
		testConfig = sub.Config
	}

	// 商店索引用于依赖反查，拉取失败不阻塞测试
	client := store.NewClient(cfg.Store, logger)
	idx, err := client.Plugins(ctx)
	if err != nil {
		logger.Warn("获取商店插件列表失败", zap.Error(err))
		idx = nil
	}

	pt, err := runner.NewPluginTest(cfg.Runner, testKey, testConfig, logger)
	if err != nil {
		logger.Error("创建插件测试失败", zap.Error(err))
		reporter.SetValue("RESULT", "false")
		reporter.SetMultiline("OUTPUT", fmt.Sprintf("创建插件测试失败：%v", err))
		os.Exit(1)
	}
	pt = pt.WithReporter(reporter)
	if idx != nil {
		pt = pt.WithStoreIndex(idx)
	}

	testStart := time.Now()
	res, err := pt.Run(ctx)
	if err != nil {
		logger.Error("插件测试执行失败", zap.Error(err))
		os.Exit(1)
	}
	elapsed := time.Since(testStart)

	// 元数据提取与发布信息校验
	meta, err := ci.ParseMetadata(res.Output)
	if err != nil && !errors.Is(err, ci.ErrNoMetadata) {
		logger.Warn("解析插件元数据失败", zap.Error(err))
	}

	projectLink, moduleName, _ := strings.Cut(testKey, ":")
	plugin := store.Plugin{ProjectLink: projectLink, ModuleName: moduleName}
	if idx != nil {
		if p, ok := idx.ByKey(testKey); ok {
			plugin = p
		}
	}

	validator := validation.NewValidator(logger)
	outcome := validator.ValidateMetadata(ctx, res.Run, plugin, meta)

	reporter.SetValue("VALID", strconv.FormatBool(outcome.Valid))
	if outcome.Message != "" {
		reporter.SetMultiline("VALIDATION_MESSAGE", outcome.Message)
	}
	if outcome.Current != nil {
		if data, err := json.MarshalIndent(outcome.Current, "", "  "); err == nil {
			reporter.SetMultiline("PLUGIN_INFO", string(data))
		}
	}

	recordResult(ctx, cfg, logger, testKey, store.TestResult{
		Time:              time.Now().UTC(),
		Version:           res.Version,
		Config:            testConfig,
		Run:               res.Run,
		Valid:             outcome.Valid,
		Metadata:          meta,
		ValidationMessage: outcome.Message,
		Current:           outcome.Current,
		Elapsed:           elapsed,
		OutputSize:        len(res.Output),
	})

	logger.Info("插件测试完成",
		zap.String("key", testKey),
		zap.String("version", res.Version),
		zap.Bool("run", res.Run),
		zap.Bool("valid", outcome.Valid),
	)
}

// submissionFromEvent 从事件负载提取插件提交信息
func submissionFromEvent(logger *zap.Logger) (*issue.Submission, error) {
	ev, eventName, err := issue.ReadEventFromEnv()
	if err != nil {
		return nil, err
	}

	if err := issue.Gate(eventName, ev); err != nil {
		return nil, err
	}

	logger.Info("处理插件发布议题",
		zap.String("event", eventName),
		zap.Int("issue", ev.Issue.Number),
		zap.String("title", ev.Issue.Title),
	)
	return issue.Parse(ev.Issue.Body)
}

// recordResult 在配置了数据库时落库测试结果，失败仅告警
func recordResult(ctx context.Context, cfg *config.Config, logger *zap.Logger, key string, r store.TestResult) {
	if cfg.Database.Driver == "" {
		return
	}

	db, err := results.Open(cfg.Database, logger)
	if err != nil {
		logger.Warn("数据库不可用，跳过结果落库", zap.Error(err))
		return
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.Warn("数据库表结构迁移失败", zap.Error(err))
		return
	}
	if err := db.RecordResult(ctx, key, r); err != nil {
		logger.Warn("测试结果落库失败", zap.Error(err))
	}
}

// shutdownTelemetry 刷新并关闭遥测导出器
func shutdownTelemetry(p *telemetry.Providers) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}
