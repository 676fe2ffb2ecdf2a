package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/storeflow/ci"
	"github.com/BaSui01/storeflow/config"
	"github.com/BaSui01/storeflow/internal/cache"
	"github.com/BaSui01/storeflow/internal/metrics"
	"github.com/BaSui01/storeflow/internal/results"
	"github.com/BaSui01/storeflow/internal/telemetry"
	"github.com/BaSui01/storeflow/scan"
	"github.com/BaSui01/storeflow/store"
)

// =============================================================================
// 🏪 store 命令：商店批量测试
// =============================================================================

func runStore(args []string) {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	limit := fs.Int("limit", 0, "Max number of plugins to test")
	offset := fs.Int("offset", 0, "Skip the first n plugins in store order")
	force := fs.Bool("force", false, "Retest plugins even when up to date")
	key := fs.String("key", "", "Test a single store plugin by key")
	fs.Parse(args)

	cfg := loadConfig(*configPath)

	// 命令行参数覆盖配置文件
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "limit":
			cfg.Scan.Limit = *limit
		case "offset":
			cfg.Scan.Offset = *offset
		case "force":
			cfg.Scan.Force = *force
		}
	})

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer shutdownTelemetry(otelProviders)

	client := store.NewClient(cfg.Store, logger)

	// 指定单插件时按商店顺序定位，只测这一个
	if *key != "" {
		idx, err := client.Plugins(ctx)
		if err != nil {
			logger.Error("获取商店插件列表失败", zap.Error(err))
			os.Exit(1)
		}
		pos := -1
		for i, k := range idx.Keys() {
			if k == *key {
				pos = i
				break
			}
		}
		if pos < 0 {
			logger.Error("插件不在商店中", zap.String("key", *key))
			os.Exit(1)
		}
		cfg.Scan.Offset = pos
		cfg.Scan.Limit = 1
		cfg.Scan.Force = true
	}

	st := scan.NewStoreTest(cfg, logger).WithClient(client)

	// 批量测试期间暴露 Prometheus 指标
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector("storeflow", logger)
		st = st.WithCollector(collector)
		go func() {
			if err := collector.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Warn("指标服务退出", zap.Error(err))
			}
		}()
	}

	// Redis 可用时缓存模块代理的版本查询
	if cfg.Redis.Enabled {
		manager, err := cache.NewManager(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 不可用，版本查询不走缓存", zap.Error(err))
		} else {
			defer manager.Close()
			st = st.WithVersionSource(
				store.NewVersionSource(cfg.Store, logger).WithCache(manager, cfg.Redis.TTL),
			)
		}
	}

	summary, err := st.Run(ctx)
	if err != nil {
		logger.Error("批量测试失败", zap.Error(err))
		os.Exit(1)
	}

	rendered := summary.RenderTable()
	fmt.Println(rendered)
	if err := ci.FromEnv().AppendSummary(rendered); err != nil {
		logger.Warn("写入作业摘要失败", zap.Error(err))
	}

	recordSummary(ctx, cfg, logger, summary)
}

// recordSummary 在配置了数据库时落库本次测试的全部结果
func recordSummary(ctx context.Context, cfg *config.Config, logger *zap.Logger, summary *scan.Summary) {
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

	for _, key := range summary.Tested {
		if err := db.RecordResult(ctx, key, summary.Results[key]); err != nil {
			logger.Warn("测试结果落库失败", zap.String("key", key), zap.Error(err))
		}
	}
}
