// =============================================================================
// 📦 StoreFlow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Store:     DefaultStoreConfig(),
		Runner:    DefaultRunnerConfig(),
		Scan:      DefaultScanConfig(),
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultStoreConfig 返回默认商店数据源配置
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		PluginsURL:         "https://store.agentflow.dev/plugins.json",
		RegistryPluginsURL: "https://registry.agentflow.dev/plugins.json",
		ResultsURL:         "https://registry.agentflow.dev/results.json",
		PluginConfigURL:    "https://registry.agentflow.dev/plugin_configs.json",
		ProxyURL:           "https://proxy.golang.org",
		RequestTimeout:     30 * time.Second,
		RateLimitRPS:       5,
		RateLimitBurst:     10,
	}
}

// DefaultRunnerConfig 返回默认插件加载测试配置
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Toolchain:     "go",
		WorkDir:       "plugin_test",
		HostModule:    "github.com/BaSui01/agentflow",
		HostVersion:   "latest",
		CreateTimeout: 5 * time.Minute,
		ListTimeout:   1 * time.Minute,
		RunTimeout:    3 * time.Minute,
		// 评论最大长度为 65536，留出余量
		OutputLimit: 50000,
	}
}

// DefaultScanConfig 返回默认批量测试配置
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Limit:       1,
		Offset:      0,
		Concurrency: 1,
		Force:       false,
		OutputDir:   "plugin_test/output",
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		TTL:          1 * time.Hour,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
// Driver 留空表示不记录测试历史
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "",
		Host:            "localhost",
		Port:            5432,
		User:            "storeflow",
		Password:        "",
		Name:            "storeflow",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: false,
		Addr:    ":9091",
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "storeflow",
		SampleRate:   1.0,
	}
}
