// Copyright (c) StoreFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 StoreFlow 命令行程序入口。

# 概述

cmd/storeflow 是插件商店测试工具的可执行入口，提供议题单插件测试、
商店批量测试、数据库迁移和版本查询等子命令。程序支持 YAML 配置文件
加载、结构化日志（zap）、Prometheus 指标采集以及 OpenTelemetry 遥测。

# 主要能力

  - 子命令：test（议题模式单插件测试）、store（批量测试）、
    migrate（数据库迁移）、version
  - 议题模式：从 GITHUB_EVENT_PATH 事件负载提取插件提交信息，
    测试结果与校验结论写回 GITHUB_OUTPUT / GITHUB_STEP_SUMMARY
  - 批量模式：--limit/--offset/--force/--key 控制测试范围，
    结果增量落盘并渲染汇总表格
  - 可选依赖：Redis 版本缓存、Prometheus 指标端口、结果数据库，
    任一不可用时降级运行
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
