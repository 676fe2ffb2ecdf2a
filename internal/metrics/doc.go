// 版权所有 2025 StoreFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖插件测试、
元数据校验、商店数据拉取与版本缓存四个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
批量扫描期间可通过 Serve 暴露 /metrics 端点。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram 等
    Prometheus 向量指标，按业务域分组管理。

# 主要能力

  - 插件测试指标：测试总数与耗时按 passed/failed 分组，
    跳过计数按原因分组。
  - 校验指标：字段校验失败计数，按 field 分组。
  - 商店数据指标：拉取总数按 resource/status 分组。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。
*/
package metrics
