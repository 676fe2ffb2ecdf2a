// 版权所有 2025 StoreFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的版本查询缓存。

# 概述

本包封装 go-redis 客户端，在批量扫描期间缓存模块代理的
@latest 查询结果，避免对同一模块重复请求。Manager 实现
store.VersionCache 接口，负责连接生命周期管理。

# 核心类型

  - Manager：缓存管理器，持有 Redis 客户端与连接池配置，
    提供 Get/Set/Delete/Ping/Close 等操作。

# 主要能力

  - 键值读写：TTL 为零时回落到配置的默认过期时间。
  - 连接池管理：通过 PoolSize 与 MinIdleConns 控制连接复用。
  - 优雅关闭：Close 方法安全释放底层 Redis 连接。
  - 错误语义：提供 ErrCacheMiss 哨兵错误与 IsCacheMiss 判断函数。
*/
package cache
