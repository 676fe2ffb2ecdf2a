// Package store 提供插件商店数据的获取与索引。
//
// 包含商店插件列表、仓库数据与上次测试结果的加载，
// 以及基于模块代理的最新版本查询（带限速与缓存）。
package store
