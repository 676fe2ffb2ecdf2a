// Package results 持久化插件测试的历史记录。
//
// results.json 是发布给商店前端的快照，这里另存一份带时间线的
// 运行历史，便于排查插件何时开始失败。数据库为可选依赖，
// 配置中不指定驱动时整个包不会被启用。
package results
