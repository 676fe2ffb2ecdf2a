// Package issue 提供议题驱动发布流程的事件解析。
//
// 从 GITHUB_EVENT_PATH 读取事件负载，判断事件是否与插件发布相关，
// 并用正则从议题正文中提取模块路径、import 路径与可选配置项。
package issue
