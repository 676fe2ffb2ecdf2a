// Package scan 对商店内全部插件做批量加载测试。
//
// 按商店顺序筛选待测插件：Git 来源的插件无法通过包管理器安装，
// 直接跳过；上次测试后版本未更新的插件默认跳过。筛选后的插件
// 在有限并发下测试，每完成一个就把合并后的结果落盘，中途失败
// 也不丢失已有进度。合并结果保持商店顺序，未测试的插件沿用
// 上一次的结果。
package scan
