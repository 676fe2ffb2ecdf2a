// Package runner 执行单个插件的加载测试。
//
// 流程与发布审核工作流保持一致：在隔离目录中初始化一个一次性
// 测试模块，用工具链拉取宿主框架与候选插件，生成驱动程序源码
// 并运行。驱动程序把插件自报的元数据以 METADATA<<EOF 块写到
// 标准输出，所有命令输出按顺序记录并截断后写入 CI 输出通道。
package runner
