// Package validation 提供插件发布信息的声明式校验。
//
// 字段规则与商店登记表保持一致：名称长度、标签数量与颜色、
// 插件类型、支持的适配器以及主页可达性。校验结果以字段错误
// 列表的形式返回，便于渲染到议题评论与作业摘要中。
package validation
