// Package ci 提供 GitHub Actions 输出通道的读写。
//
// 负责向 GITHUB_OUTPUT 追加输出变量（含多行 EOF 格式）、
// 向 GITHUB_STEP_SUMMARY 追加作业摘要，以及从记录的输出
// 文件中提取插件元数据。格式由 CI 环境定义，这里按原样读写。
package ci
