package ci

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"os"
	"regexp"
	"unicode/utf8"

	"github.com/BaSui01/storeflow/store"
)

// ErrNoMetadata 输出中没有元数据块
var ErrNoMetadata = errors.New("no metadata in output")

// metadataPattern 匹配驱动脚本写入的元数据块
var metadataPattern = regexp.MustCompile(`METADATA<<EOF\s([\s\S]+?)\sEOF`)

// Reporter GitHub Actions 输出写入器
//
// 输出文件路径可覆盖：批量测试时重定向到每个插件单独的文件。
type Reporter struct {
	outputPath  string
	summaryPath string
}

// FromEnv 按 GITHUB_OUTPUT / GITHUB_STEP_SUMMARY 环境变量创建写入器
func FromEnv() *Reporter {
	return &Reporter{
		outputPath:  os.Getenv("GITHUB_OUTPUT"),
		summaryPath: os.Getenv("GITHUB_STEP_SUMMARY"),
	}
}

// New 创建指定路径的写入器
func New(outputPath, summaryPath string) *Reporter {
	return &Reporter{outputPath: outputPath, summaryPath: summaryPath}
}

// OutputPath 返回输出变量文件路径
func (r *Reporter) OutputPath() string { return r.outputPath }

// appendFile 追加内容到文件，路径为空时静默丢弃（本地运行场景）
func appendFile(path, content string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("append output: %w", err)
	}
	return nil
}

// SetValue 追加 KEY=VALUE 形式的输出变量
func (r *Reporter) SetValue(key, value string) error {
	return appendFile(r.outputPath, fmt.Sprintf("%s=%s\n", key, value))
}

// SetMultiline 追加 KEY<<EOF 形式的多行输出变量
func (r *Reporter) SetMultiline(key, value string) error {
	return appendFile(r.outputPath, fmt.Sprintf("%s<<EOF\n%s\nEOF\n", key, value))
}

// AppendSummary 追加作业摘要
func (r *Reporter) AppendSummary(content string) error {
	return appendFile(r.summaryPath, content)
}

// RenderSummary 渲染单个插件的测试结果摘要
func RenderSummary(projectLink string, passed bool, output string) string {
	status := "未通过"
	if passed {
		status = "通过"
	}
	summary := fmt.Sprintf("插件 %s 加载测试结果：%s\n", projectLink, status)
	summary += fmt.Sprintf(
		"<details><summary>测试输出</summary><pre><code>%s</code></pre></details>",
		html.EscapeString(output),
	)
	return summary
}

// Truncate 按字节上限截断输出，防止评论过长。
// 截断点回退到字符边界，不会把多字节字符切成半个。
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// ExtractMetadata 从记录的输出文件中提取插件元数据
func ExtractMetadata(outputFile string) (*store.Metadata, error) {
	data, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, fmt.Errorf("read output file: %w", err)
	}
	return ParseMetadata(string(data))
}

// ParseMetadata 从输出文本中提取插件元数据
func ParseMetadata(output string) (*store.Metadata, error) {
	m := metadataPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, ErrNoMetadata
	}

	var meta store.Metadata
	if err := json.Unmarshal([]byte(m[1]), &meta); err != nil {
		return nil, fmt.Errorf("parse metadata json: %w", err)
	}
	return &meta, nil
}
