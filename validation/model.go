package validation

import (
	"fmt"
	"strings"

	"github.com/BaSui01/storeflow/store"
)

// 插件类型
const (
	TypeApplication = "application"
	TypeLibrary     = "library"
)

// PluginPublishInfo 插件发布信息，校验的输入
type PluginPublishInfo struct {
	// ModuleName 插件 import 路径
	ModuleName string `json:"module_name"`
	// ProjectLink 插件模块路径
	ProjectLink string `json:"project_link"`
	// Name 插件名称
	Name string `json:"name"`
	// Desc 插件描述
	Desc string `json:"desc"`
	// Author 作者
	Author string `json:"author"`
	// Homepage 主页
	Homepage string `json:"homepage"`
	// Tags 标签列表
	Tags []store.Tag `json:"tags"`
	// PluginTestResult 加载测试是否通过
	PluginTestResult bool `json:"plugin_test_result"`
	// Type 插件类型
	Type string `json:"type"`
	// SupportedAdapters 支持的适配器，nil 表示全部
	SupportedAdapters []string `json:"supported_adapters"`
}

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Report 校验结果
type Report struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Message 渲染校验结果为可读信息
func (r Report) Message() string {
	if r.Valid {
		return ""
	}
	lines := make([]string, 0, len(r.Errors)+1)
	lines = append(lines, fmt.Sprintf("发现 %d 处错误", len(r.Errors)))
	for _, e := range r.Errors {
		lines = append(lines, fmt.Sprintf("  %s: %s", e.Field, e.Message))
	}
	return strings.Join(lines, "\n")
}

// Outcome 元数据校验的完整结果
type Outcome struct {
	// Valid 是否通过校验
	Valid bool `json:"valid"`
	// Raw 参与校验的原始数据，缺少元数据时为空
	Raw *PluginPublishInfo `json:"raw,omitempty"`
	// Current 校验通过后合并元数据得到的插件数据
	Current *store.Plugin `json:"current,omitempty"`
	// Errors 逐字段的校验错误
	Errors []FieldError `json:"errors,omitempty"`
	// Message 校验失败原因
	Message string `json:"message,omitempty"`
}
