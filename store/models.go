package store

import (
	"fmt"
	"strings"
	"time"
)

// Tag 插件标签
type Tag struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Plugin 商店插件数据
type Plugin struct {
	// ModuleName 插件 import 路径
	ModuleName string `json:"module_name"`
	// ProjectLink 插件模块路径（发布到代理的模块）
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
	Tags []Tag `json:"tags"`
	// IsOfficial 是否为官方插件
	IsOfficial bool `json:"is_official"`
	// Type 插件类型: application, library
	Type string `json:"type"`
	// SupportedAdapters 支持的适配器，null 表示全部
	SupportedAdapters []string `json:"supported_adapters"`
}

// Key 返回插件标识符，形如 "project_link:module_name"
func (p Plugin) Key() string {
	return fmt.Sprintf("%s:%s", p.ProjectLink, p.ModuleName)
}

// IsGitSourced 判断插件是否来自 Git 地址而非模块代理。
// 这类插件无法通过包管理器安装，测试时跳过。
func (p Plugin) IsGitSourced() bool {
	return strings.HasPrefix(p.ProjectLink, "git+http")
}

// Metadata 插件加载后自报的元数据
type Metadata struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Homepage          string   `json:"homepage"`
	Type              string   `json:"type"`
	SupportedAdapters []string `json:"supported_adapters"`
}

// TestResult 单个插件的测试结果
type TestResult struct {
	// Time 测试时间
	Time time.Time `json:"time"`
	// Version 测试时的插件版本
	Version string `json:"version"`
	// Config 测试时使用的插件配置
	Config string `json:"config"`
	// Run 插件是否加载成功
	Run bool `json:"run"`
	// Valid 元数据是否通过校验
	Valid bool `json:"valid"`
	// Metadata 提取到的元数据，可能为空
	Metadata *Metadata `json:"metadata"`
	// ValidationMessage 校验失败原因
	ValidationMessage string `json:"validation_message,omitempty"`
	// Previous 商店中登记的插件数据
	Previous *Plugin `json:"previous,omitempty"`
	// Current 校验通过后的插件数据
	Current *Plugin `json:"current,omitempty"`

	// Elapsed 测试耗时，仅用于落库，不写入 results.json
	Elapsed time.Duration `json:"-"`
	// OutputSize 测试输出字节数，仅用于落库
	OutputSize int `json:"-"`
}

// Index 商店插件索引
type Index struct {
	// byLink 按模块路径索引，用于依赖反查
	byLink map[string]Plugin
	// byKey 按标识符索引，保持商店顺序
	byKey map[string]Plugin
	keys  []string
}

// NewIndex 根据商店插件列表构建索引
func NewIndex(plugins []Plugin) *Index {
	idx := &Index{
		byLink: make(map[string]Plugin, len(plugins)),
		byKey:  make(map[string]Plugin, len(plugins)),
	}
	for _, p := range plugins {
		idx.byLink[p.ProjectLink] = p
		key := p.Key()
		if _, exists := idx.byKey[key]; !exists {
			idx.keys = append(idx.keys, key)
		}
		idx.byKey[key] = p
	}
	return idx
}

// ByProjectLink 按模块路径查找插件
func (i *Index) ByProjectLink(link string) (Plugin, bool) {
	p, ok := i.byLink[link]
	return p, ok
}

// ByKey 按标识符查找插件
func (i *Index) ByKey(key string) (Plugin, bool) {
	p, ok := i.byKey[key]
	return p, ok
}

// Keys 返回商店顺序的插件标识符列表
func (i *Index) Keys() []string {
	return i.keys
}

// Len 返回插件数量
func (i *Index) Len() int {
	return len(i.keys)
}
