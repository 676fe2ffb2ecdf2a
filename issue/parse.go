package issue

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMissingPluginInfo 议题中缺少插件信息
var ErrMissingPluginInfo = errors.New("issue has no plugin info")

// 议题模板中的信息段落，标题后跟单行内容
var (
	projectLinkPattern = headingPattern("模块路径")
	moduleNamePattern  = headingPattern("插件 import 路径")
	configPattern      = regexp.MustCompile("### 插件配置项\\s+```(?:\\w+)?[ \t]*\n?([\\s\\S]*?)```")
)

// headingPattern 匹配 "### 标题" 后的第一个非空行
func headingPattern(heading string) *regexp.Regexp {
	return regexp.MustCompile(`### ` + regexp.QuoteMeta(heading) + `\s+([^\s#][^\n]*)`)
}

// Submission 从议题中提取的插件提交信息
type Submission struct {
	// ProjectLink 插件模块路径
	ProjectLink string
	// ModuleName 插件 import 路径
	ModuleName string
	// Config 可选插件配置项，原样保留
	Config string
	// HasConfig 议题是否包含配置项段落
	HasConfig bool
}

// Parse 从议题正文提取插件提交信息。
// 模块路径与 import 路径缺一不可，配置项可选。
func Parse(body string) (*Submission, error) {
	projectLink := firstGroup(projectLinkPattern, body)
	moduleName := firstGroup(moduleNamePattern, body)

	if projectLink == "" || moduleName == "" {
		return nil, ErrMissingPluginInfo
	}

	sub := &Submission{
		ProjectLink: strings.TrimSpace(projectLink),
		ModuleName:  strings.TrimSpace(moduleName),
	}

	if m := configPattern.FindStringSubmatch(body); m != nil {
		sub.Config = strings.TrimSpace(m[1])
		sub.HasConfig = true
	}

	return sub, nil
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}
