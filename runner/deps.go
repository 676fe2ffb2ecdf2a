package runner

import (
	"regexp"
	"strings"

	"github.com/BaSui01/storeflow/store"
)

// moduleLinePattern 匹配模块列表的单行输出，形如
// "github.com/a/b v1.2.3"，替换指令带 "=> path version" 后缀。
// 首行的主模块没有版本号，不匹配。
var moduleLinePattern = regexp.MustCompile(`^(\S+)\s+(\S+?)(?:\s+=>\s+\S+(?:\s+\S+)?)?$`)

// Module 依赖列表中的一个模块
type Module struct {
	Path    string
	Version string
}

// ParseModuleList 解析工具链输出的模块依赖列表
func ParseModuleList(output string) []Module {
	var modules []Module
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := moduleLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		modules = append(modules, Module{Path: m[1], Version: m[2]})
	}
	return modules
}

// StoreDependencies 从依赖列表中反查商店插件。
// 候选插件自身不算依赖，结果保持依赖列表顺序并去重。
func StoreDependencies(idx *store.Index, modules []Module, candidateLink string) []store.Plugin {
	if idx == nil {
		return nil
	}

	var deps []store.Plugin
	seen := make(map[string]struct{})
	for _, mod := range modules {
		if mod.Path == candidateLink {
			continue
		}
		plugin, ok := idx.ByProjectLink(mod.Path)
		if !ok {
			continue
		}
		if _, dup := seen[plugin.Key()]; dup {
			continue
		}
		seen[plugin.Key()] = struct{}{}
		deps = append(deps, plugin)
	}
	return deps
}
