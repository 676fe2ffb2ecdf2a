package runner

import (
	"fmt"
	"strings"
	"text/template"
)

// driverTemplate 驱动程序模板。
//
// 渲染结果写入测试模块后由工具链编译运行，本模块自身不编译它。
// 发布约定：候选插件包导出包级 Plugin（plugins.Plugin 实现）与
// Metadata（plugins.PluginMetadata）两个变量；驱动程序把它们注册进
// 一个全新的宿主注册表并完成初始化，依赖的商店插件仍以空白导入
// 带入模块图。注册、初始化或查找任一步失败都以非零退出。
const driverTemplate = `package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BaSui01/agentflow/agent/plugins"

	candidate "{{ .ModuleName }}"
{{- range .Deps }}
	_ "{{ . }}"
{{- end }}
)

func main() {
	registry := plugins.NewInMemoryPluginRegistry(nil)
	if err := registry.Register(candidate.Plugin, candidate.Metadata); err != nil {
		fmt.Printf("插件注册失败: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer registry.ShutdownAll(ctx)

	name := candidate.Plugin.Name()
	if err := registry.Init(ctx, name); err != nil {
		fmt.Printf("插件初始化失败: %v\n", err)
		os.Exit(1)
	}

	info, ok := registry.Get(name)
	if !ok {
		fmt.Println("插件未注册到注册表")
		os.Exit(1)
	}

	extra := info.Metadata.Metadata
	var adapters any
	if raw := extra["supported_adapters"]; raw != "" {
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		adapters = parts
	}

	meta, err := json.Marshal(map[string]any{
		"name":               info.Metadata.Name,
		"description":        info.Metadata.Description,
		"homepage":           extra["homepage"],
		"type":               extra["type"],
		"supported_adapters": adapters,
	})
	if err != nil {
		fmt.Printf("元数据序列化失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("METADATA<<EOF")
	fmt.Println(string(meta))
	fmt.Println("EOF")
}
`

// DriverData 驱动程序模板数据
type DriverData struct {
	// ModuleName 候选插件的 import 路径
	ModuleName string
	// Deps 候选插件依赖的商店插件 import 路径
	Deps []string
}

var driverTmpl = template.Must(template.New("driver").Parse(driverTemplate))

// RenderDriver 渲染驱动程序源码
func RenderDriver(data DriverData) (string, error) {
	var b strings.Builder
	if err := driverTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render driver: %w", err)
	}
	return b.String(), nil
}
