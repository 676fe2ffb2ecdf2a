package scan

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable 渲染批量测试结果表格，Markdown 格式，可直接
// 追加到作业摘要或写入控制台。
func (s *Summary) RenderTable() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"插件", "版本", "加载", "校验"})

	for _, key := range s.Tested {
		r := s.Results[key]
		t.AppendRow(table.Row{key, r.Version, mark(r.Run), mark(r.Valid)})
	}
	for _, skip := range s.Skipped {
		t.AppendRow(table.Row{skip.Key, "-", skipLabel(skip.Reason), "-"})
	}

	header := fmt.Sprintf("共 %d 个插件，本次测试 %d 个，跳过 %d 个，耗时 %s\n\n",
		s.Total, len(s.Tested), len(s.Skipped), s.Elapsed.Round(time.Second))
	return header + t.RenderMarkdown()
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func skipLabel(reason string) string {
	switch reason {
	case SkipGitSourced:
		return "跳过（Git 来源）"
	case SkipUpToDate:
		return "跳过（版本未更新）"
	default:
		return "跳过"
	}
}
