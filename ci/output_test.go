package ci

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReporter(t *testing.T) (*Reporter, string, string) {
	t.Helper()
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "output.txt")
	summaryPath := filepath.Join(dir, "summary.txt")
	return New(outputPath, summaryPath), outputPath, summaryPath
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// --- 输出变量测试 ---

func TestReporter_SetValue(t *testing.T) {
	r, outputPath, _ := newTestReporter(t)

	require.NoError(t, r.SetValue("RESULT", "true"))
	require.NoError(t, r.SetValue("COUNT", "3"))

	assert.Equal(t, "RESULT=true\nCOUNT=3\n", readFile(t, outputPath))
}

func TestReporter_SetMultiline(t *testing.T) {
	r, outputPath, _ := newTestReporter(t)

	require.NoError(t, r.SetMultiline("OUTPUT", "line1\nline2"))

	assert.Equal(t, "OUTPUT<<EOF\nline1\nline2\nEOF\n", readFile(t, outputPath))
}

func TestReporter_EmptyPathDiscards(t *testing.T) {
	r := New("", "")
	assert.NoError(t, r.SetValue("RESULT", "true"))
	assert.NoError(t, r.SetMultiline("OUTPUT", "x"))
	assert.NoError(t, r.AppendSummary("s"))
}

func TestReporter_AppendSummary(t *testing.T) {
	r, _, summaryPath := newTestReporter(t)

	require.NoError(t, r.AppendSummary("第一段"))
	require.NoError(t, r.AppendSummary("第二段"))

	assert.Equal(t, "第一段第二段", readFile(t, summaryPath))
}

// --- 摘要渲染测试 ---

func TestRenderSummary(t *testing.T) {
	s := RenderSummary("github.com/a/b", true, "加载正常")
	assert.Contains(t, s, "插件 github.com/a/b 加载测试结果：通过")
	assert.Contains(t, s, "<details><summary>测试输出</summary>")
	assert.Contains(t, s, "加载正常")

	s = RenderSummary("github.com/a/b", false, "出错了 <boom>")
	assert.Contains(t, s, "未通过")
	// HTML 特殊字符转义后嵌入
	assert.Contains(t, s, "&lt;boom&gt;")
}

// --- 截断测试 ---

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "", Truncate("", 5))
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// "天气" 占 6 字节，上限落在字符中间时回退到边界
	assert.Equal(t, "天", Truncate("天气", 4))
	assert.Equal(t, "天", Truncate("天气", 5))
	assert.Equal(t, "天气", Truncate("天气", 6))
	assert.Equal(t, "", Truncate("天气", 2))
	assert.True(t, utf8.ValidString(Truncate("插件加载测试", 7)))
}

func TestTruncate_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("截断结果不超过上限", prop.ForAll(
		func(s string, limit int) bool {
			out := Truncate(s, limit)
			return limit <= 0 || len(out) <= limit
		},
		gen.AnyString(),
		gen.IntRange(1, 1000),
	))

	properties.Property("短于上限的输入原样返回", prop.ForAll(
		func(s string) bool {
			return Truncate(s, len(s)+1) == s
		},
		gen.AnyString(),
	))

	properties.Property("合法 UTF-8 输入截断后仍是合法 UTF-8", prop.ForAll(
		func(s string, limit int) bool {
			return utf8.ValidString(Truncate(s, limit))
		},
		gen.AnyString(),
		gen.IntRange(1, 64),
	))

	properties.TestingRun(t)
}

// --- 元数据提取测试 ---

func TestParseMetadata(t *testing.T) {
	output := `项目 github.com/a/b 创建成功。
METADATA<<EOF
{"name": "天气", "description": "查天气", "homepage": "https://example.com", "type": "application", "supported_adapters": null}
EOF
RESULT=true`

	meta, err := ParseMetadata(output)
	require.NoError(t, err)

	assert.Equal(t, "天气", meta.Name)
	assert.Equal(t, "查天气", meta.Description)
	assert.Equal(t, "https://example.com", meta.Homepage)
	assert.Equal(t, "application", meta.Type)
	assert.Nil(t, meta.SupportedAdapters)
}

func TestParseMetadata_Missing(t *testing.T) {
	_, err := ParseMetadata("没有元数据的输出")
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestParseMetadata_BadJSON(t *testing.T) {
	_, err := ParseMetadata("METADATA<<EOF\n{broken\nEOF")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMetadata)
}

func TestExtractMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output.txt")
	content := "RESULT=true\nMETADATA<<EOF\n{\"name\": \"x\"}\nEOF\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	meta, err := ExtractMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "x", meta.Name)
}

func TestExtractMetadata_FileMissing(t *testing.T) {
	_, err := ExtractMetadata("/nonexistent/output.txt")
	assert.Error(t, err)
}
