package validation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/storeflow/store"
)

const (
	maxNameLength  = 50
	maxTagCount    = 3
	maxTagLabelLen = 10
)

var (
	// tagColorPattern 标签颜色，# 开头的六位十六进制
	tagColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	// modulePathPattern Go 模块路径，至少包含一级域名与一个路径段
	modulePathPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.\-_~]*(/[a-zA-Z0-9.\-_~]+)+$`)
)

// HomepageChecker 主页可达性检查
type HomepageChecker interface {
	Check(ctx context.Context, homepage string) error
}

// httpHomepageChecker 基于 HTTP 请求的主页检查实现
type httpHomepageChecker struct {
	client *http.Client
}

func (c *httpHomepageChecker) Check(ctx context.Context, homepage string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, homepage, nil)
	if err != nil {
		return fmt.Errorf("build homepage request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request homepage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("homepage returned status %d", resp.StatusCode)
	}
	return nil
}

// Validator 插件发布信息校验器
type Validator struct {
	homepage     HomepageChecker
	skipHomepage bool
	logger       *zap.Logger
}

// NewValidator 创建校验器
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		homepage: &httpHomepageChecker{client: &http.Client{Timeout: 10 * time.Second}},
		logger:   logger.With(zap.String("component", "validation")),
	}
}

// WithHomepageChecker 替换主页检查实现
func (v *Validator) WithHomepageChecker(hc HomepageChecker) *Validator {
	v.homepage = hc
	return v
}

// WithSkipHomepage 跳过主页可达性检查（离线批量扫描场景）
func (v *Validator) WithSkipHomepage(skip bool) *Validator {
	v.skipHomepage = skip
	return v
}

// Validate 校验发布信息，收集所有字段错误后一次性返回
func (v *Validator) Validate(ctx context.Context, info *PluginPublishInfo) Report {
	var errs []FieldError

	add := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	if info.Name == "" {
		add("name", "名称不能为空")
	} else if nameLen := len([]rune(info.Name)); nameLen > maxNameLength {
		add("name", fmt.Sprintf("名称不能超过 %d 个字符", maxNameLength))
	}

	if info.Desc == "" {
		add("desc", "描述不能为空")
	}

	if info.Author == "" {
		add("author", "作者不能为空")
	}

	if info.ModuleName == "" {
		add("module_name", "import 路径不能为空")
	} else if !modulePathPattern.MatchString(info.ModuleName) {
		add("module_name", "import 路径格式无效")
	}

	if info.ProjectLink == "" {
		add("project_link", "模块路径不能为空")
	} else if !modulePathPattern.MatchString(info.ProjectLink) {
		add("project_link", "模块路径格式无效")
	}

	v.validateHomepage(ctx, info.Homepage, add)
	v.validateTags(info.Tags, add)

	switch info.Type {
	case TypeApplication, TypeLibrary:
	case "":
		add("type", "插件类型不能为空")
	default:
		add("type", fmt.Sprintf("插件类型必须是 %s 或 %s", TypeApplication, TypeLibrary))
	}

	if info.SupportedAdapters != nil {
		if len(info.SupportedAdapters) == 0 {
			add("supported_adapters", "适配器列表不能为空，支持全部适配器时应为 null")
		}
		for i, adapter := range info.SupportedAdapters {
			if strings.TrimSpace(adapter) == "" {
				add("supported_adapters", fmt.Sprintf("第 %d 个适配器名称为空", i+1))
			}
		}
	}

	if !info.PluginTestResult {
		add("plugin_test_result", "插件加载测试未通过")
	}

	return Report{Valid: len(errs) == 0, Errors: errs}
}

func (v *Validator) validateHomepage(ctx context.Context, homepage string, add func(field, message string)) {
	if homepage == "" {
		add("homepage", "主页不能为空")
		return
	}

	u, err := url.Parse(homepage)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("homepage", "主页必须是有效的 HTTP 链接")
		return
	}

	if v.skipHomepage {
		return
	}
	if err := v.homepage.Check(ctx, homepage); err != nil {
		v.logger.Debug("主页检查失败", zap.String("homepage", homepage), zap.Error(err))
		add("homepage", "主页无法访问")
	}
}

func (v *Validator) validateTags(tags []store.Tag, add func(field, message string)) {
	if len(tags) > maxTagCount {
		add("tags", fmt.Sprintf("标签不能超过 %d 个", maxTagCount))
	}
	for i, tag := range tags {
		labelLen := len([]rune(tag.Label))
		if labelLen == 0 || labelLen > maxTagLabelLen {
			add("tags", fmt.Sprintf("第 %d 个标签名称长度必须在 1 到 %d 之间", i+1, maxTagLabelLen))
		}
		if !tagColorPattern.MatchString(tag.Color) {
			add("tags", fmt.Sprintf("第 %d 个标签颜色必须是 #RRGGBB 格式", i+1))
		}
	}
}

// ValidateMetadata 合并商店数据与测试捕获的元数据后做完整校验
//
// 元数据缺失时直接判定失败，不再逐字段检查。
func (v *Validator) ValidateMetadata(ctx context.Context, testPassed bool, plugin store.Plugin, meta *store.Metadata) *Outcome {
	if meta == nil {
		return &Outcome{
			Valid:   false,
			Errors:  []FieldError{{Field: "metadata", Message: "插件加载测试未捕获到元数据"}},
			Message: "插件加载测试未捕获到元数据",
		}
	}

	info := &PluginPublishInfo{
		ModuleName:        plugin.ModuleName,
		ProjectLink:       plugin.ProjectLink,
		Name:              meta.Name,
		Desc:              meta.Description,
		Author:            plugin.Author,
		Homepage:          meta.Homepage,
		Tags:              plugin.Tags,
		PluginTestResult:  testPassed,
		Type:              meta.Type,
		SupportedAdapters: meta.SupportedAdapters,
	}

	report := v.Validate(ctx, info)
	outcome := &Outcome{Valid: report.Valid, Raw: info, Errors: report.Errors, Message: report.Message()}
	if !report.Valid {
		v.logger.Info("插件元数据校验未通过",
			zap.String("plugin", plugin.Key()),
			zap.Int("errors", len(report.Errors)),
		)
		return outcome
	}

	// 校验通过后以元数据为准刷新商店数据
	current := plugin
	current.Name = meta.Name
	current.Desc = meta.Description
	current.Homepage = meta.Homepage
	current.Type = meta.Type
	current.SupportedAdapters = meta.SupportedAdapters
	outcome.Current = &current
	return outcome
}
