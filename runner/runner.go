package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/storeflow/ci"
	"github.com/BaSui01/storeflow/config"
	"github.com/BaSui01/storeflow/store"
)

var tracer = otel.Tracer("github.com/BaSui01/storeflow/runner")

var (
	// ErrInvalidKey 插件标识符格式错误
	ErrInvalidKey = errors.New("invalid plugin key")
	// ErrInvalidConfig 插件配置项格式错误
	ErrInvalidConfig = errors.New("invalid plugin config")
)

// Result 单次加载测试的结果
type Result struct {
	// Key 插件标识符
	Key string
	// Run 插件是否加载成功
	Run bool
	// Version 实际安装的插件版本
	Version string
	// Output 按顺序记录的完整测试输出（已截断）
	Output string
	// DriverCode 生成的驱动程序源码
	DriverCode string
	// StoreDeps 候选插件依赖的商店插件标识符
	StoreDeps []string
}

// PluginTest 单个插件的加载测试
type PluginTest struct {
	cfg          config.RunnerConfig
	key          string
	projectLink  string
	moduleName   string
	pluginConfig string

	index    *store.Index
	reporter *ci.Reporter
	logger   *zap.Logger

	path  string
	lines []string
	env   []string
}

// NewPluginTest 创建加载测试。
// key 形如 "project_link:module_name"，配置项为 KEY=VALUE 行文本。
func NewPluginTest(cfg config.RunnerConfig, key, pluginConfig string, logger *zap.Logger) (*PluginTest, error) {
	projectLink, moduleName, ok := strings.Cut(key, ":")
	if !ok || projectLink == "" || moduleName == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dirName := strings.NewReplacer(":", "-", "/", "-").Replace(key)
	return &PluginTest{
		cfg:          cfg,
		key:          key,
		projectLink:  projectLink,
		moduleName:   moduleName,
		pluginConfig: pluginConfig,
		logger:       logger.With(zap.String("component", "runner"), zap.String("plugin", key)),
		path:         filepath.Join(cfg.WorkDir, dirName),
	}, nil
}

// WithStoreIndex 设置商店索引，用于依赖反查
func (t *PluginTest) WithStoreIndex(idx *store.Index) *PluginTest {
	t.index = idx
	return t
}

// WithReporter 设置 CI 输出写入器
func (t *PluginTest) WithReporter(r *ci.Reporter) *PluginTest {
	t.reporter = r
	return t
}

// Path 返回测试目录
func (t *PluginTest) Path() string { return t.path }

// log 记录一行输出
func (t *PluginTest) log(line string) {
	t.lines = append(t.lines, line)
}

// logBlock 记录命令输出，每行缩进四个空格
func (t *PluginTest) logBlock(output string) {
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return
	}
	for _, line := range strings.Split(output, "\n") {
		t.lines = append(t.lines, "    "+line)
	}
}

// command 在测试目录中执行一条工具链命令。
// 标准输出与标准错误分开捕获，两者都记入输出日志；
// 返回值只含标准输出，工具链的下载进度等提示不会混入待解析内容。
func (t *PluginTest) command(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cctx, span := tracer.Start(cctx, "toolchain."+args[0],
		trace.WithAttributes(attribute.String("toolchain.args", strings.Join(args, " "))))
	defer span.End()

	cmd := exec.CommandContext(cctx, t.cfg.Toolchain, args...)
	cmd.Dir = t.path
	cmd.Env = append(os.Environ(), t.env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.log(fmt.Sprintf("$ %s %s", t.cfg.Toolchain, strings.Join(args, " ")))
	err := cmd.Run()
	t.logBlock(stdout.String())
	t.logBlock(stderr.String())

	if err != nil {
		span.RecordError(err)
		t.logger.Warn("命令执行失败",
			zap.Strings("args", args),
			zap.Error(err),
		)
		return stdout.String(), fmt.Errorf("%s %s: %w", t.cfg.Toolchain, args[0], err)
	}
	return stdout.String(), nil
}

// create 初始化一次性测试模块并安装宿主框架与候选插件
func (t *PluginTest) create(ctx context.Context) error {
	// 目录已初始化过则直接复用，重跑不重建
	if _, err := os.Stat(filepath.Join(t.path, "go.mod")); err == nil {
		t.log(fmt.Sprintf("项目 %s 已存在，跳过创建。", t.projectLink))
		return nil
	}

	if err := os.MkdirAll(t.path, 0o755); err != nil {
		return fmt.Errorf("create test dir: %w", err)
	}
	t.log(fmt.Sprintf("创建测试目录 %s", t.path))

	hostVersion := t.cfg.HostVersion
	if hostVersion == "" {
		hostVersion = "latest"
	}

	steps := [][]string{
		{"mod", "init", "plugintest"},
		{"get", t.cfg.HostModule + "@" + hostVersion},
		{"get", t.projectLink + "@latest"},
	}
	for _, args := range steps {
		if _, err := t.command(ctx, t.cfg.CreateTimeout, args...); err != nil {
			return err
		}
	}

	t.log(fmt.Sprintf("项目 %s 创建成功。", t.projectLink))
	return nil
}

// packageVersion 查询实际安装的插件版本
func (t *PluginTest) packageVersion(ctx context.Context) (string, error) {
	out, err := t.command(ctx, t.cfg.ListTimeout, "list", "-m", "-json", t.projectLink)
	if err != nil {
		return "", err
	}

	var info struct {
		Path    string `json:"Path"`
		Version string `json:"Version"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return "", fmt.Errorf("parse module info: %w", err)
	}

	t.log(fmt.Sprintf("插件 %s 版本 %s", info.Path, info.Version))
	return info.Version, nil
}

// storeDependencies 列出候选插件依赖的商店插件
func (t *PluginTest) storeDependencies(ctx context.Context) ([]store.Plugin, error) {
	out, err := t.command(ctx, t.cfg.ListTimeout, "list", "-m", "all")
	if err != nil {
		return nil, err
	}

	deps := StoreDependencies(t.index, ParseModuleList(out), t.projectLink)
	if len(deps) > 0 {
		keys := make([]string, len(deps))
		for i, dep := range deps {
			keys[i] = dep.Key()
		}
		t.log(fmt.Sprintf("插件依赖的商店插件：%s", strings.Join(keys, ", ")))
	}
	return deps, nil
}

// writeConfig 写入插件配置文件并准备注入的环境变量
func (t *PluginTest) writeConfig() error {
	if t.pluginConfig == "" {
		return nil
	}

	for i, line := range strings.Split(t.pluginConfig, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "=") {
			return fmt.Errorf("%w: line %d: %q", ErrInvalidConfig, i+1, line)
		}
		t.env = append(t.env, line)
	}

	path := filepath.Join(t.path, "plugin.env")
	if err := os.WriteFile(path, []byte(t.pluginConfig+"\n"), 0o644); err != nil {
		return fmt.Errorf("write plugin config: %w", err)
	}
	t.log("插件配置项已写入 plugin.env")
	return nil
}

// runDriver 生成并运行驱动程序
func (t *PluginTest) runDriver(ctx context.Context, deps []store.Plugin) (string, error) {
	data := DriverData{ModuleName: t.moduleName}
	for _, dep := range deps {
		data.Deps = append(data.Deps, dep.ModuleName)
	}

	code, err := RenderDriver(data)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(t.path, "main.go"), []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("write driver: %w", err)
	}

	// 驱动程序的导入可能引入新的传递依赖
	if _, err := t.command(ctx, t.cfg.CreateTimeout, "mod", "tidy"); err != nil {
		return code, err
	}

	if _, err := t.command(ctx, t.cfg.RunTimeout, "run", "."); err != nil {
		return code, err
	}
	return code, nil
}

// Run 执行完整的加载测试。
// 插件加载失败不作为错误返回，体现在 Result.Run 上；
// 无论成败，RESULT 与 OUTPUT 都会写入 CI 输出通道。
func (t *PluginTest) Run(ctx context.Context) (*Result, error) {
	ctx, span := tracer.Start(ctx, "plugin_test.run",
		trace.WithAttributes(attribute.String("plugin.key", t.key)))
	defer span.End()

	res := &Result{Key: t.key}
	t.logger.Info("开始插件加载测试")

	runErr := t.run(ctx, res)
	if runErr != nil {
		t.log(fmt.Sprintf("插件加载测试失败：%v", runErr))
	}
	res.Run = runErr == nil
	res.Output = ci.Truncate(strings.Join(t.lines, "\n"), t.cfg.OutputLimit)

	t.logger.Info("插件加载测试结束",
		zap.Bool("run", res.Run),
		zap.String("version", res.Version),
	)

	if t.reporter == nil {
		return res, nil
	}
	if err := t.reporter.SetValue("RESULT", strconv.FormatBool(res.Run)); err != nil {
		return res, err
	}
	if err := t.reporter.SetMultiline("OUTPUT", res.Output); err != nil {
		return res, err
	}
	if err := t.reporter.AppendSummary(ci.RenderSummary(t.projectLink, res.Run, res.Output)); err != nil {
		return res, err
	}
	return res, nil
}

func (t *PluginTest) run(ctx context.Context, res *Result) error {
	if err := t.create(ctx); err != nil {
		return err
	}

	version, err := t.packageVersion(ctx)
	if err != nil {
		return err
	}
	res.Version = version

	deps, err := t.storeDependencies(ctx)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		res.StoreDeps = append(res.StoreDeps, dep.Key())
	}

	if err := t.writeConfig(); err != nil {
		return err
	}

	code, err := t.runDriver(ctx, deps)
	res.DriverCode = code
	return err
}
