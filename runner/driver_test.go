package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDriver(t *testing.T) {
	code, err := RenderDriver(DriverData{
		ModuleName: "github.com/alice/weather/plugin",
		Deps: []string{
			"github.com/bob/geo/plugin",
			"github.com/carol/time/plugin",
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code, "package main\n"))
	// 候选插件具名导入，依赖的商店插件空白导入
	assert.Contains(t, code, `candidate "github.com/alice/weather/plugin"`)
	assert.Contains(t, code, `_ "github.com/bob/geo/plugin"`)
	assert.Contains(t, code, `_ "github.com/carol/time/plugin"`)
	assert.Contains(t, code, "plugins.NewInMemoryPluginRegistry(nil)")
	assert.Contains(t, code, "registry.Register(candidate.Plugin, candidate.Metadata)")
	assert.Contains(t, code, "registry.Init(ctx, name)")
	assert.Contains(t, code, "METADATA<<EOF")
}

func TestRenderDriver_NoDeps(t *testing.T) {
	code, err := RenderDriver(DriverData{ModuleName: "github.com/alice/weather/plugin"})
	require.NoError(t, err)

	// 没有商店依赖时不产生空白导入，候选插件仍然具名导入
	assert.Equal(t, 0, strings.Count(code, "\t_ \""))
	assert.Contains(t, code, `candidate "github.com/alice/weather/plugin"`)
}
