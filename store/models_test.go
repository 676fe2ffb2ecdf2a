package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlugin_Key(t *testing.T) {
	p := Plugin{ProjectLink: "github.com/alice/weather", ModuleName: "github.com/alice/weather/plugin"}
	assert.Equal(t, "github.com/alice/weather:github.com/alice/weather/plugin", p.Key())
}

func TestPlugin_IsGitSourced(t *testing.T) {
	tests := []struct {
		name string
		link string
		want bool
	}{
		{name: "代理模块", link: "github.com/alice/weather", want: false},
		{name: "git http", link: "git+http://example.com/x.git", want: true},
		{name: "git https", link: "git+https://example.com/x.git", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Plugin{ProjectLink: tt.link}
			assert.Equal(t, tt.want, p.IsGitSourced())
		})
	}
}

func TestIndex(t *testing.T) {
	plugins := []Plugin{
		{ProjectLink: "github.com/a/one", ModuleName: "github.com/a/one"},
		{ProjectLink: "github.com/b/two", ModuleName: "github.com/b/two/plugin"},
		{ProjectLink: "github.com/c/three", ModuleName: "github.com/c/three"},
	}
	idx := NewIndex(plugins)

	assert.Equal(t, 3, idx.Len())

	// 商店顺序保持不变
	assert.Equal(t, []string{
		"github.com/a/one:github.com/a/one",
		"github.com/b/two:github.com/b/two/plugin",
		"github.com/c/three:github.com/c/three",
	}, idx.Keys())

	p, ok := idx.ByProjectLink("github.com/b/two")
	assert.True(t, ok)
	assert.Equal(t, "github.com/b/two/plugin", p.ModuleName)

	_, ok = idx.ByProjectLink("github.com/unknown")
	assert.False(t, ok)

	p, ok = idx.ByKey("github.com/c/three:github.com/c/three")
	assert.True(t, ok)
	assert.Equal(t, "github.com/c/three", p.ProjectLink)
}

func TestIndex_DuplicateKeyKeepsOrder(t *testing.T) {
	plugins := []Plugin{
		{ProjectLink: "github.com/a/one", ModuleName: "github.com/a/one", Name: "first"},
		{ProjectLink: "github.com/a/one", ModuleName: "github.com/a/one", Name: "second"},
	}
	idx := NewIndex(plugins)

	assert.Equal(t, 1, idx.Len())
	p, _ := idx.ByKey("github.com/a/one:github.com/a/one")
	// 后出现的数据覆盖先出现的
	assert.Equal(t, "second", p.Name)
}
