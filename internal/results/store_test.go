package results

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/storeflow/config"
	"github.com/BaSui01/storeflow/store"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver:       "sqlite",
		Name:         filepath.Join(t.TempDir(), "results.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	s, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.AutoMigrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// --- 记录与查询 ---

func TestStore_RecordAndLatest(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run := &TestRun{
		PluginKey:   "github.com/alice/weather:github.com/alice/weather/plugin",
		ProjectLink: "github.com/alice/weather",
		Version:     "v1.2.0",
		Run:         true,
		Valid:       true,
	}
	require.NoError(t, s.Record(ctx, run))
	// BeforeCreate 自动生成主键
	assert.NotEmpty(t, run.ID)

	got, err := s.Latest(ctx, run.PluginKey)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", got.Version)
	assert.True(t, got.Run)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_LatestNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Latest(context.Background(), "unknown:unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RecordResult(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	key := "github.com/alice/weather:github.com/alice/weather/plugin"

	err := s.RecordResult(ctx, key, store.TestResult{
		Version:           "v1.3.0",
		Run:               true,
		Valid:             false,
		ValidationMessage: "发现 1 处错误",
		Elapsed:           42500 * time.Millisecond,
		OutputSize:        1234,
	})
	require.NoError(t, err)

	got, err := s.Latest(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "github.com/alice/weather", got.ProjectLink)
	assert.Equal(t, "v1.3.0", got.Version)
	assert.False(t, got.Valid)
	assert.Contains(t, got.Message, "1 处错误")
	// 输出大小与耗时随结果落库
	assert.Equal(t, 1234, got.OutputSize)
	assert.Equal(t, int64(42500), got.DurationMS)
}

func TestStore_History(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	key := "github.com/alice/weather:github.com/alice/weather/plugin"

	for _, version := range []string{"v1.0.0", "v1.1.0", "v1.2.0"} {
		require.NoError(t, s.RecordResult(ctx, key, store.TestResult{Version: version, Run: true}))
	}
	require.NoError(t, s.RecordResult(ctx, "other:other/plugin", store.TestResult{Version: "v9.0.0"}))

	runs, err := s.History(ctx, key, 10)
	require.NoError(t, err)
	// 只返回指定插件的历史
	assert.Len(t, runs, 3)

	limited, err := s.History(ctx, key, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}
