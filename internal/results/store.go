package results

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BaSui01/storeflow/config"
	"github.com/BaSui01/storeflow/internal/database"
	"github.com/BaSui01/storeflow/store"
)

// ErrNotFound 查无记录
var ErrNotFound = errors.New("test run not found")

// Store 测试运行历史存储
type Store struct {
	pool   *database.PoolManager
	logger *zap.Logger
}

// Open 按配置打开数据库并创建存储
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pool, err := database.NewPoolManager(db, database.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	return NewStore(pool, logger), nil
}

// NewStore 基于已有连接池创建存储
func NewStore(pool *database.PoolManager, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pool:   pool,
		logger: logger.With(zap.String("component", "results_store")),
	}
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "mysql":
		return mysql.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// AutoMigrate 建表，适合 sqlite 与本地开发；生产环境走迁移器
func (s *Store) AutoMigrate() error {
	return s.pool.DB().AutoMigrate(&TestRun{})
}

// Record 写入一条测试运行记录
func (s *Store) Record(ctx context.Context, run *TestRun) error {
	return s.pool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("record test run: %w", err)
		}
		return nil
	})
}

// RecordResult 把一条测试结果转换为运行记录并写入
func (s *Store) RecordResult(ctx context.Context, key string, r store.TestResult) error {
	projectLink, _, _ := strings.Cut(key, ":")
	run := &TestRun{
		PluginKey:   key,
		ProjectLink: projectLink,
		Version:     r.Version,
		Run:         r.Run,
		Valid:       r.Valid,
		Message:     r.ValidationMessage,
		OutputSize:  r.OutputSize,
		DurationMS:  r.Elapsed.Milliseconds(),
	}
	if err := s.Record(ctx, run); err != nil {
		return err
	}
	s.logger.Debug("test run recorded",
		zap.String("plugin", key),
		zap.String("version", r.Version),
	)
	return nil
}

// Latest 返回插件最近一次的运行记录
func (s *Store) Latest(ctx context.Context, pluginKey string) (*TestRun, error) {
	var run TestRun
	err := s.pool.DB().WithContext(ctx).
		Where("plugin_key = ?", pluginKey).
		Order("created_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, pluginKey)
	}
	if err != nil {
		return nil, fmt.Errorf("query latest test run: %w", err)
	}
	return &run, nil
}

// History 返回插件的运行历史，按时间倒序
func (s *Store) History(ctx context.Context, pluginKey string, limit int) ([]TestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []TestRun
	err := s.pool.DB().WithContext(ctx).
		Where("plugin_key = ?", pluginKey).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("query test run history: %w", err)
	}
	return runs, nil
}

// Close 关闭底层连接池
func (s *Store) Close() error {
	return s.pool.Close()
}
