package results

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestRun 一次插件测试的持久化记录
type TestRun struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PluginKey   string    `gorm:"type:varchar(512);index:idx_test_runs_plugin_key" json:"plugin_key"`
	ProjectLink string    `gorm:"type:varchar(256)" json:"project_link"`
	Version     string    `gorm:"type:varchar(64)" json:"version"`
	Run         bool      `json:"run"`
	Valid       bool      `json:"valid"`
	Message     string    `gorm:"type:text" json:"message"`
	OutputSize  int       `gorm:"column:output_size" json:"output_size"`
	DurationMS  int64     `gorm:"column:duration_ms" json:"duration_ms"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_test_runs_created_at" json:"created_at"`
}

// TableName 指定表名
func (TestRun) TableName() string { return "test_runs" }

// BeforeCreate 生成主键
func (r *TestRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
