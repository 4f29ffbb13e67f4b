package db

import "time"

// 任务生命周期状态。只允许 doing→done 或 doing→failed，且每个任务恰好设置一次终态。
const (
	TaskStatusDoing  = "doing"
	TaskStatusDone   = "done"
	TaskStatusFailed = "failed"
)

// 任务类型。
const (
	TaskTypeTxt2Img = "txt2img"
)

// GenImageTaskDB 生成任务表。API 入队时即落一行 doing 记录，引擎提交在其之后。
type GenImageTaskDB struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	TaskType   string `gorm:"size:64"`
	TaskStatus string `gorm:"size:32;index"`
	ErrMsg     string `gorm:"type:text"`

	OriginPrompt   string `gorm:"type:text"`
	Prompt         string `gorm:"type:text"`
	NegativePrompt string `gorm:"type:text"`
	BatchSize      int
	Width          int
	Height         int
	Seed           int64
	Steps          int
	Cfg            float64
	SamplerName    string `gorm:"size:512"`
	Scheduler      string `gorm:"size:512"`
	Denoise        float64
	CkptName       string `gorm:"size:512"`
}

// TableName 表名。
func (GenImageTaskDB) TableName() string { return "gen_image_task" }

// SDImageDB 结果图表，一条任务对应零或多张图。
type SDImageDB struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	UUID     string `gorm:"size:64;index"`
	TaskID   uint   `gorm:"index"`
	Name     string `gorm:"size:512"`
	TimeCost int

	OriginPrompt   string `gorm:"type:text"`
	Prompt         string `gorm:"type:text"`
	NegativePrompt string `gorm:"type:text"`
	Width          int
	Height         int
	Seed           int64
	Steps          int
	Cfg            float64
	SamplerName    string `gorm:"size:512"`
	Scheduler      string `gorm:"size:512"`
	Denoise        float64
	CkptName       string `gorm:"size:512"`
}

// TableName 表名。
func (SDImageDB) TableName() string { return "sd_image" }
