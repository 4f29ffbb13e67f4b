package server

import (
	"time"

	"github.com/moxying/mox/client"
	"github.com/moxying/mox/metrics"
)

// CommonResponse 统一响应包装。
type CommonResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

// GenImageRequest 创建生成任务请求。
type GenImageRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	CkptName       string  `json:"ckpt_name"`
	Seed           int64   `json:"seed"`
	Steps          int     `json:"steps"`
	Cfg            float64 `json:"cfg"`
	SamplerName    string  `json:"sampler_name"`
	Scheduler      string  `json:"scheduler"`
	Denoise        float64 `json:"denoise"`
	BatchSize      int     `json:"batch_size"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

// GenImageResponseData 创建生成任务响应。
type GenImageResponseData struct {
	TaskID uint `json:"task_id"`
}

// SDImage 结果图对外视图。
type SDImage struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UUID   string `json:"uuid"`
	TaskID uint   `json:"task_id"`
	Name   string `json:"name"`

	OriginPrompt   string  `json:"origin_prompt"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Seed           int64   `json:"seed"`
	Steps          int     `json:"steps"`
	Cfg            float64 `json:"cfg"`
	SamplerName    string  `json:"sampler_name,omitempty"`
	Scheduler      string  `json:"scheduler,omitempty"`
	Denoise        float64 `json:"denoise,omitempty"`
	CkptName       string  `json:"ckpt_name,omitempty"`
}

// GetImageListRequest 分页查询请求。
type GetImageListRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`

	// 仅 fragment 接口使用：只取该秒级时间戳之前创建的记录
	TimestampFilter int64 `json:"timestamp_filter,omitempty"`
}

// GetImageListResponseData 分页查询响应。
type GetImageListResponseData struct {
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Total    int64     `json:"total"`
	List     []SDImage `json:"list"`
}

// SDImageFragment 按日期分组的一段图片列表。
type SDImageFragment struct {
	Date string    `json:"date"`
	List []SDImage `json:"list"`
}

// GetImageListAsFragmentResponseData 分组列表响应。
type GetImageListAsFragmentResponseData struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int64             `json:"total"`
	CurTotal int               `json:"cur_total"`
	List     []SDImageFragment `json:"list"`
}

// SystemResponseData 系统信息查询响应：本机指标 + 引擎侧信息（可空）。
type SystemResponseData struct {
	Metric metrics.SystemMetric `json:"metric"`
	Engine *client.SystemStats  `json:"engine,omitempty"`
}

// TaskResultResponseData 任务结果查询响应。
type TaskResultResponseData struct {
	TaskID     uint      `json:"task_id"`
	TaskStatus string    `json:"task_status"`
	ErrMsg     string    `json:"err_msg,omitempty"`
	Images     []SDImage `json:"images"`
}
