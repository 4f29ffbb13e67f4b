package model

import "strconv"

// 总线内部主题。
const (
	// EventTypeWS 出站通道主题：发布到该主题的 WSEvent 会被转发给已连接的前端。
	EventTypeWS = "ws"
	// EventTypeComfyPrefix 单任务内部进度主题前缀，完整主题为前缀+任务ID。
	EventTypeComfyPrefix = "internal_comfyui_"
)

// 出站 WSEvent 的 topic 取值。
const (
	TopicGenImageStart    = "genimage_start"
	TopicGenImageProgress = "genimage_progress"
	TopicGenImageEnd      = "genimage_end"
	TopicGenImageFailed   = "genimage_failed"

	TopicCommonStatus = "status"
	TopicCommonLog    = "log"
	TopicSystemMetric = "system_metric"
)

// WSEvent 发往前端的统一事件包装。
type WSEvent struct {
	Topic string `json:"topic"`
	Data  any    `json:"data,omitempty"`
}

// GenImageEventData genimage_* 事件负载。
type GenImageEventData struct {
	TaskID uint `json:"task_id"`

	// 进度
	ProgressTip      string `json:"progress_tip,omitempty"`
	ProgressValue    int    `json:"progress_value,omitempty"`
	ProgressValueMax int    `json:"progress_value_max,omitempty"`

	// 节点级子进度
	NodeID       string `json:"node_id,omitempty"`
	NodeValue    int    `json:"node_value,omitempty"`
	NodeValueMax int    `json:"node_value_max,omitempty"`

	// 结果
	Images []string `json:"images,omitempty"`
	ErrMsg string   `json:"err_msg,omitempty"`
}

// CommonStatusEventData status 事件负载。
type CommonStatusEventData struct {
	Status string `json:"status"`
}

// CommonLogEventData log 事件负载。
type CommonLogEventData struct {
	Log string `json:"log"`
}

// ComfyTopic 返回指定任务的内部进度主题。
func ComfyTopic(taskID uint) string {
	return EventTypeComfyPrefix + strconv.FormatUint(uint64(taskID), 10)
}
