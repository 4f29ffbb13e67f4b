package client

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable 提交阶段网络失败或非 2xx 响应。对任务致命，对 Worker 不致命。
var ErrEngineUnavailable = errors.New("comfyui engine unavailable")

// ErrStreamDisconnected 进度流中途断开。不在客户端内重连，重试策略归调用方。
var ErrStreamDisconnected = errors.New("comfyui progress stream disconnected")

// EngineRejectedError 引擎校验拒绝了提交的工作流图（结构化失败）。
type EngineRejectedError struct {
	Details string
}

func (e *EngineRejectedError) Error() string {
	return fmt.Sprintf("comfyui rejected prompt: %s", e.Details)
}

// ResultNotFoundError 成功信号之后在 history 中找不到提交或节点。
// 属于引擎/配置不匹配，而非瞬时故障。
type ResultNotFoundError struct {
	PromptID string
	NodeID   string
}

func (e *ResultNotFoundError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("comfyui history missing output, prompt_id: %s, node_id: %s", e.PromptID, e.NodeID)
	}
	return fmt.Sprintf("comfyui history missing prompt_id: %s", e.PromptID)
}
