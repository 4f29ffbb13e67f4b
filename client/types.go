package client

// 以下类型按 ComfyUI HTTP/WS 文档抽象，字段命名与引擎协议一致或等价。

// GraphNode 工作流图中的一个节点。
type GraphNode struct {
	Inputs    map[string]any `json:"inputs"`
	ClassType string         `json:"class_type"`
	Meta      map[string]any `json:"_meta,omitempty"`
}

// Graph 节点编号到节点定义的映射，整图一次性提交给引擎。
type Graph map[string]GraphNode

// PostPromptResp POST /prompt 响应体。
type PostPromptResp struct {
	PromptID   string         `json:"prompt_id"`
	Number     float64        `json:"number"`
	NodeErrors map[string]any `json:"node_errors,omitempty"`
	Error      any            `json:"error,omitempty"`
}

// ImageRef /history 输出中对一张结果图的描述，组合起来可定位 /view 下载地址。
type ImageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// NodeOutput 单个节点的输出描述。
type NodeOutput struct {
	Images []ImageRef `json:"images"`
}

// HistoryOutputs 节点编号到输出的映射（GET /history/{prompt_id} 中的 outputs 段）。
type HistoryOutputs map[string]NodeOutput

type historyEntry struct {
	Outputs HistoryOutputs `json:"outputs"`
}

// SystemStats GET /system_stats 响应体（仅取 Agent 关心的字段）。
type SystemStats struct {
	System struct {
		OS string `json:"os"`
	} `json:"system"`
	Devices []struct {
		Name      string `json:"name"`
		Type      string `json:"type"`
		VRAMTotal int64  `json:"vram_total"`
		VRAMFree  int64  `json:"vram_free"`
	} `json:"devices"`
}
