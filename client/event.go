package client

import "encoding/json"

// EventType 进度流消息的封闭标签集。
// 未知标签映射到 EventUnrecognized，由解释器显式忽略并记录，
// 不允许落入可能吞掉未来必需分支的通配分支。
type EventType string

const (
	EventStatus          EventType = "status"
	EventProgress        EventType = "progress"
	EventExecuting       EventType = "executing"
	EventExecuted        EventType = "executed"
	EventExecutionStart  EventType = "execution_start"
	EventExecutionCached EventType = "execution_cached"
	EventExecutionError  EventType = "execution_error"
	EventUnrecognized    EventType = "unrecognized"
)

// ProgressEvent 进度流中的一条类型化消息。
// PromptID 为空表示该消息未携带 prompt_id（引擎对 executing 偶尔省略），
// 订阅方应视为命中当前提交。
type ProgressEvent struct {
	Type     EventType
	RawType  string // Type 为 EventUnrecognized 时保留原始标签
	PromptID string

	// executing / progress / executed
	Node     string
	NodeNull bool // executing 且 node 为 null：成功终态

	// progress
	Value int
	Max   int

	// execution_cached
	CachedNodes []string

	// execution_error
	ErrMsg string
}

type wireFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseProgressEvent 解析一帧文本消息为类型化事件。
// JSON 本身非法时返回错误；标签未知时返回 EventUnrecognized 事件。
func ParseProgressEvent(frame []byte) (ProgressEvent, error) {
	var f wireFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		return ProgressEvent{}, err
	}
	switch EventType(f.Type) {
	case EventStatus:
		return ProgressEvent{Type: EventStatus}, nil
	case EventExecutionStart:
		var d struct {
			PromptID string `json:"prompt_id"`
		}
		_ = json.Unmarshal(f.Data, &d)
		return ProgressEvent{Type: EventExecutionStart, PromptID: d.PromptID}, nil
	case EventProgress:
		var d struct {
			PromptID string `json:"prompt_id"`
			Node     string `json:"node"`
			Value    int    `json:"value"`
			Max      int    `json:"max"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return ProgressEvent{}, err
		}
		return ProgressEvent{Type: EventProgress, PromptID: d.PromptID, Node: d.Node, Value: d.Value, Max: d.Max}, nil
	case EventExecuting:
		var d struct {
			PromptID string  `json:"prompt_id"`
			Node     *string `json:"node"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return ProgressEvent{}, err
		}
		ev := ProgressEvent{Type: EventExecuting, PromptID: d.PromptID}
		if d.Node == nil {
			ev.NodeNull = true
		} else {
			ev.Node = *d.Node
		}
		return ev, nil
	case EventExecuted:
		var d struct {
			PromptID string `json:"prompt_id"`
			Node     string `json:"node"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return ProgressEvent{}, err
		}
		return ProgressEvent{Type: EventExecuted, PromptID: d.PromptID, Node: d.Node}, nil
	case EventExecutionCached:
		var d struct {
			PromptID string   `json:"prompt_id"`
			Nodes    []string `json:"nodes"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return ProgressEvent{}, err
		}
		return ProgressEvent{Type: EventExecutionCached, PromptID: d.PromptID, CachedNodes: d.Nodes}, nil
	case EventExecutionError:
		var d struct {
			PromptID         string `json:"prompt_id"`
			ExceptionMessage string `json:"exception_message"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return ProgressEvent{}, err
		}
		return ProgressEvent{Type: EventExecutionError, PromptID: d.PromptID, ErrMsg: d.ExceptionMessage}, nil
	default:
		return ProgressEvent{Type: EventUnrecognized, RawType: f.Type}, nil
	}
}
