package progress

import (
	"context"
	"fmt"

	"github.com/moxying/mox/client"
	"github.com/moxying/mox/eventbus"
	"github.com/moxying/mox/logging"
	"github.com/moxying/mox/model"
)

// 进度提示文案，随事件原样送达前端。
const (
	TipSubmit     = "任务提交ComfyUI"
	TipExecStart  = "ComfyUI开始执行"
	TipNodeCached = "节点任务使用缓存"
	TipNodeStart  = "节点任务执行"
	TipNodeDoing  = "节点任务执行中"
	TipDone       = "ComfyUI执行结束"
	TipFailed     = "ComfyUI执行失败"
)

// Phase 解释器状态机的状态。
type Phase int

const (
	PhaseSubmitted Phase = iota
	PhaseStarted
	PhaseInProgress
	PhaseDone
	PhaseFailed
)

// ExecutionFailedError 引擎显式上报了节点执行失败，消息原样透出。
type ExecutionFailedError struct {
	Message string
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("comfyui execution failed: %s", e.Message)
}

// Update 解释器发布到内部主题的归一化进度记录。
// 消费方应按「至少一次」语义处理。
type Update struct {
	TaskID uint
	Tip    string
	Value  int
	Max    int

	// 节点级子进度，仅 progress 事件携带
	NodeID    string
	NodeValue int
	NodeMax   int

	ErrMsg string
}

// Interpreter 单次提交的进度解释器。
// 消费一条进度流，逐条分类事件、推进 State，并在内部主题上发布归一化进度；
// 观察到终态即返回，保证一次提交恰好一个终态结果。
// 同一时刻只允许一个解释器在途（Worker 串行调度保证）。
type Interpreter struct {
	taskID   uint
	promptID string
	st       *State
	bus      *eventbus.Bus
	phase    Phase
}

// NewInterpreter 构造解释器。orderedNodes 为图节点的期望执行顺序。
func NewInterpreter(taskID uint, promptID string, orderedNodes []string, bus *eventbus.Bus) *Interpreter {
	return &Interpreter{
		taskID:   taskID,
		promptID: promptID,
		st:       NewState(orderedNodes),
		bus:      bus,
		phase:    PhaseSubmitted,
	}
}

// State 暴露进度状态（测试用）。
func (it *Interpreter) State() *State { return it.st }

// Phase 当前状态机状态。
func (it *Interpreter) Phase() Phase { return it.phase }

// Run 发布提交通知后阻塞消费流直到终态。
// 返回 nil 表示成功终态；ExecutionFailedError 表示引擎上报失败；
// 其余错误来自流本身（断开/超时），同样对任务致命。
func (it *Interpreter) Run(ctx context.Context, stream client.ProgressStream) error {
	it.st.MarkSubmitted()
	it.publish(Update{Tip: TipSubmit})
	for {
		ev, err := stream.Next()
		if err != nil {
			it.phase = PhaseFailed
			return err
		}
		terminal, err := it.Handle(ctx, ev)
		if err != nil {
			return err
		}
		if terminal {
			return nil
		}
	}
}

// Handle 分类处理一条事件，返回是否到达成功终态。
// 事件携带的 prompt_id 与本提交不一致时不产生任何状态变化与通知。
func (it *Interpreter) Handle(ctx context.Context, ev client.ProgressEvent) (bool, error) {
	if ev.PromptID != "" && ev.PromptID != it.promptID {
		return false, nil
	}
	switch ev.Type {
	case client.EventStatus:
		// 仅队列深度信息，忽略
		return false, nil
	case client.EventExecutionStart:
		it.phase = PhaseStarted
		it.publish(Update{Tip: TipExecStart})
		return false, nil
	case client.EventExecutionCached:
		it.st.MarkCached(ev.CachedNodes)
		it.publish(Update{Tip: TipNodeCached})
		return false, nil
	case client.EventExecuting:
		if ev.NodeNull {
			it.st.Finish()
			it.phase = PhaseDone
			it.publish(Update{Tip: TipDone})
			return true, nil
		}
		it.st.StartNode(ev.Node)
		it.phase = PhaseInProgress
		it.publish(Update{Tip: fmt.Sprintf("%s: 节点编号%s", TipNodeStart, ev.Node)})
		return false, nil
	case client.EventProgress:
		// 节点内子进度，不推进外层计数
		it.publish(Update{
			Tip:       fmt.Sprintf("%s: 节点编号%s; 进度: %d/%d", TipNodeDoing, ev.Node, ev.Value, ev.Max),
			NodeID:    ev.Node,
			NodeValue: ev.Value,
			NodeMax:   ev.Max,
		})
		return false, nil
	case client.EventExecuted:
		// 节点已产出结果，仅信息性
		return false, nil
	case client.EventExecutionError:
		it.phase = PhaseFailed
		it.publish(Update{Tip: TipFailed, ErrMsg: ev.ErrMsg})
		return false, &ExecutionFailedError{Message: ev.ErrMsg}
	default:
		logging.L().Debug(ctx, "ignore unrecognized progress event", "raw_type", ev.RawType)
		return false, nil
	}
}

func (it *Interpreter) publish(u Update) {
	u.TaskID = it.taskID
	u.Value = it.st.Value()
	u.Max = it.st.Ceiling()
	it.bus.Publish(model.ComfyTopic(it.taskID), u)
}
