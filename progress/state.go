package progress

// 归一化进度刻度：0..ceiling，ceiling = 生命周期阶段数(2) + 图节点数。
// 刻度与引擎自身的节点内计数解耦，阶段为「已提交」与「执行结束」。
const lifecycleStages = 2

// State 单个在途提交的进度计数器。
// 仅由驱动它的 Worker/解释器串行修改，不需要加锁；任务终态后即废弃，不落库。
type State struct {
	expected  []string
	completed map[string]bool
	current   string
	value     int
	ceiling   int
}

// NewState 按图节点的期望执行顺序构造进度状态。
func NewState(orderedNodes []string) *State {
	return &State{
		expected:  orderedNodes,
		completed: make(map[string]bool, len(orderedNodes)),
		ceiling:   len(orderedNodes) + lifecycleStages,
	}
}

// Value 当前归一化进度值。
func (s *State) Value() int { return s.value }

// Ceiling 归一化进度上限，任务开始时固定。
func (s *State) Ceiling() int { return s.ceiling }

// Current 正在执行的节点编号，空串表示没有节点在执行。
func (s *State) Current() string { return s.current }

// Completed 节点是否已完成（缓存命中或执行完毕）。
func (s *State) Completed(node string) bool { return s.completed[node] }

// MarkSubmitted 提交完成，进入刻度 1。
func (s *State) MarkSubmitted() {
	s.advance(1)
}

// MarkCached 一批节点缓存命中，按批大小推进。
func (s *State) MarkCached(nodes []string) {
	for _, n := range nodes {
		s.completed[n] = true
	}
	s.advance(len(nodes))
}

// StartNode 节点开始执行：上一个在途节点视为完成，计数推进 1。
func (s *State) StartNode(node string) {
	if s.current != "" {
		s.completed[s.current] = true
	}
	s.current = node
	s.advance(1)
}

// Finish 成功终态：在途节点补记完成，计数钳制到上限。
func (s *State) Finish() {
	if s.current != "" {
		s.completed[s.current] = true
		s.current = ""
	}
	s.value = s.ceiling
}

func (s *State) advance(n int) {
	s.value += n
	if s.value > s.ceiling {
		s.value = s.ceiling
	}
}
