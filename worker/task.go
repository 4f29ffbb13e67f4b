package worker

import "math/rand"

// TaskType 任务类型。当前只有文生图一种。
type TaskType string

const (
	TaskTypeTxt2Img TaskType = "txt2img"
)

// GenImageTask 一次生成任务的描述。
// TaskID 为已落库的持久化任务ID；引擎侧的 prompt_id 在提交后才产生，
// 仅在 Worker 与解释器之间存活，不进入该结构。
type GenImageTask struct {
	TaskID   uint
	TaskType TaskType

	OriginPrompt   string // 用户原始输入，翻译前
	Prompt         string
	NegativePrompt string

	CkptName    string
	Seed        int64
	Steps       int
	Cfg         float64
	SamplerName string
	Scheduler   string
	Denoise     float64
	BatchSize   int
	Width       int
	Height      int
}

const maxRandomSeed = 110649831182997

// FillDefaults 补齐零值参数。
func (t *GenImageTask) FillDefaults() {
	if t.TaskType == "" {
		t.TaskType = TaskTypeTxt2Img
	}
	if t.CkptName == "" {
		t.CkptName = "juggernautXL_v9Rdphoto2Lightning.safetensors"
	}
	if t.Seed == 0 {
		t.Seed = rand.Int63n(maxRandomSeed) + 1
	}
	if t.Steps == 0 {
		t.Steps = 5
	}
	if t.Cfg == 0 {
		t.Cfg = 2.0
	}
	if t.SamplerName == "" {
		t.SamplerName = "dpmpp_sde"
	}
	if t.Scheduler == "" {
		t.Scheduler = "normal"
	}
	if t.Denoise == 0 {
		t.Denoise = 1.0
	}
	if t.BatchSize == 0 {
		t.BatchSize = 4
	}
	if t.Width == 0 {
		t.Width = 1024
	}
	if t.Height == 0 {
		t.Height = 1024
	}
}
