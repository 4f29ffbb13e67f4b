package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/moxying/mox/client"
	"github.com/moxying/mox/db"
	"github.com/moxying/mox/eventbus"
	"github.com/moxying/mox/logging"
	"github.com/moxying/mox/model"
	"github.com/moxying/mox/progress"
	"github.com/moxying/mox/translator"
)

// Storage Worker 依赖的持久化契约（由 db 包实现，或测试打桩）。
type Storage interface {
	SetTaskStatus(ctx context.Context, id uint, status, errMsg string) error
	AppendImages(ctx context.Context, taskID uint, images []*db.SDImageDB) error
}

// BlobStore 结果图落盘契约。
type BlobStore interface {
	Put(name string, data []byte) error
}

// GenImageWorker 串行生成任务循环。
// 同一时刻只有一个任务占用引擎客户端与进度解释器：事件只按 prompt_id 关联，
// 且流式连接共享同一个 clientID，并发提交需要按任务建连或增加分路层，当前不做。
type GenImageWorker struct {
	engine       client.EngineAPI
	store        Storage
	blobs        BlobStore
	trans        translator.Translator
	bus          *eventbus.Bus
	outputNodeID string
	queue        chan GenImageTask
}

// NewGenImageWorker 构造 Worker。outputNodeID 为结果图所在节点编号，queueSize <= 0 取 256。
func NewGenImageWorker(engine client.EngineAPI, store Storage, blobs BlobStore, trans translator.Translator, bus *eventbus.Bus, outputNodeID string, queueSize int) *GenImageWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if trans == nil {
		trans = translator.Noop{}
	}
	return &GenImageWorker{
		engine:       engine,
		store:        store,
		blobs:        blobs,
		trans:        trans,
		bus:          bus,
		outputNodeID: outputNodeID,
		queue:        make(chan GenImageTask, queueSize),
	}
}

// AddTask 入队一个新任务，队列满时返回错误，不阻塞调用方。
func (w *GenImageWorker) AddTask(t GenImageTask) error {
	select {
	case w.queue <- t:
		return nil
	default:
		return fmt.Errorf("task queue full")
	}
}

// Run 任务循环，ctx 结束时返回。
// 单个任务的任何失败都收敛在 handle 内，循环本身永不因任务失败退出。
func (w *GenImageWorker) Run(ctx context.Context) error {
	logging.L().Info(ctx, "GenImageWorker run start")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-w.queue:
			w.handle(ctx, t)
		}
	}
}

// handle 处理一个任务：注册进度监听、执行各阶段、保证恰好一个终态事件。
func (w *GenImageWorker) handle(ctx context.Context, t GenImageTask) {
	logging.L().Info(ctx, "GenImageWorker start handle new task", "task_id", t.TaskID, "prompt", t.Prompt)
	w.publishWS(model.TopicGenImageStart, model.GenImageEventData{TaskID: t.TaskID})

	subID := w.bus.Subscribe(model.ComfyTopic(t.TaskID), w.relayProgress)
	defer w.bus.Unsubscribe(model.ComfyTopic(t.TaskID), subID)

	images, err := w.execute(ctx, &t)
	if err != nil {
		logging.L().Error(ctx, "gen image task failed", "task_id", t.TaskID, "err", err)
		if serr := w.store.SetTaskStatus(ctx, t.TaskID, db.TaskStatusFailed, err.Error()); serr != nil {
			logging.L().Error(ctx, "set task status failed", "task_id", t.TaskID, "err", serr)
		}
		w.publishWS(model.TopicGenImageFailed, model.GenImageEventData{TaskID: t.TaskID, ErrMsg: err.Error()})
		return
	}
	w.publishWS(model.TopicGenImageEnd, model.GenImageEventData{TaskID: t.TaskID, Images: images})
	logging.L().Info(ctx, "GenImageWorker task done", "task_id", t.TaskID)
}

// execute 阶段 2~5：翻译、建图、提交并等待、取图并持久化。
// 任一阶段出错立即返回，剩余阶段跳过；翻译例外，失败只降级透传。
func (w *GenImageWorker) execute(ctx context.Context, t *GenImageTask) ([]string, error) {
	// 翻译尽力而为，失败不终止任务
	if translated, err := w.trans.Translate(ctx, t.Prompt); err != nil {
		logging.L().Warn(ctx, "translate failed, use origin prompt", "task_id", t.TaskID, "err", err)
	} else if translated != "" {
		t.Prompt = translated
	}
	t.FillDefaults()

	graph, order, err := BuildTxt2ImgGraph(t)
	if err != nil {
		return nil, err
	}

	promptID, err := w.engine.PostPrompt(ctx, graph)
	if err != nil {
		return nil, err
	}
	logging.L().Debug(ctx, "queue done", "prompt_id", promptID, "task_id", t.TaskID)

	// 进度流必须在提交之后建连，引擎不会为迟到订阅者缓存事件
	stream, err := w.engine.OpenProgress(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	interp := progress.NewInterpreter(t.TaskID, promptID, order, w.bus)
	if err := interp.Run(ctx, stream); err != nil {
		return nil, err
	}

	raws, err := w.engine.FetchNodeImages(ctx, promptID, w.outputNodeID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(raws))
	rows := make([]*db.SDImageDB, 0, len(raws))
	for _, raw := range raws {
		imageUUID := uuid.NewString()
		name := imageUUID + ".png"
		if err := w.blobs.Put(name, raw); err != nil {
			return nil, fmt.Errorf("save image %s: %w", name, err)
		}
		names = append(names, name)
		rows = append(rows, &db.SDImageDB{
			UUID:           imageUUID,
			Name:           name,
			OriginPrompt:   t.OriginPrompt,
			Prompt:         t.Prompt,
			NegativePrompt: t.NegativePrompt,
			Width:          t.Width,
			Height:         t.Height,
			Seed:           t.Seed,
			Steps:          t.Steps,
			Cfg:            t.Cfg,
			SamplerName:    t.SamplerName,
			Scheduler:      t.Scheduler,
			Denoise:        t.Denoise,
			CkptName:       t.CkptName,
		})
	}
	if err := w.store.AppendImages(ctx, t.TaskID, rows); err != nil {
		return nil, fmt.Errorf("append images: %w", err)
	}
	if err := w.store.SetTaskStatus(ctx, t.TaskID, db.TaskStatusDone, ""); err != nil {
		return nil, fmt.Errorf("set task done: %w", err)
	}
	return names, nil
}

// relayProgress 把解释器的内部进度转发为出站 genimage_progress 事件。
func (w *GenImageWorker) relayProgress(payload any) {
	u, ok := payload.(progress.Update)
	if !ok {
		return
	}
	w.publishWS(model.TopicGenImageProgress, model.GenImageEventData{
		TaskID:           u.TaskID,
		ProgressTip:      u.Tip,
		ProgressValue:    u.Value,
		ProgressValueMax: u.Max,
		NodeID:           u.NodeID,
		NodeValue:        u.NodeValue,
		NodeValueMax:     u.NodeMax,
		ErrMsg:           u.ErrMsg,
	})
}

func (w *GenImageWorker) publishWS(topic string, data model.GenImageEventData) {
	w.bus.Publish(model.EventTypeWS, model.WSEvent{Topic: topic, Data: data})
}
