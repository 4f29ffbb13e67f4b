package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/mock/gomock"

	"github.com/moxying/mox/client"
	"github.com/moxying/mox/db"
	"github.com/moxying/mox/eventbus"
	"github.com/moxying/mox/mocks"
	"github.com/moxying/mox/model"
)

// scriptedStream 按脚本回放进度事件。
type scriptedStream struct {
	events []client.ProgressEvent
	pos    int
}

func (s *scriptedStream) Next() (client.ProgressEvent, error) {
	if s.pos >= len(s.events) {
		return client.ProgressEvent{}, fmt.Errorf("%w: eof", client.ErrStreamDisconnected)
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func (s *scriptedStream) Close() error { return nil }

func successStream(promptID string) *scriptedStream {
	return &scriptedStream{events: []client.ProgressEvent{
		{Type: client.EventExecutionStart, PromptID: promptID},
		{Type: client.EventExecuting, PromptID: promptID, Node: "3"},
		{Type: client.EventExecuting, PromptID: promptID, NodeNull: true},
	}}
}

// fakeStore 记录状态流转与图片落库的 Storage 打桩。
type fakeStore struct {
	mu       sync.Mutex
	statuses map[uint][]string
	errMsgs  map[uint]string
	images   map[uint][]*db.SDImageDB
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		statuses: map[uint][]string{},
		errMsgs:  map[uint]string{},
		images:   map[uint][]*db.SDImageDB{},
	}
}

func (f *fakeStore) SetTaskStatus(ctx context.Context, id uint, status, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = append(f.statuses[id], status)
	f.errMsgs[id] = errMsg
	return nil
}

func (f *fakeStore) AppendImages(ctx context.Context, taskID uint, images []*db.SDImageDB) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[taskID] = append(f.images[taskID], images...)
	return nil
}

func (f *fakeStore) statusOf(id uint) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statuses[id]...)
}

// fakeBlobs 记录落盘文件名的 BlobStore 打桩。
type fakeBlobs struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{files: map[string][]byte{}} }

func (f *fakeBlobs) Put(name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = data
	return nil
}

// failingTranslator 恒定失败的翻译器。
type failingTranslator struct{}

func (failingTranslator) Translate(ctx context.Context, text string) (string, error) {
	return "", fmt.Errorf("translator endpoint down")
}

// wsSink 收集出站 ws 事件。
type wsSink struct {
	mu     sync.Mutex
	events []model.WSEvent
}

func (s *wsSink) add(p any) {
	if ev, ok := p.(model.WSEvent); ok {
		s.mu.Lock()
		s.events = append(s.events, ev)
		s.mu.Unlock()
	}
}

func (s *wsSink) topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Topic)
	}
	return out
}

func (s *wsSink) terminalOf(taskID uint) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, ev := range s.events {
		data, ok := ev.Data.(model.GenImageEventData)
		if !ok || data.TaskID != taskID {
			continue
		}
		if ev.Topic == model.TopicGenImageEnd || ev.Topic == model.TopicGenImageFailed {
			out = append(out, ev.Topic)
		}
	}
	return out
}

func runWorkerBus(t *testing.T) *eventbus.Bus {
	t.Helper()
	bus := eventbus.NewBus(256)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = bus.Run(ctx) }()
	return bus
}

func TestWorkerHandleSuccess(t *testing.T) {
	Convey("a successful task persists images and emits exactly one end event", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		bus := runWorkerBus(t)
		sink := &wsSink{}
		bus.Subscribe(model.EventTypeWS, sink.add)

		engine := mocks.NewMockEngineAPI(ctrl)
		engine.EXPECT().PostPrompt(gomock.Any(), gomock.Any()).Return("p-1", nil)
		engine.EXPECT().OpenProgress(gomock.Any()).Return(successStream("p-1"), nil)
		engine.EXPECT().FetchNodeImages(gomock.Any(), "p-1", "10").
			Return([][]byte{[]byte("img-a"), []byte("img-b")}, nil)

		store := newFakeStore()
		blobs := newFakeBlobs()
		w := NewGenImageWorker(engine, store, blobs, nil, bus, "10", 8)

		w.handle(context.Background(), GenImageTask{TaskID: 7, Prompt: "a cat", OriginPrompt: "a cat"})
		time.Sleep(100 * time.Millisecond)

		// 状态恰好置一次 done
		So(store.statusOf(7), ShouldResemble, []string{db.TaskStatusDone})

		// 两张图片落盘且文件名互不相同
		So(blobs.files, ShouldHaveLength, 2)
		So(store.images[7], ShouldHaveLength, 2)
		So(store.images[7][0].Name, ShouldNotEqual, store.images[7][1].Name)
		for _, row := range store.images[7] {
			So(strings.HasSuffix(row.Name, ".png"), ShouldBeTrue)
			So(row.Prompt, ShouldEqual, "a cat")
		}

		// start 在前，恰好一个终态事件
		topics := sink.topics()
		So(topics[0], ShouldEqual, model.TopicGenImageStart)
		So(sink.terminalOf(7), ShouldResemble, []string{model.TopicGenImageEnd})
	})
}

func TestWorkerFailureDoesNotStopLoop(t *testing.T) {
	Convey("a failed task yields one failed event and the next task still runs", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		bus := runWorkerBus(t)
		sink := &wsSink{}
		bus.Subscribe(model.EventTypeWS, sink.add)

		engine := mocks.NewMockEngineAPI(ctrl)
		// 任务 A 提交被拒，任务 B 正常
		gomock.InOrder(
			engine.EXPECT().PostPrompt(gomock.Any(), gomock.Any()).
				Return("", &client.EngineRejectedError{Details: "bad node"}),
			engine.EXPECT().PostPrompt(gomock.Any(), gomock.Any()).Return("p-2", nil),
		)
		engine.EXPECT().OpenProgress(gomock.Any()).Return(successStream("p-2"), nil)
		engine.EXPECT().FetchNodeImages(gomock.Any(), "p-2", "10").
			Return([][]byte{[]byte("img")}, nil)

		store := newFakeStore()
		w := NewGenImageWorker(engine, store, newFakeBlobs(), nil, bus, "10", 8)

		So(w.AddTask(GenImageTask{TaskID: 1, Prompt: "will fail"}), ShouldBeNil)
		So(w.AddTask(GenImageTask{TaskID: 2, Prompt: "will pass"}), ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() { _ = w.Run(ctx); close(done) }()

		So(waitUntil(2*time.Second, func() bool {
			return len(sink.terminalOf(1)) == 1 && len(sink.terminalOf(2)) == 1
		}), ShouldBeTrue)
		cancel()
		<-done

		So(sink.terminalOf(1), ShouldResemble, []string{model.TopicGenImageFailed})
		So(sink.terminalOf(2), ShouldResemble, []string{model.TopicGenImageEnd})
		So(store.statusOf(1), ShouldResemble, []string{db.TaskStatusFailed})
		So(store.statusOf(2), ShouldResemble, []string{db.TaskStatusDone})
		So(store.errMsgs[1], ShouldContainSubstring, "bad node")
	})
}

func TestWorkerTranslateDegradation(t *testing.T) {
	Convey("a failing translator degrades to the origin prompt", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		bus := runWorkerBus(t)

		var submitted client.Graph
		engine := mocks.NewMockEngineAPI(ctrl)
		engine.EXPECT().PostPrompt(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, g client.Graph) (string, error) {
				submitted = g
				return "p-3", nil
			})
		engine.EXPECT().OpenProgress(gomock.Any()).Return(successStream("p-3"), nil)
		engine.EXPECT().FetchNodeImages(gomock.Any(), "p-3", "10").
			Return([][]byte{[]byte("img")}, nil)

		store := newFakeStore()
		w := NewGenImageWorker(engine, store, newFakeBlobs(), failingTranslator{}, bus, "10", 8)

		w.handle(context.Background(), GenImageTask{TaskID: 5, Prompt: "月球上的猫", OriginPrompt: "月球上的猫"})

		So(submitted, ShouldNotBeNil)
		So(submitted["6"].Inputs["text"], ShouldEqual, "月球上的猫")
		So(store.statusOf(5), ShouldResemble, []string{db.TaskStatusDone})
	})
}

func TestWorkerQueueFull(t *testing.T) {
	Convey("a full queue rejects new tasks without blocking", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		w := NewGenImageWorker(mocks.NewMockEngineAPI(ctrl), newFakeStore(), newFakeBlobs(), nil, runWorkerBus(t), "10", 1)
		So(w.AddTask(GenImageTask{TaskID: 1}), ShouldBeNil)
		So(w.AddTask(GenImageTask{TaskID: 2}), ShouldNotBeNil)
	})
}

func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
