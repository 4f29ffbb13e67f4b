package eventbus

import (
	"context"
	"sync"

	"github.com/moxying/mox/logging"
)

// Handler 订阅回调。由分发协程串行调用，回调内不应长时间阻塞。
type Handler func(payload any)

type subscription struct {
	id int64
	fn Handler
}

type envelope struct {
	topic   string
	payload any
}

// Bus 进程内发布订阅总线。
// Publish 仅入队且永不阻塞：队列无上界，回调在分发协程内再次 Publish 是
// 合法且常见的用法（进度转发、日志旁路），不允许因此卡死分发循环。
// 单一分发协程按入队顺序出队，并按注册顺序依次调用当前订阅者；
// 回调 panic 被捕获并记录，不会中断分发循环。
type Bus struct {
	mu      sync.Mutex
	nextID  int64
	subs    map[string][]subscription
	pending []envelope
	notify  chan struct{}
}

// NewBus 创建总线。capacity <= 0 时使用默认初始容量，队列本身无上界。
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Bus{
		subs:    map[string][]subscription{},
		pending: make([]envelope, 0, capacity),
		notify:  make(chan struct{}, 1),
	}
}

// Subscribe 注册订阅，返回用于退订的令牌。
func (b *Bus) Subscribe(topic string, h Handler) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs[topic] = append(b.subs[topic], subscription{id: b.nextID, fn: h})
	return b.nextID
}

// Unsubscribe 按令牌退订。令牌不存在时为空操作。
func (b *Bus) Unsubscribe(topic string, id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[topic]
	for i, s := range list {
		if s.id == id {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(b.subs, topic)
	} else {
		b.subs[topic] = list
	}
}

// Publish 投递一条消息。只做追加与唤醒，任何协程（包括分发协程自身的
// 回调）调用都不会阻塞。
func (b *Bus) Publish(topic string, payload any) {
	b.mu.Lock()
	b.pending = append(b.pending, envelope{topic: topic, payload: payload})
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Run 分发循环，ctx 结束时返回。应在独立协程中运行且仅运行一个。
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		b.mu.Lock()
		batch := b.pending
		b.pending = nil
		b.mu.Unlock()
		for _, ev := range batch {
			b.dispatch(ctx, ev)
		}
		if len(batch) > 0 {
			// 回调可能又入了队，先清空积压再等待
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.notify:
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, ev envelope) {
	b.mu.Lock()
	list := make([]subscription, len(b.subs[ev.topic]))
	copy(list, b.subs[ev.topic])
	b.mu.Unlock()
	for _, s := range list {
		b.call(ctx, ev, s)
	}
}

func (b *Bus) call(ctx context.Context, ev envelope, s subscription) {
	defer func() {
		if r := recover(); r != nil {
			logging.L().Error(ctx, "event handler panic", "topic", ev.topic, "err", r)
		}
	}()
	s.fn(ev.payload)
}
