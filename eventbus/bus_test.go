package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// collector 线程安全地收集投递结果。
type collector struct {
	mu  sync.Mutex
	got []any
}

func (c *collector) add(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, v)
}

func (c *collector) snapshot() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.got))
	copy(out, c.got)
	return out
}

func TestBus_FIFOAndOrder(t *testing.T) {
	Convey("publish order and registration order should be preserved", t, func() {
		bus := NewBus(16)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = bus.Run(ctx) }()

		c := &collector{}
		bus.Subscribe("t", func(p any) { c.add("a:" + p.(string)) })
		bus.Subscribe("t", func(p any) { c.add("b:" + p.(string)) })

		bus.Publish("t", "1")
		bus.Publish("t", "2")
		time.Sleep(50 * time.Millisecond)

		So(c.snapshot(), ShouldResemble, []any{"a:1", "b:1", "a:2", "b:2"})
	})
}

func TestBus_Unsubscribe(t *testing.T) {
	Convey("unsubscribed handler should not receive further events", t, func() {
		bus := NewBus(16)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = bus.Run(ctx) }()

		c := &collector{}
		id := bus.Subscribe("t", func(p any) { c.add(p) })
		bus.Publish("t", "before")
		time.Sleep(50 * time.Millisecond)
		bus.Unsubscribe("t", id)
		bus.Publish("t", "after")
		time.Sleep(50 * time.Millisecond)

		So(c.snapshot(), ShouldResemble, []any{"before"})
	})
}

func TestBus_HandlerPanicIsolation(t *testing.T) {
	Convey("a panicking handler should not stop dispatch", t, func() {
		bus := NewBus(16)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = bus.Run(ctx) }()

		c := &collector{}
		bus.Subscribe("t", func(p any) { panic("boom") })
		bus.Subscribe("t", func(p any) { c.add(p) })

		bus.Publish("t", "x")
		bus.Publish("t", "y")
		time.Sleep(50 * time.Millisecond)

		So(c.snapshot(), ShouldResemble, []any{"x", "y"})
	})
}

func TestBus_RepublishingHandlerNeverBlocksDispatch(t *testing.T) {
	Convey("a handler publishing back onto the bus must not stall the dispatcher", t, func() {
		// 初始容量远小于消息量，转发型回调（内部进度 → 出站主题）叠加
		// 高频生产者时分发循环也必须走完全部消息
		bus := NewBus(1)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = bus.Run(ctx) }()

		c := &collector{}
		bus.Subscribe("internal", func(p any) { bus.Publish("outward", p) })
		bus.Subscribe("outward", func(p any) { c.add(p) })

		const n = 500
		for i := 0; i < n; i++ {
			bus.Publish("internal", i)
		}

		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			if len(c.snapshot()) == n {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
		got := c.snapshot()
		So(got, ShouldHaveLength, n)
		So(got[0], ShouldEqual, 0)
		So(got[n-1], ShouldEqual, n-1)
	})
}

func TestBus_TopicIsolation(t *testing.T) {
	Convey("events should only reach subscribers of their topic", t, func() {
		bus := NewBus(16)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = bus.Run(ctx) }()

		c := &collector{}
		bus.Subscribe("t1", func(p any) { c.add(p) })
		bus.Publish("t2", "other")
		bus.Publish("t1", "mine")
		time.Sleep(50 * time.Millisecond)

		So(c.snapshot(), ShouldResemble, []any{"mine"})
	})
}
