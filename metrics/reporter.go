package metrics

import (
	"context"
	"time"

	"github.com/moxying/mox/eventbus"
	"github.com/moxying/mox/model"
)

// Reporter 周期性采集系统指标并发布到出站通道。
type Reporter struct {
	bus      *eventbus.Bus
	interval time.Duration
}

// NewReporter 构造。seconds <= 0 时取 5 秒。
func NewReporter(bus *eventbus.Bus, seconds int) *Reporter {
	if seconds <= 0 {
		seconds = 5
	}
	return &Reporter{bus: bus, interval: time.Duration(seconds) * time.Second}
}

// Run 上报循环，ctx 结束时返回。
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m := CollectSystemMetric(ctx)
			r.bus.Publish(model.EventTypeWS, model.WSEvent{Topic: model.TopicSystemMetric, Data: m})
		}
	}
}
