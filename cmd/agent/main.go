package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/moxying/mox/client"
	"github.com/moxying/mox/config"
	"github.com/moxying/mox/db"
	"github.com/moxying/mox/eventbus"
	"github.com/moxying/mox/logging"
	"github.com/moxying/mox/metrics"
	"github.com/moxying/mox/model"
	"github.com/moxying/mox/server"
	"github.com/moxying/mox/storage"
	"github.com/moxying/mox/translator"
	"github.com/moxying/mox/worker"
)

func main() {
	configFile := flag.String("config", "mox.yaml", "配置文件路径")
	flag.Parse()

	if err := run(*configFile); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "agent exit with error: %v\n", err)
		os.Exit(1)
	}
}

// run 按依赖顺序组装所有组件，全部长生命周期循环跑在一个 errgroup 下。
// 没有任何全局单例：每个组件在构造时拿到自己的协作者。
func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.SetGlobal(logging.NewSlogLoggerWithLevel(logging.ParseLevel(cfg.Log.Level)))
	ctx := context.Background()
	logging.L().Info(ctx, "agent start", "config", configFile)

	store, err := db.Open(cfg.DB.SqliteFile, cfg.DB.Debug)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	blobs, err := storage.NewFileStore(cfg.Storage.OutputFileDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	bus := eventbus.NewBus(0)

	// info 及以上日志同时转发到前端日志面板
	logging.SetHook(func(_ context.Context, _ slog.Level, line string) {
		bus.Publish(model.EventTypeWS, model.WSEvent{Topic: model.TopicCommonLog, Data: model.CommonLogEventData{Log: line}})
	})

	var trans translator.Translator = translator.Noop{}
	if cfg.Translator.Enabled && cfg.Translator.Endpoint != "" {
		trans = translator.NewHTTPTranslator(cfg.Translator.Endpoint)
	}

	engine := client.NewClient(cfg.ComfyUI.Endpoint, cfg.ComfyUI.StreamIdleSeconds)
	wrk := worker.NewGenImageWorker(engine, store, blobs, trans, bus, cfg.ComfyUI.OutputNodeID, 0)
	srv := server.New(cfg, store, blobs, wrk, engine, bus)
	reporter := metrics.NewReporter(bus, cfg.Metrics.ReportSeconds)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return bus.Run(gctx) })
	g.Go(func() error { return srv.ConnMgr().Run(gctx) })
	g.Go(func() error { return wrk.Run(gctx) })
	g.Go(func() error { return reporter.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })

	err = g.Wait()
	logging.L().Info(ctx, "agent exit", "err", err)
	return err
}
