package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/oxxo-demo/orderhub/internal/audit"
	"github.com/oxxo-demo/orderhub/internal/config"
	"github.com/oxxo-demo/orderhub/internal/logger"
	"github.com/oxxo-demo/orderhub/internal/remote"
)

func main() {
	cfg := config.Load()
	log := logger.New(zapcore.InfoLevel)
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := remote.NewFileStore(cfg.OrdersFile)
	if err != nil {
		log.Fatal("failed to open orders file", zap.String("path", cfg.OrdersFile), zap.Error(err))
	}

	var sink audit.Sink = audit.NewLogSink(log)
	if len(cfg.KafkaBrokers) > 0 {
		log.Info("audit trail publishing to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		sink = audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	auditMgr := audit.NewManager(2, 5, 500*time.Millisecond, sink, log)
	auditMgr.Start(ctx)

	srv := remote.New(store, auditMgr, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPPort)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	auditMgr.Shutdown(shutdownCtx)

	log.Info("remote order service stopped")
}
