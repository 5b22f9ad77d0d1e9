package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/marketgrid/limitbook/params"
	"github.com/marketgrid/limitbook/pkg/api"
	"github.com/marketgrid/limitbook/pkg/book"
	"github.com/marketgrid/limitbook/pkg/service"
	"github.com/marketgrid/limitbook/pkg/storage"
	"github.com/marketgrid/limitbook/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	var logger *zap.Logger
	var err error
	if cfg.LogFile != "" {
		logger, err = util.NewLoggerWithFile(cfg.LogFile)
	} else {
		logger, err = util.NewLogger()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		sugar.Fatalw("store_open_failed", "dir", cfg.Storage.DataDir, "err", err)
	}

	// Recovery must finish before the API accepts traffic: the durable
	// store is the single source of truth after a crash.
	b := book.New()
	seq, err := service.Recover(store, b, sugar)
	if err != nil {
		sugar.Fatalw("recovery_failed", "err", err)
	}

	svc := service.New(b, seq, store, sugar, service.WriterConfig{
		QueueDepth: cfg.Persist.QueueDepth,
		Retries:    cfg.Persist.Retries,
		Backoff:    cfg.Persist.Backoff,
	})

	srv := api.NewServer(svc, sugar).Start(cfg.Server.Listen)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	sugar.Infow("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("http_shutdown_failed", "err", err)
	}

	// Drain the write-behind queue, then close the store.
	svc.Close()
	if err := store.Close(); err != nil {
		sugar.Errorw("store_close_failed", "err", err)
	}
	sugar.Infow("stopped")
}
