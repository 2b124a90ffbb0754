package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pos/internal/config"
	httpapi "pos/internal/http"
	"pos/internal/kv"
	"pos/internal/logger"
	"pos/internal/repository"
	"pos/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	ctx := context.Background()

	var pinStore kv.Store
	if cfg.RedisURL != "" {
		redisStore, err := kv.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisStore.Close()
		pinStore = redisStore
		logger.Log.Info("pinned products stored in redis")
	} else {
		pinStore = kv.NewMemory()
	}

	store := repository.NewMemoryStore()
	store.SeedDemo(ctx)
	tx := repository.NewMemoryTx(store)
	customers := repository.NewMemoryCustomers(store)
	sales := repository.NewMemorySales(store, tx)

	notifier := &service.ZapNotifier{Log: logger.Log}
	session := service.NewSession(store, customers, sales, pinStore, notifier, logger.Log)
	session.Open(ctx)

	srv := httpapi.NewServer(session, store)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("shutdown error", zap.Error(err))
	}
}
