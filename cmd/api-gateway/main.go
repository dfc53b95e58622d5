package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"z-llm-chat-api/internal/config"
	"z-llm-chat-api/internal/wire"
	"z-llm-chat-api/pkg/logger"
	"z-llm-chat-api/pkg/tracer"
)

func main() {
	// .env 不存在时忽略，环境变量可由部署平台注入
	_ = godotenv.Load()

	cfg := config.MustLoad()

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "追踪初始化失败", err)
	}

	app, cleanup, err := wire.InitializeApp(cfg)
	if err != nil {
		logger.Fatal(ctx, "应用装配失败", err)
	}
	defer cleanup()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port),
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "HTTP 服务启动",
			"addr", server.Addr,
			"env", cfg.App.Env,
			"version", cfg.App.Version,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "HTTP 服务异常退出", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "收到退出信号，开始优雅关闭")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP 服务关闭失败", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "追踪器关闭失败", err)
	}

	logger.Info(ctx, "服务已退出")
}
