package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"horizon-tapper/internal/app"
	"horizon-tapper/internal/infra/concurrency"
	"horizon-tapper/internal/infra/config"
	"horizon-tapper/internal/infra/logger"
	"horizon-tapper/internal/infra/pr"
)

const (
	actionRun = "run"
	actionAdd = "add"
)

func main() {
	if err := pr.Init(); err != nil {
		logger.Fatal("failed to assigning stdout and stderr", zap.Error(err))
	}
	defer pr.Close()

	// envPath определяет расположение .env с API_ID/API_HASH и настройками игрового цикла.
	envPath := flag.String("env", "assets/.env", "path to .env file")
	// action: run запускает все сессии, add регистрирует новую.
	action := flag.String("action", actionRun, "run | add")
	flag.Parse()

	if err := config.Load(*envPath); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	env := config.Env()

	// logger.Init задаёт уровень, а SetWriters перенаправляет выводы в подсистему pr (чтобы логи не рвали ввод).
	logger.Init(env.LogLevel)
	logger.SetWriters(pr.Stdout(), pr.Stderr())
	if env.LogFile != "" {
		logger.EnableFile(logger.FileOptions{
			Path:       env.LogFile,
			Level:      env.LogFileLevel,
			MaxSizeMB:  env.LogFileMaxSize,
			MaxBackups: env.LogFileMaxBackups,
			MaxAgeDays: env.LogFileMaxAge,
			Compress:   env.LogFileCompress,
		})
	}
	defer logger.Close()
	for _, msg := range config.Warnings() {
		logger.Warn(msg)
	}

	// Контекст с обработкой системных сигналов (Ctrl+C/SIGTERM). Циклы останавливаются только его отменой.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.NewApp(env)
	switch *action {
	case actionAdd:
		if err := a.Register(ctx); err != nil {
			stop()
			logger.Fatal("session registration failed", zap.Error(err))
		}
	case actionRun:
		concurrency.StartTimeoutTimer(ctx, env.RunTimeoutSec, stop)
		if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			stop()
			logger.Fatal("app run failed", zap.Error(err))
		}
		logger.Info("Graceful shutdown complete")
	default:
		logger.Fatal("unknown action", zap.String("action", *action))
	}
}
