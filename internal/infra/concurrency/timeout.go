// Package concurrency содержит утилиты конкурентного исполнения уровня процесса.
// Здесь: автоматическая остановка всех игровых циклов по истечении RUN_TIMEOUT_SEC.
package concurrency

import (
	"context"
	"time"

	"go.uber.org/zap"

	"horizon-tapper/internal/infra/logger"
)

// StartTimeoutTimer запускает горутину, которая вызовет cancelFunc через timeout секунд.
// Если timeout <= 0 или cancelFunc == nil, ничего не делает. Отмена ctx снимает таймер.
func StartTimeoutTimer(ctx context.Context, timeout int, cancelFunc context.CancelFunc) {
	if timeout <= 0 || cancelFunc == nil {
		return
	}

	duration := time.Duration(timeout) * time.Second

	go func() {
		logger.Info("Auto-shutdown timer started", zap.Duration("timeout", duration))

		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timer.C:
			logger.Info("Auto-shutdown timeout reached, stopping accounts")
			cancelFunc()
		case <-ctx.Done():
			logger.Debug("Auto-shutdown timer cancelled")
		}
	}()
}
