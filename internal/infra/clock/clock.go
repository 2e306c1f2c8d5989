// Package clock предоставляет источник времени и ожиданий, подменяемый в тестах.
// Игровой цикл много спит (кулдауны, паузы между тапами), поэтому все ожидания
// идут через Clock: в проде это реальные таймеры, в тестах: мгновенный фейк.
package clock

import (
	"context"
	"time"
)

// Clock отдаёт текущее время и умеет ждать с уважением к отмене контекста.
type Clock interface {
	Now() time.Time
	// Sleep блокирует на d или до ctx.Done(); во втором случае возвращает ctx.Err().
	Sleep(ctx context.Context, d time.Duration) error
}

// Real: реальные часы процесса.
type Real struct{}

// Now возвращает текущее время.
func (Real) Now() time.Time { return time.Now() }

// Sleep ждёт d. Неположительная длительность: немедленный возврат (с проверкой ctx).
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
