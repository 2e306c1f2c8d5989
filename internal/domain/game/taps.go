package game

import (
	"time"

	"horizon-tapper/internal/shared"
)

const (
	// BoostCooldown: окно буста: после буста следующий доступен через час.
	BoostCooldown = 3600 * time.Second
	// MaxBoostAttempts: лимит бустов в окне (контролирует сервер, клиент только читает).
	MaxBoostAttempts = 6
	// BoostTapQuota: сколько тапов можно отправить за одно окно буста.
	BoostTapQuota = 1000
	// TapBatchMin/TapBatchMax: размер одного запроса /taps до обрезки по остатку квоты.
	TapBatchMin = 30
	TapBatchMax = 60
)

// SinceLastBoost возвращает время с последнего буста (целые секунды), не меньше нуля.
func SinceLastBoost(now time.Time, lastBoostTimestamp int64) time.Duration {
	elapsed := now.Unix() - lastBoostTimestamp
	if elapsed < 0 {
		elapsed = 0
	}
	return time.Duration(elapsed) * time.Second
}

// CanBoost: буст пробуем только после истечения окна и пока не исчерпаны попытки.
func CanBoost(sinceBoost time.Duration, attempts int) bool {
	return sinceBoost >= BoostCooldown && attempts < MaxBoostAttempts
}

// NextTapCount возвращает размер следующего запроса /taps: случайное [30,60],
// обрезанное остатком квоты. При исчерпанной квоте: 0.
func NextTapCount(r shared.IntN, done int) int {
	remaining := BoostTapQuota - done
	if remaining <= 0 {
		return 0
	}
	return min(shared.RandomFrom(r, TapBatchMin, TapBatchMax), remaining)
}

// PlanBurst раскладывает остаток квоты (начиная с уже набранных start тапов) на запросы.
// Сумма плана ровно BoostTapQuota-start, каждый элемент в [1,60].
// start вне [0, BoostTapQuota) нормализуется: отрицательный к 0, исчерпанный даёт пустой план.
func PlanBurst(r shared.IntN, start int) []int {
	done := max(start, 0)
	var plan []int
	for done < BoostTapQuota {
		count := NextTapCount(r, done)
		plan = append(plan, count)
		done += count
	}
	return plan
}
