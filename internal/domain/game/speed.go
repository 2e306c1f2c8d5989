package game

import (
	"math"
	"time"
)

const (
	// SpeedEpoch: момент старта игры (unix-секунды), от него считаются «дни с начала».
	SpeedEpoch int64 = 1724760000
	secondsPerDay    = 86400

	// baseSpeed: базовая величина, от которой считается отображаемая скорость.
	baseSpeed = 1583
	// boostSpeedMultiplier применяется, пока не истёк час после последнего буста.
	boostSpeedMultiplier = 2
)

// speedTier: ступень таблицы: бонус к скорости (в процентах) требует одновременно
// не меньше referrals рефералов и не меньше days дней с начала игры.
type speedTier struct {
	referrals int
	days      int64
	bonus     int
}

// speedTiers упорядочены от старшей ступени к младшей; берётся первая подходящая.
var speedTiers = []speedTier{
	{referrals: 300, days: 18, bonus: 250},
	{referrals: 200, days: 16, bonus: 200},
	{referrals: 100, days: 14, bonus: 175},
	{referrals: 50, days: 12, bonus: 150},
	{referrals: 25, days: 10, bonus: 125},
	{referrals: 10, days: 8, bonus: 115},
	{referrals: 5, days: 6, bonus: 100},
	{referrals: 4, days: 4, bonus: 50},
	{referrals: 3, days: 2, bonus: 25},
	{referrals: 1, days: math.MinInt64, bonus: 10},
}

// DaysSinceStart возвращает число полных суток с SpeedEpoch (деление с округлением вниз,
// в том числе для моментов до эпохи).
func DaysSinceStart(now time.Time) int64 {
	diff := now.Unix() - SpeedEpoch
	days := diff / secondsPerDay
	if diff%secondsPerDay != 0 && diff < 0 {
		days--
	}
	return days
}

// SpeedBonus: ступенчатая функция бонуса скорости по числу рефералов и дням с начала игры.
func SpeedBonus(referrals int, days int64) int {
	for _, tier := range speedTiers {
		if referrals >= tier.referrals && days >= tier.days {
			return tier.bonus
		}
	}
	return 0
}

// SpeedCalc: чистая функция отображаемой скорости:
// roundHalfEven(1583 + 1583*bonus/100), удвоенная при активном бусте (sinceBoost < 1ч).
// Значение только логируется и не влияет на темп запросов.
func SpeedCalc(referrals int, sinceBoost time.Duration, now time.Time) int {
	bonus := SpeedBonus(referrals, DaysSinceStart(now))
	t := int(math.RoundToEven(baseSpeed + baseSpeed*float64(bonus)/100))
	if sinceBoost < BoostCooldown {
		return t * boostSpeedMultiplier
	}
	return t
}
