// Package shared содержит небольшие общие утилиты без внешних зависимостей.
// Содержит функции для работы со слайсами и числовыми диапазонами.
// Фокус: безопасные операции без паник, сохранение порядка и простая семантика.
package shared

import "math/rand/v2"

// IntN: минимальный источник случайности. *rand.Rand из math/rand/v2 ему удовлетворяет,
// что позволяет подставлять детерминированный генератор в тестах.
type IntN interface {
	IntN(n int) int
}

// globalRand адаптирует потокобезопасные функции пакета math/rand/v2 к IntN.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) } // #nosec G404

// DefaultRand: источник по умолчанию на базе math/rand/v2.
var DefaultRand IntN = globalRand{}

// Unique возвращает срез уникальных значений, сохраняя порядок первого появления.
func Unique[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// GetAt безопасно возвращает элемент слайса по индексу i. В случае выхода за
// границы возвращает нулевое значение типа T и false, без паники.
func GetAt[T any](s []T, i int) (T, bool) {
	if i < 0 || i >= len(s) {
		var zero T
		return zero, false
	}
	return s[i], true
}

// Random возвращает псевдослучайное целое в диапазоне [fromMin, toMax] включительно.
// Если fromMin >= toMax, возвращается fromMin. Криптостойкость не требуется.
func Random(fromMin, toMax int) int {
	return RandomFrom(DefaultRand, fromMin, toMax)
}

// RandomFrom: то же, что Random, но с явным источником r (nil: DefaultRand).
func RandomFrom(r IntN, fromMin, toMax int) int {
	if fromMin >= toMax {
		return fromMin
	}
	if r == nil {
		r = DefaultRand
	}
	// Смещение на +fromMin после IntN(toMax-fromMin+1) даёт включительный верхний предел.
	return r.IntN(toMax-fromMin+1) + fromMin
}
