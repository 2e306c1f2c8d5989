// Package game содержит доменную логику фарма мини-игры HorizonLaunch.
// Здесь живут модель серверного состояния (ракета, пользователь), модель скорости,
// планирование серий тапов и Driver: бесконечный самовосстанавливающийся цикл
// «логин → буст → тапы → сон» для одного аккаунта.
//
// Пакет не знает ни про HTTP, ни про MTProto: транспорт приходит снаружи через
// интерфейсы API/SessionFactory/Acquirer, время берётся через clock.Clock.
package game

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrInvalidSession: фатальная ошибка аккаунта: сессия Telegram не авторизована,
// ключ отозван или пользователь деактивирован. Ретраи бессмысленны, цикл аккаунта завершается.
var ErrInvalidSession = errors.New("invalid session")

// RocketState: состояние ракеты, как его отдаёт сервер в каждом ответе.
// Локально не хранится: всегда берётся из последнего ответа.
type RocketState struct {
	Distance           float64
	BoostAttempts      int
	LastBoostTimestamp int64
	BoostTaps          int
}

// UserInfo: профиль игрока на сервере. Используется только для модели скорости.
type UserInfo struct {
	Name           string
	ReferralsCount int
}

// LoginResult: ответ /auth.
type LoginResult struct {
	OK     bool
	Rocket RocketState
	User   UserInfo
}

// RocketResult: ответ /tap?boost=true и /taps.
type RocketResult struct {
	Rocket RocketState
}

// API: HTTP-сессия игрового API, принадлежащая одному аккаунту.
// Каждый метод возвращает явный результат или ошибку; nil-результат без ошибки
// трактуется как отсутствие ответа.
type API interface {
	Login(ctx context.Context, auth string) (*LoginResult, error)
	Boost(ctx context.Context, auth string) (*RocketResult, error)
	Tap(ctx context.Context, auth string, count int) (*RocketResult, error)
	// CheckProxy возвращает внешний IP, под которым сессия выходит в сеть.
	CheckProxy(ctx context.Context) (string, error)
	// Close освобождает соединения. Повторный вызов безопасен.
	Close() error
	Closed() bool
}

// SessionFactory создаёт новую HTTP-сессию (с прокси и, при необходимости, подменным UA).
type SessionFactory func() (API, error)

// Acquirer добывает строку авторизации (init data мини-приложения).
// Нефатальные сбои возвращаются как ("", nil); фатальные возвращаются ошибкой с ErrInvalidSession в цепочке.
type Acquirer interface {
	Acquire(ctx context.Context) (string, error)
}
