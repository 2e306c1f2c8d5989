// Package core собирает gotd-клиент для одной пользовательской сессии:
// файловое хранилище сессии, маршрутизация к дата-центрам через прокси,
// ограничение частоты RPC и «паспорт» Android-устройства.
// Апдейты не нужны (клиент подключается только за init data), поэтому NoUpdates.

package core

import (
	"github.com/go-faster/errors"
	"github.com/gotd/contrib/middleware/ratelimit"
	"github.com/gotd/td/telegram"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"horizon-tapper/internal/infra/proxy"
	"horizon-tapper/internal/infra/telegram/session"
)

// Options: параметры клиента одной сессии.
type Options struct {
	AppID       int
	AppHash     string
	SessionPath string
	// Proxy: прокси MTProto (SOCKS5 или HTTP CONNECT); nil: прямое соединение.
	Proxy *proxy.Proxy
	// RPS: лимит RPC в секунду (burst = 2*RPS); <=0: без лимита.
	RPS    int
	Logger *zap.Logger
}

// device: мини-приложение открывается с платформой "android", паспорт ему соответствует.
var device = telegram.DeviceConfig{
	DeviceModel:    "Samsung SM-S911B",
	SystemVersion:  "Android 13 (33)",
	AppVersion:     "11.2.3 (5335)",
	SystemLangCode: "en-US",
	LangCode:       "en",
}

// Factory создаёт новый gotd-клиент при каждом вызове. Клиент gotd одноразовый:
// после возврата из Run повторно запустить его нельзя.
type Factory func() (*telegram.Client, error)

// NewFactory проверяет параметры и один раз собирает общие для всех клиентов
// опции: хранилище сессии, резолвер прокси и ограничитель RPC.
func NewFactory(opts Options) (Factory, error) {
	if opts.SessionPath == "" {
		return nil, errors.New("session path is empty")
	}

	options := telegram.Options{
		SessionStorage: &session.FileStorage{Path: opts.SessionPath},
		Device:         device,
		NoUpdates:      true,
		Logger:         opts.Logger,
	}
	if opts.RPS > 0 {
		options.Middlewares = append(options.Middlewares,
			ratelimit.New(rate.Limit(opts.RPS), opts.RPS*2), //nolint:mnd // burst = 2*rate
		)
	}
	if opts.Proxy != nil {
		resolver, err := opts.Proxy.Resolver()
		if err != nil {
			return nil, errors.Wrapf(err, "mtproto proxy %s", opts.Proxy)
		}
		options.Resolver = resolver
	}

	return func() (*telegram.Client, error) {
		return telegram.NewClient(opts.AppID, opts.AppHash, options), nil
	}, nil
}

// New создаёт один gotd-клиент. Подключения не выполняет.
func New(opts Options) (*telegram.Client, error) {
	factory, err := NewFactory(opts)
	if err != nil {
		return nil, err
	}
	return factory()
}
