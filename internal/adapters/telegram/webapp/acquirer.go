// Package webapp получает строку авторизации мини-приложения HorizonLaunch через
// пользовательскую MTProto-сессию: подключение, проверка авторизации, резолв бота
// (с ожиданием FLOOD_WAIT), requestAppWebView с реферальным start_param и разбор URL.
//
// Ошибки делятся на два класса:
//   - фатальные (сессия недействительна): game.ErrInvalidSession, аккаунт останавливается;
//   - все прочие дают мягкий сбой: лог, пауза 3с и пустая строка без ошибки.
package webapp

import (
	"context"
	"time"

	"horizon-tapper/internal/domain/game"
	"horizon-tapper/internal/infra/clock"
	"horizon-tapper/internal/shared"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

const (
	// BotUsername: username игрового бота.
	BotUsername = "HorizonLaunch_bot"
	// AppShortName: короткое имя мини-приложения бота.
	AppShortName = "HorizonLaunch"

	// refChancePercent: вероятность выбрать настроенный REF_ID вместо резервного.
	refChancePercent = 75

	floodWaitExtra = 3 * time.Second
	softFailDelay  = 3 * time.Second
)

// BotPeer: разрешённый бот: InputPeer для запроса и InputUser для InputBotAppShortName.
type BotPeer struct {
	Peer tg.InputPeerClass
	User tg.InputUserClass
}

// Telegram: минимальный набор MTProto-операций, нужный для получения init data.
type Telegram interface {
	Authorized(ctx context.Context) (bool, error)
	ResolveBot(ctx context.Context, username string) (BotPeer, error)
	RequestAppWebView(ctx context.Context, bot BotPeer, shortName, startParam string) (string, error)
}

// Connector открывает подключение на время f и закрывает его по возврату.
type Connector interface {
	Run(ctx context.Context, f func(ctx context.Context, tgc Telegram) error) error
}

// Acquirer реализует game.Acquirer поверх Connector.
type Acquirer struct {
	Name          string
	Connector     Connector
	RefID         string
	FallbackRefID string
	// MaxFloodRetries ограничивает число ожиданий FLOOD_WAIT подряд; 0: без ограничения.
	MaxFloodRetries int

	Clock  clock.Clock
	Rand   shared.IntN
	Logger *zap.Logger
}

var _ game.Acquirer = (*Acquirer)(nil)

// errUnauthorized: сессия подключилась, но не авторизована.
var errUnauthorized = errors.New("session is not authorized")

// Acquire возвращает строку авторизации. Пустая строка без ошибки означает мягкий сбой.
func (a *Acquirer) Acquire(ctx context.Context) (string, error) {
	log := a.logger()

	var initData string
	err := a.Connector.Run(ctx, func(ctx context.Context, tgc Telegram) error {
		ok, err := tgc.Authorized(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errUnauthorized
		}

		bot, err := a.resolveBot(ctx, tgc)
		if err != nil {
			return err
		}

		ref := ChooseRefID(a.rand(), a.RefID, a.FallbackRefID)
		rawURL, err := tgc.RequestAppWebView(ctx, bot, AppShortName, ref)
		if err != nil {
			return errors.Wrap(err, "request app web view")
		}

		initData, err = ParseWebAppURL(rawURL)
		return err
	})

	switch {
	case err == nil:
		return initData, nil
	case IsInvalidSession(err):
		return "", errors.Wrapf(game.ErrInvalidSession, "session %q: %v", a.Name, err)
	case ctx.Err() != nil:
		return "", ctx.Err()
	}

	log.Error("Unknown error", zap.String("op", "get_tg_web_data"), zap.Error(err))
	if sleepErr := a.clock().Sleep(ctx, softFailDelay); sleepErr != nil {
		return "", sleepErr
	}
	return "", nil
}

// resolveBot резолвит бота, пережидая FLOOD_WAIT (d + 3с).
func (a *Acquirer) resolveBot(ctx context.Context, tgc Telegram) (BotPeer, error) {
	log := a.logger()
	for attempt := 0; ; attempt++ {
		bot, err := tgc.ResolveBot(ctx, BotUsername)
		if err == nil {
			return bot, nil
		}
		d, ok := tgerr.AsFloodWait(err)
		if !ok {
			return BotPeer{}, errors.Wrap(err, "resolve bot")
		}
		if a.MaxFloodRetries > 0 && attempt >= a.MaxFloodRetries {
			return BotPeer{}, errors.Wrapf(err, "flood wait retries exhausted (%d)", a.MaxFloodRetries)
		}

		log.Warn("FloodWait", zap.Duration("wait", d))
		log.Info("Sleep", zap.Duration("duration", d+floodWaitExtra))
		if sleepErr := a.clock().Sleep(ctx, d+floodWaitExtra); sleepErr != nil {
			return BotPeer{}, sleepErr
		}
	}
}

// ChooseRefID выбирает start_param: настроенный id с вероятностью 75%, иначе резервный.
func ChooseRefID(r shared.IntN, configured, fallback string) string {
	if r == nil {
		r = shared.DefaultRand
	}
	if configured == "" {
		return fallback
	}
	if r.IntN(100) < refChancePercent {
		return configured
	}
	return fallback
}

// IsInvalidSession сообщает, что сессия не может быть использована без повторного входа.
func IsInvalidSession(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errUnauthorized) || errors.Is(err, game.ErrInvalidSession) {
		return true
	}
	if tgerr.Is(err,
		"AUTH_KEY_UNREGISTERED",
		"AUTH_KEY_INVALID",
		"USER_DEACTIVATED",
		"USER_DEACTIVATED_BAN",
		"SESSION_REVOKED",
		"SESSION_EXPIRED",
	) {
		return true
	}
	return tgerr.IsCode(err, 401)
}

func (a *Acquirer) logger() *zap.Logger {
	l := a.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return l.With(zap.String("session", a.Name))
}

func (a *Acquirer) clock() clock.Clock {
	if a.Clock == nil {
		return clock.Real{}
	}
	return a.Clock
}

func (a *Acquirer) rand() shared.IntN {
	if a.Rand == nil {
		return shared.DefaultRand
	}
	return a.Rand
}
