package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"horizon-tapper/internal/adapters/gameapi"
	"horizon-tapper/internal/adapters/telegram/core"
	"horizon-tapper/internal/adapters/telegram/webapp"
	"horizon-tapper/internal/domain/game"
	"horizon-tapper/internal/infra/config"
	"horizon-tapper/internal/infra/logger"
	"horizon-tapper/internal/infra/proxy"
	"horizon-tapper/internal/infra/telegram/session"
)

// Runner связывает одну сессию с её зависимостями: фабрика gotd-клиентов (через прокси,
// если он задан), получатель init data, фабрика HTTP-сессий и игровой цикл.
type Runner struct {
	name  string
	cfg   config.EnvConfig
	proxy *proxy.Proxy
	log   *zap.Logger
}

// NewRunner создаёт раннер аккаунта name. p == nil: без прокси.
func NewRunner(name string, cfg config.EnvConfig, p *proxy.Proxy) *Runner {
	return &Runner{
		name:  name,
		cfg:   cfg,
		proxy: p,
		log:   logger.Logger().With(zap.String("session", name)),
	}
}

// Run крутит игровой цикл до отмены ctx. Недействительная сессия логируется и
// завершает только этот аккаунт (nil для errgroup).
func (r *Runner) Run(ctx context.Context) error {
	if r.proxy != nil {
		r.log.Info("Using proxy", zap.Stringer("proxy", r.proxy))
	}

	driver, err := r.buildDriver()
	if err != nil {
		r.log.Error("Account not started", zap.Error(err))
		return nil
	}

	err = driver.Run(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, game.ErrInvalidSession):
		r.log.Error("Invalid session", zap.Error(err))
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), ctx.Err() != nil:
		r.log.Debug("Account stopped")
		return nil
	}
	return errors.Wrapf(err, "account %s", r.name)
}

func (r *Runner) buildDriver() (*game.Driver, error) {
	newClient, err := core.NewFactory(core.Options{
		AppID:       r.cfg.APIID,
		AppHash:     r.cfg.APIHash,
		SessionPath: session.Path(r.cfg.SessionsDir, r.name),
		Proxy:       r.proxy,
		RPS:         r.cfg.ThrottleRPS,
		Logger:      r.log.Named("mtproto").WithOptions(zap.IncreaseLevel(zap.WarnLevel)),
	})
	if err != nil {
		return nil, err
	}

	acquirer := &webapp.Acquirer{
		Name:            r.name,
		Connector:       webapp.ClientConnector{New: newClient},
		RefID:           r.cfg.RefID,
		FallbackRefID:   r.cfg.FallbackRefID,
		MaxFloodRetries: r.cfg.MaxFloodRetries,
		Logger:          r.log,
	}

	httpOpts := gameapi.Options{
		BaseURL: r.cfg.APIBaseURL,
		Timeout: time.Duration(r.cfg.HTTPTimeoutSec) * time.Second,
	}
	if r.proxy != nil {
		httpOpts.Proxy = r.proxy.URL()
	}

	return game.NewDriver(game.Options{
		Settings: game.Settings{
			UseRandomDelay: r.cfg.UseRandomDelayInRun,
			RandomDelay:    r.cfg.RandomDelayInRun,
			CheckProxy:     r.proxy != nil,
			FixCycleSleep:  r.cfg.FixCycleSleep,
		},
		Sessions: gameapi.NewFactory(httpOpts, r.cfg.FakeUserAgent),
		Acquirer: acquirer,
		Logger:   r.log,
	})
}
