// Package app описывает верхний уровень: находит сессии в SESSIONS_DIR, раздаёт им прокси
// из файла по кругу и запускает по одному игровому циклу на аккаунт. Циклы независимы:
// падение или недействительная сессия одного аккаунта не останавливает остальные.
// Также здесь живёт интерактивная регистрация новой сессии (-action add).
package app

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"horizon-tapper/internal/adapters/telegram/core"
	"horizon-tapper/internal/infra/config"
	"horizon-tapper/internal/infra/logger"
	"horizon-tapper/internal/infra/pr"
	"horizon-tapper/internal/infra/proxy"
	"horizon-tapper/internal/infra/storage"
	"horizon-tapper/internal/infra/telegram/session"
	"horizon-tapper/internal/shared"
)

// ErrNoSessions: в каталоге сессий нет ни одного файла *.session.
var ErrNoSessions = errors.New("no sessions found, register one with -action add")

// App хранит снимок конфигурации и собирает раннеры аккаунтов.
type App struct {
	cfg config.EnvConfig
}

// NewApp создаёт App поверх снимка конфигурации.
func NewApp(cfg config.EnvConfig) *App {
	return &App{cfg: cfg}
}

// Run запускает циклы всех аккаунтов и блокируется до их завершения (обычно: до отмены ctx).
func (a *App) Run(ctx context.Context) error {
	names, err := session.List(a.cfg.SessionsDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return ErrNoSessions
	}

	proxies, err := a.loadProxies()
	if err != nil {
		return err
	}
	logger.Info("Starting accounts",
		zap.Int("sessions", len(names)),
		zap.Int("proxies", len(proxies)),
	)

	var g errgroup.Group
	for i, name := range names {
		var p *proxy.Proxy
		if len(proxies) > 0 {
			p, _ = shared.GetAt(proxies, i%len(proxies))
		}
		r := NewRunner(name, a.cfg, p)
		g.Go(func() error {
			return r.Run(ctx)
		})
	}
	return g.Wait()
}

// loadProxies читает PROXIES_FILE (если USE_PROXY_FROM_FILE), убирает дубликаты
// и пропускает строки, которые не удалось разобрать.
func (a *App) loadProxies() ([]*proxy.Proxy, error) {
	if !a.cfg.UseProxyFromFile {
		return nil, nil
	}
	lines, err := storage.ReadLines(a.cfg.ProxiesFile)
	if err != nil {
		return nil, errors.Wrap(err, "read proxies")
	}

	var out []*proxy.Proxy
	for _, line := range shared.Unique(lines) {
		p, parseErr := proxy.Parse(line)
		if parseErr != nil {
			logger.Warn("Skip proxy", zap.String("line", line), zap.Error(parseErr))
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		logger.Warn("Proxy file has no usable proxies, running without proxy", zap.String("file", a.cfg.ProxiesFile))
	}
	return out, nil
}

// Register интерактивно создаёт новую сессию: имя файла, телефон, код и 2FA.
func (a *App) Register(ctx context.Context) error {
	name, err := pr.ReadLine("Enter session name: ")
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("session name is empty")
	}
	path := session.Path(a.cfg.SessionsDir, name)
	if _, statErr := os.Stat(path); statErr == nil {
		return errors.Errorf("session %q already exists", name)
	}

	phone, err := pr.ReadLine("Enter phone number (E.164): ")
	if err != nil {
		return err
	}

	if err := storage.EnsureDir(path); err != nil {
		return err
	}
	client, err := core.New(core.Options{
		AppID:       a.cfg.APIID,
		AppHash:     a.cfg.APIHash,
		SessionPath: path,
		RPS:         a.cfg.ThrottleRPS,
	})
	if err != nil {
		return err
	}

	user, err := core.Login(ctx, client, phone)
	if err != nil {
		return errors.Wrap(err, "login")
	}
	logger.Info("Session added", zap.String("session", name), zap.String("user", user))
	return nil
}
