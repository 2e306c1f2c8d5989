package game

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"horizon-tapper/internal/infra/clock"
	"horizon-tapper/internal/shared"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

const (
	// LoginFailedPenalty: пауза после неуспешного логина (без эскалации).
	LoginFailedPenalty = 1800 * time.Second
	// ErrorSettleDelay и ErrorPenalty: пауза после необработанной ошибки цикла (3с + 600с).
	ErrorSettleDelay = 3 * time.Second
	ErrorPenalty     = 600 * time.Second

	loginSettleDelay = 2 * time.Second
	boostSettleDelay = 3 * time.Second
	apiErrorDelay    = 1 * time.Second
	tapPauseMinSec   = 1
	tapPauseMaxSec   = 3
)

// State: фаза игрового цикла аккаунта.
type State int32

const (
	StateStarting State = iota
	StateLoggingIn
	StateLoggedIn
	StateBoosting
	StateTapping
	StateSleeping
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateLoggingIn:
		return "logging_in"
	case StateLoggedIn:
		return "logged_in_idle"
	case StateBoosting:
		return "boosting"
	case StateTapping:
		return "tapping"
	case StateSleeping:
		return "sleeping"
	case StateFatal:
		return "fatal"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Settings: параметры цикла, приходящие из конфигурации.
type Settings struct {
	// UseRandomDelay включает случайную задержку старта в пределах RandomDelay (секунды).
	UseRandomDelay bool
	RandomDelay    [2]int
	// CheckProxy: проверять внешний IP сессии перед стартом (имеет смысл только с прокси).
	CheckProxy bool
	// FixCycleSleep: спать sleep_time вместо времени с последнего буста в конце цикла.
	FixCycleSleep bool
}

// Options: зависимости Driver.
type Options struct {
	Settings Settings
	Sessions SessionFactory
	Acquirer Acquirer
	Clock    clock.Clock
	Rand     shared.IntN
	Logger   *zap.Logger
}

// CycleResult: итог одного прохода цикла, в основном для логов и тестов.
type CycleResult struct {
	LoggedIn bool
	Boosted  bool
	// Taps: сколько тапов запрошено в серии после буста.
	Taps int
	// SleepTime: расчётная пауза до следующего буста (логируется).
	SleepTime time.Duration
	// Pause: фактическая пауза в конце цикла.
	Pause time.Duration
}

// Driver владеет бесконечным циклом одного аккаунта: логин, расчёт скорости,
// условный буст, серия тапов в пределах квоты и сон. Все операции строго
// последовательны; HTTP-сессия и строка авторизации принадлежат только ему.
type Driver struct {
	settings Settings
	sessions SessionFactory
	acquirer Acquirer
	clock    clock.Clock
	rnd      shared.IntN
	log      *zap.Logger

	session API
	auth    string
	state   atomic.Int32
}

// NewDriver собирает Driver. Clock, Rand и Logger имеют разумные значения по умолчанию.
func NewDriver(opts Options) (*Driver, error) {
	if opts.Sessions == nil {
		return nil, errors.New("game: session factory is nil")
	}
	if opts.Acquirer == nil {
		return nil, errors.New("game: acquirer is nil")
	}
	d := &Driver{
		settings: opts.Settings,
		sessions: opts.Sessions,
		acquirer: opts.Acquirer,
		clock:    opts.Clock,
		rnd:      opts.Rand,
		log:      opts.Logger,
	}
	if d.clock == nil {
		d.clock = clock.Real{}
	}
	if d.rnd == nil {
		d.rnd = shared.DefaultRand
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	return d, nil
}

// State возвращает текущую фазу цикла.
func (d *Driver) State() State { return State(d.state.Load()) }

func (d *Driver) setState(s State) { d.state.Store(int32(s)) }

// Run выполняет стартовую подготовку и крутит Cycle до отмены ctx или фатальной ошибки сессии.
// Любая другая ошибка цикла логируется и гасится паузой 3с+600с.
func (d *Driver) Run(ctx context.Context) error {
	d.setState(StateStarting)
	defer d.closeSession()

	if d.settings.UseRandomDelay {
		delay := time.Duration(shared.RandomFrom(d.rnd, d.settings.RandomDelay[0], d.settings.RandomDelay[1])) * time.Second
		d.log.Info("Bot will start in", zap.Duration("delay", delay))
		if err := d.clock.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	if err := d.ensureSession(); err != nil {
		return errors.Wrap(err, "create http session")
	}
	if d.settings.CheckProxy {
		if ip, err := d.session.CheckProxy(ctx); err != nil {
			d.apiError(ctx, "check_proxy", err)
		} else {
			d.log.Info("Proxy IP", zap.String("ip", ip))
		}
	}

	if err := d.acquire(ctx); err != nil {
		if errors.Is(err, ErrInvalidSession) {
			d.setState(StateFatal)
			return err
		}
		d.log.Error("Unknown error", zap.Error(err))
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := d.Cycle(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrInvalidSession) {
			d.setState(StateFatal)
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		d.log.Error("Unknown error", zap.Error(err))
		if sleepErr := d.clock.Sleep(ctx, ErrorSettleDelay); sleepErr != nil {
			return sleepErr
		}
		d.log.Info("Sleep", zap.Duration("duration", ErrorPenalty))
		if sleepErr := d.clock.Sleep(ctx, ErrorPenalty); sleepErr != nil {
			return sleepErr
		}
	}
}

// Cycle: один проход: логин, буст по условиям, серия тапов и пауза.
// Возвращает ошибку только при отмене ctx, сбое создания сессии или фатальной сессии Telegram.
func (d *Driver) Cycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult

	if err := d.ensureSession(); err != nil {
		return res, errors.Wrap(err, "create http session")
	}
	if d.auth == "" {
		if err := d.acquire(ctx); err != nil {
			return res, err
		}
	}

	d.setState(StateLoggingIn)
	info, err := d.session.Login(ctx, d.auth)
	if err != nil {
		d.apiError(ctx, "login", err)
	}
	if err != nil || info == nil || !info.OK {
		d.log.Info("Login failed")
		res.Pause = LoginFailedPenalty
		d.setState(StateSleeping)
		return res, d.clock.Sleep(ctx, LoginFailedPenalty)
	}
	res.LoggedIn = true
	d.setState(StateLoggedIn)
	if err := d.clock.Sleep(ctx, loginSettleDelay); err != nil {
		return res, err
	}

	rocket := info.Rocket
	user := info.User
	d.log.Info("🚀 Logged in successfully")

	now := d.clock.Now()
	sinceBoost := SinceLastBoost(now, rocket.LastBoostTimestamp)
	speed := SpeedCalc(user.ReferralsCount, sinceBoost, now)
	d.log.Info("Account",
		zap.String("name", user.Name),
		zap.Int64("points", int64(rocket.Distance)),
		zap.Int("speed", speed),
	)

	sleepTime := BoostCooldown
	if user.ReferralsCount >= 1 {
		d.log.Info("Boosts",
			zap.Int("left", MaxBoostAttempts-rocket.BoostAttempts),
			zap.String("next_in_min", nextBoostMinutes(sinceBoost)),
		)

		if CanBoost(sinceBoost, rocket.BoostAttempts) {
			d.setState(StateBoosting)
			boost, boostErr := d.session.Boost(ctx, d.auth)
			if boostErr != nil {
				d.apiError(ctx, "boost", boostErr)
			}
			if boostErr == nil && boost != nil {
				rocket = boost.Rocket
				sinceBoost = 0
				res.Boosted = true
				d.log.Info("Boosted successfully")
				if err := d.clock.Sleep(ctx, boostSettleDelay); err != nil {
					return res, err
				}

				d.setState(StateTapping)
				taps, tapErr := d.tapBurst(ctx, rocket.BoostTaps)
				res.Taps = taps
				if tapErr != nil {
					return res, tapErr
				}
				sleepTime = BoostCooldown - sinceBoost
			}
		}
	}

	d.log.Info("Sleep", zap.Duration("duration", sleepTime))
	d.closeSession()

	// Пауза: время с последнего буста (0 сразу после успешного буста), а не sleepTime.
	pause := sinceBoost
	if d.settings.FixCycleSleep {
		pause = sleepTime
	}
	res.SleepTime = sleepTime
	res.Pause = pause
	d.setState(StateSleeping)
	return res, d.clock.Sleep(ctx, pause)
}

// tapBurst отправляет тапы по плану PlanBurst, начиная с уже набранных start.
// Неудачный запрос не повторяется: его тапы считаются потраченными, серия идёт дальше.
func (d *Driver) tapBurst(ctx context.Context, start int) (int, error) {
	done := max(start, 0)
	sent := 0
	for _, count := range PlanBurst(d.rnd, start) {
		done += count
		sent += count

		taps, err := d.session.Tap(ctx, d.auth, count)
		if err != nil {
			d.apiError(ctx, "tap", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sent, ctxErr
		}
		if err != nil || taps == nil {
			continue
		}

		d.log.Info("Tapped",
			zap.String("progress", fmt.Sprintf("%d / %d", done, BoostTapQuota)),
			zap.Int64("distance", int64(taps.Rocket.Distance)),
		)
		pause := time.Duration(shared.RandomFrom(d.rnd, tapPauseMinSec, tapPauseMaxSec)) * time.Second
		if err := d.clock.Sleep(ctx, pause); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// acquire запрашивает строку авторизации. Пустой результат без ошибки означает мягкий сбой:
// следующий цикл попробует снова.
func (d *Driver) acquire(ctx context.Context) error {
	auth, err := d.acquirer.Acquire(ctx)
	if err != nil {
		return err
	}
	d.auth = auth
	return nil
}

// ensureSession пересоздаёт HTTP-сессию, если её нет или она закрыта.
func (d *Driver) ensureSession() error {
	if d.session != nil && !d.session.Closed() {
		return nil
	}
	d.closeSession()

	s, err := d.sessions()
	if err != nil {
		return err
	}
	d.session = s
	return nil
}

// closeSession закрывает текущую HTTP-сессию; проверяет состояние перед закрытием.
func (d *Driver) closeSession() {
	if d.session == nil || d.session.Closed() {
		return
	}
	if err := d.session.Close(); err != nil {
		d.log.Debug("close http session", zap.Error(err))
	}
}

// apiError логирует мягкую ошибку вызова API и выдерживает короткую паузу.
func (d *Driver) apiError(ctx context.Context, op string, err error) {
	d.log.Error(op+" error", zap.Error(err))
	_ = d.clock.Sleep(ctx, apiErrorDelay)
}

// nextBoostMinutes форматирует минуты до следующего буста (2 знака) или "~", если уже можно.
func nextBoostMinutes(sinceBoost time.Duration) string {
	minutes := math.Round((BoostCooldown-sinceBoost).Minutes()*100) / 100
	if minutes <= 0 {
		return "~"
	}
	return fmt.Sprintf("%.2f", minutes)
}
