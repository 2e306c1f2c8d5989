// Package gameapi реализует HTTP-клиент игрового API HorizonLaunch поверх resty.
// Каждый Client представляет одну «сессию» аккаунта с собственным транспортом и прокси.
// Все игровые вызовы идут POST с телом {"auth": <init data>}, ответ в JSON.
// Ошибки транспорта, не-2xx статусы и нечитаемые тела возвращаются явно,
// а решение о них принимает игровой цикл.
package gameapi

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"time"

	"horizon-tapper/internal/domain/game"
	"horizon-tapper/internal/infra/logger"
	"horizon-tapper/internal/infra/pr"
	"horizon-tapper/internal/infra/useragent"

	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL: хост игрового API.
	DefaultBaseURL = "https://api.eventhorizongame.xyz"
	// ProxyCheckURL: внешний сервис, возвращающий IP клиента.
	ProxyCheckURL = "https://httpbin.org/ip"

	proxyCheckTimeout = 5 * time.Second

	pathLogin = "/auth"
	pathBoost = "/tap"
	pathTaps  = "/taps"
)

// Options: параметры HTTP-сессии.
type Options struct {
	BaseURL string
	// Proxy: URL прокси (http/https/socks5); пусто: прямое соединение.
	Proxy string
	// UserAgent: подменный UA; пусто: DefaultAndroidChrome.
	UserAgent string
	// Timeout: общий таймаут запросов игрового API; 0: без таймаута.
	Timeout time.Duration
	// ProxyCheckURL переопределяет адрес проверки прокси (для тестов).
	ProxyCheckURL string
}

// Client: HTTP-сессия игрового API. Реализует game.API.
type Client struct {
	http          *resty.Client
	proxyCheckURL string
	closed        atomic.Bool
}

var _ game.API = (*Client)(nil)

// headers повторяют WebView Telegram для Android.
var headers = map[string]string{
	"Accept":           "application/json, text/plain, */*",
	"Accept-Language":  "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
	"Content-Type":     "application/json",
	"Origin":           "https://eventhorizongame.xyz",
	"Referer":          "https://eventhorizongame.xyz/",
	"Sec-Fetch-Dest":   "empty",
	"Sec-Fetch-Mode":   "cors",
	"Sec-Fetch-Site":   "same-site",
	"X-Requested-With": "org.telegram.messenger",
}

// New создаёт HTTP-сессию.
func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ua := opts.UserAgent
	if ua == "" || !useragent.LooksMobile(ua) {
		ua = useragent.DefaultAndroidChrome
	}
	checkURL := opts.ProxyCheckURL
	if checkURL == "" {
		checkURL = ProxyCheckURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeaders(headers).
		SetHeader("User-Agent", ua)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("http request", zap.String("method", req.Method), zap.String("url", req.URL))
		return nil
	})

	return &Client{http: client, proxyCheckURL: checkURL}
}

type authBody struct {
	Auth string `json:"auth"`
}

// Login: POST /auth.
func (c *Client) Login(ctx context.Context, auth string) (*game.LoginResult, error) {
	var resp loginResponse
	if err := c.post(ctx, pathLogin, nil, auth, &resp); err != nil {
		return nil, errors.Wrap(err, "login")
	}
	return resp.toDomain(), nil
}

// Boost: POST /tap?boost=true. Ответ без ракеты даёт (nil, nil).
func (c *Client) Boost(ctx context.Context, auth string) (*game.RocketResult, error) {
	var resp rocketResponse
	if err := c.post(ctx, pathBoost, map[string]string{"boost": "true"}, auth, &resp); err != nil {
		return nil, errors.Wrap(err, "boost")
	}
	return resp.toDomain(), nil
}

// Tap: POST /taps?count=N.
func (c *Client) Tap(ctx context.Context, auth string, count int) (*game.RocketResult, error) {
	var resp rocketResponse
	query := map[string]string{"count": strconv.Itoa(count)}
	if err := c.post(ctx, pathTaps, query, auth, &resp); err != nil {
		return nil, errors.Wrapf(err, "taps count=%d", count)
	}
	return resp.toDomain(), nil
}

// CheckProxy: GET httpbin.org/ip с таймаутом 5с; возвращает origin.
func (c *Client) CheckProxy(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, proxyCheckTimeout)
	defer cancel()

	r, err := c.http.R().SetContext(ctx).Get(c.proxyCheckURL)
	if err != nil {
		return "", errors.Wrap(err, "proxy check")
	}
	var body struct {
		Origin string `json:"origin"`
	}
	if err := decode(r, &body); err != nil {
		return "", errors.Wrap(err, "proxy check")
	}
	return body.Origin, nil
}

// Close закрывает простаивающие соединения транспорта. Идемпотентен.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.http.GetClient().CloseIdleConnections()
	return nil
}

// Closed сообщает, была ли сессия закрыта.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

func (c *Client) post(ctx context.Context, path string, query map[string]string, auth string, out any) error {
	if c.Closed() {
		return errors.New("http session is closed")
	}
	req := c.http.R().
		SetContext(ctx).
		SetBody(authBody{Auth: auth})
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	r, err := req.Post(path)
	if err != nil {
		return err
	}
	return decode(r, out)
}

// decode проверяет статус (аналог raise_for_status) и разбирает JSON-тело.
func decode(r *resty.Response, out any) error {
	if r.IsError() {
		return errors.Errorf("unexpected status %d: %s", r.StatusCode(), truncate(r.String(), 200))
	}
	if err := json.Unmarshal(r.Body(), out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	if logger.IsDebugEnabled() {
		logger.Debug("http response", zap.String("url", r.Request.URL), zap.String("body", pr.Pf(out)))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// NewFactory возвращает game.SessionFactory. При fakeUA каждая новая сессия получает
// свежий синтетический UA мобильного Chrome.
func NewFactory(base Options, fakeUA bool) game.SessionFactory {
	return func() (game.API, error) {
		opts := base
		if fakeUA {
			opts.UserAgent = useragent.AndroidChrome(nil)
		}
		return New(opts), nil
	}
}
