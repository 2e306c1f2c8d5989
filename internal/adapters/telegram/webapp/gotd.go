package webapp

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/tg"
)

// platform: платформа, от имени которой открывается мини-приложение.
const platform = "android"

// ClientConnector реализует Connector поверх gotd. Клиент gotd нельзя запустить
// повторно после выхода из Run, поэтому на каждое подключение New создаёт новый.
type ClientConnector struct {
	New func() (*telegram.Client, error)
}

// Run создаёт клиент, подключается, выполняет f и отключается.
func (c ClientConnector) Run(ctx context.Context, f func(ctx context.Context, tgc Telegram) error) error {
	if c.New == nil {
		return errors.New("telegram client factory is nil")
	}
	client, err := c.New()
	if err != nil {
		return errors.Wrap(err, "create telegram client")
	}
	return client.Run(ctx, func(ctx context.Context) error {
		api := client.API()
		return f(ctx, &clientTelegram{
			client: client,
			api:    api,
			peers:  peers.Options{}.Build(api),
		})
	})
}

type clientTelegram struct {
	client *telegram.Client
	api    *tg.Client
	peers  *peers.Manager
}

func (t *clientTelegram) Authorized(ctx context.Context) (bool, error) {
	status, err := t.client.Auth().Status(ctx)
	if err != nil {
		return false, errors.Wrap(err, "auth status")
	}
	return status.Authorized, nil
}

func (t *clientTelegram) ResolveBot(ctx context.Context, username string) (BotPeer, error) {
	p, err := t.peers.ResolveDomain(ctx, username)
	if err != nil {
		return BotPeer{}, err
	}
	user, ok := p.(peers.User)
	if !ok {
		return BotPeer{}, errors.Errorf("@%s is not a user", username)
	}
	return BotPeer{Peer: user.InputPeer(), User: user.InputUser()}, nil
}

func (t *clientTelegram) RequestAppWebView(ctx context.Context, bot BotPeer, shortName, startParam string) (string, error) {
	res, err := t.api.MessagesRequestAppWebView(ctx, &tg.MessagesRequestAppWebViewRequest{
		WriteAllowed: true,
		Peer:         bot.Peer,
		App: &tg.InputBotAppShortName{
			BotID:     bot.User,
			ShortName: shortName,
		},
		StartParam: startParam,
		Platform:   platform,
	})
	if err != nil {
		return "", err
	}
	return res.URL, nil
}
