package webapp_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram"

	"horizon-tapper/internal/adapters/telegram/core"
	"horizon-tapper/internal/adapters/telegram/webapp"
)

// Каждое подключение получает свой gotd-клиент: закрытый после Run клиент не
// должен мешать следующему получению init data.
func TestClientConnectorNewClientPerRun(t *testing.T) {
	t.Parallel()

	base, err := core.NewFactory(core.Options{
		AppID:       1,
		AppHash:     "hash",
		SessionPath: filepath.Join(t.TempDir(), "acc.session"),
	})
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}

	var clients []*telegram.Client
	conn := webapp.ClientConnector{New: func() (*telegram.Client, error) {
		c, err := base()
		clients = append(clients, c)
		return c, err
	}}

	// Отменённый контекст: клиент стартует и сразу закрывается, не выходя в сеть.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := range 3 {
		called := false
		err := conn.Run(ctx, func(context.Context, webapp.Telegram) error {
			called = true
			return nil
		})
		if err != nil && strings.Contains(err.Error(), "already closed") {
			t.Fatalf("Run #%d reused a closed client: %v", i+1, err)
		}
		if called {
			t.Fatalf("Run #%d called f without a connection", i+1)
		}
	}

	if len(clients) != 3 {
		t.Fatalf("clients created = %d, want 3", len(clients))
	}
	if clients[0] == clients[1] || clients[1] == clients[2] {
		t.Fatal("connector reused a telegram client")
	}
}

func TestClientConnectorFactoryError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	cases := []struct {
		name string
		conn webapp.ClientConnector
		want error
	}{
		{name: "nilFactory", conn: webapp.ClientConnector{}},
		{name: "factoryFails", conn: webapp.ClientConnector{New: func() (*telegram.Client, error) {
			return nil, boom
		}}, want: boom},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.conn.Run(context.Background(), func(context.Context, webapp.Telegram) error {
				t.Fatal("f must not be called")
				return nil
			})
			if err == nil {
				t.Fatal("Run() error = nil, want error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("Run() error = %v, want %v", err, tc.want)
			}
		})
	}
}

// После мягкого сбоя первого получения следующий Acquire снова доходит до f
// через новый клиент, а не упирается в закрытый.
func TestAcquireRetriesWithNewConnection(t *testing.T) {
	t.Parallel()

	tgc := &fakeTelegram{authorized: true, url: webAppURL(validInitData)}
	conn := &flakyConnector{tg: tgc, failures: 1}
	clk := &sleepRecorder{}
	a := newAcquirer(conn, clk)

	first, err := a.Acquire(context.Background())
	if err != nil || first != "" {
		t.Fatalf("first Acquire() = %q, %v; want soft failure", first, err)
	}
	second, err := a.Acquire(context.Background())
	if err != nil || second != validInitData {
		t.Fatalf("second Acquire() = %q, %v", second, err)
	}
	if conn.runs != 2 {
		t.Fatalf("runs = %d, want 2", conn.runs)
	}
}

// flakyConnector падает на первых failures подключениях, как при сетевом сбое.
type flakyConnector struct {
	tg       *fakeTelegram
	failures int
	runs     int
}

func (c *flakyConnector) Run(ctx context.Context, f func(ctx context.Context, tgc webapp.Telegram) error) error {
	c.runs++
	if c.runs <= c.failures {
		return errors.New("dial tcp: connection refused")
	}
	return f(ctx, c.tg)
}
