// Интерактивная регистрация новой сессии (-action add): имя сессии, телефон,
// код из Telegram и пароль 2FA читаются из терминала, gotd сам сохраняет
// ключ авторизации в файл сессии.

package core

import (
	"context"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"

	"horizon-tapper/internal/infra/pr"
)

// TerminalAuthenticator реализует auth.UserAuthenticator и собирает ввод из терминала.
type TerminalAuthenticator struct {
	// PhoneNumber: телефон в формате E.164; формат не проверяется.
	PhoneNumber string
}

var _ auth.UserAuthenticator = TerminalAuthenticator{}

func (t TerminalAuthenticator) Phone(_ context.Context) (string, error) {
	return t.PhoneNumber, nil
}

func (t TerminalAuthenticator) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return pr.ReadLine("Enter the code from Telegram: ")
}

// Password читает пароль 2FA без эха.
func (t TerminalAuthenticator) Password(_ context.Context) (string, error) {
	pr.Print("Enter 2FA password: ")
	passwordBytes, err := term.ReadPassword(syscall.Stdin)
	pr.Println()
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}

// AcceptTermsOfService принимает только "y"/"Y".
func (t TerminalAuthenticator) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	pr.Printf("Telegram Terms of Service: %s\n", tos.Text)
	resp, err := pr.ReadLine("Do you accept? (y/n): ")
	if err != nil {
		return err
	}
	if resp != "y" && resp != "Y" {
		return errors.New("user did not accept terms of service")
	}
	return nil
}

// SignUp нужен для незарегистрированного номера. Фамилия опциональна.
func (t TerminalAuthenticator) SignUp(_ context.Context) (auth.UserInfo, error) {
	firstName, err := pr.ReadLine("Enter your first name: ")
	if err != nil {
		return auth.UserInfo{}, err
	}
	lastName, _ := pr.ReadLine("Enter your last name (optional): ")
	return auth.UserInfo{
		FirstName: firstName,
		LastName:  lastName,
	}, nil
}

// Login подключает клиент и, если сессия ещё не авторизована, проходит интерактивный вход.
// Возвращает имя пользователя, под которым авторизована сессия.
func Login(ctx context.Context, client *telegram.Client, phone string) (string, error) {
	var username string
	err := client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(TerminalAuthenticator{PhoneNumber: phone}, auth.SendCodeOptions{})
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return errors.Wrap(err, "auth flow")
		}
		self, err := client.Self(ctx)
		if err != nil {
			return errors.Wrap(err, "get self")
		}
		username = self.FirstName
		if self.Username != "" {
			username = "@" + self.Username
		}
		return nil
	})
	return username, err
}
