package webapp

import (
	"net/url"
	"strings"

	"github.com/go-faster/errors"
)

const (
	dataPrefix = "tgWebAppData="
	dataSuffix = "&tgWebAppVersion"
)

// payloadKeys: поля init data в том порядке, в котором их ждёт игровой API.
var payloadKeys = []string{"user", "chat_instance", "chat_type", "start_param", "auth_date", "hash"}

// ErrMalformedURL: в URL веб-приложения нет ожидаемого блока tgWebAppData.
var ErrMalformedURL = errors.New("malformed web app url")

// ParseWebAppURL извлекает init data из URL, выданного requestAppWebView, и собирает
// строку авторизации: user (заново percent-кодированный), chat_instance, chat_type,
// start_param, auth_date, hash через '&'.
func ParseWebAppURL(raw string) (string, error) {
	_, tail, ok := strings.Cut(raw, dataPrefix)
	if !ok {
		return "", errors.Wrap(ErrMalformedURL, "no tgWebAppData")
	}
	encoded, _, ok := strings.Cut(tail, dataSuffix)
	if !ok {
		return "", errors.Wrap(ErrMalformedURL, "no tgWebAppVersion")
	}

	// Данные закодированы дважды: один раз как значение фрагмента, второй: внутри init data.
	data := encoded
	for range 2 {
		decoded, err := url.PathUnescape(data)
		if err != nil {
			return "", errors.Wrap(err, "unescape tgWebAppData")
		}
		data = decoded
	}

	fields := make(map[string]string, len(payloadKeys))
	for _, part := range strings.Split(data, "&") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			return "", errors.Wrapf(ErrMalformedURL, "field %q without value", part)
		}
		fields[key] = value
	}

	parts := make([]string, 0, len(payloadKeys))
	for _, key := range payloadKeys {
		value, found := fields[key]
		if !found {
			return "", errors.Wrapf(ErrMalformedURL, "missing %q", key)
		}
		if key == "user" {
			value = quote(value)
		}
		parts = append(parts, key+"="+value)
	}
	return strings.Join(parts, "&"), nil
}

const upperhex = "0123456789ABCDEF"

// quote кодирует всё, кроме A-Z a-z 0-9 и "_.-~/", в %XX (верхний регистр).
// url.QueryEscape не подходит: он превращает пробел в '+' и кодирует '/'.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldKeep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '.', '-', '~', '/':
		return true
	}
	return false
}
