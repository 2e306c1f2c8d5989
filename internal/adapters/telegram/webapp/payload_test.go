package webapp_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/go-faster/errors"

	"horizon-tapper/internal/adapters/telegram/webapp"
)

const (
	userJSON = `{"id":1,"first_name":"Ann Lee","photo_url":"https://t.me/a.jpg"}`
	// userQuoted: userJSON после percent-кодирования: '/' и '.' остаются как есть, пробел: %20.
	userQuoted = `%7B%22id%22%3A1%2C%22first_name%22%3A%22Ann%20Lee%22%2C%22photo_url%22%3A%22https%3A//t.me/a.jpg%22%7D`
)

// webAppURL упаковывает init data так же, как Telegram: значение фрагмента ещё раз URL-кодировано.
func webAppURL(initData string) string {
	return "https://eventhorizongame.xyz/#tgWebAppData=" + url.QueryEscape(initData) +
		"&tgWebAppVersion=7.10&tgWebAppPlatform=android"
}

func TestParseWebAppURL(t *testing.T) {
	t.Parallel()

	want := "user=" + userQuoted + "&chat_instance=-42&chat_type=sender&start_param=339631649&auth_date=1700000000&hash=abc123"

	cases := []struct {
		name     string
		initData string
	}{
		{
			name:     "canonicalOrder",
			initData: want,
		},
		{
			name:     "shuffledWithExtraField",
			initData: "auth_date=1700000000&signature=zzz&user=" + userQuoted + "&hash=abc123&chat_type=sender&start_param=339631649&chat_instance=-42",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := webapp.ParseWebAppURL(webAppURL(tc.initData))
			if err != nil {
				t.Fatalf("ParseWebAppURL() error = %v", err)
			}
			if got != want {
				t.Fatalf("ParseWebAppURL() = %q, want %q", got, want)
			}
		})
	}
}

func TestParseWebAppURLRoundTrip(t *testing.T) {
	t.Parallel()

	fields := [][2]string{
		{"user", userQuoted},
		{"chat_instance", "8147"},
		{"chat_type", "private"},
		{"start_param", "12345"},
		{"auth_date", "1724760000"},
		{"hash", "f00d"},
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f[0]+"="+f[1])
	}

	got, err := webapp.ParseWebAppURL(webAppURL(strings.Join(parts, "&")))
	if err != nil {
		t.Fatalf("ParseWebAppURL() error = %v", err)
	}

	split := strings.Split(got, "&")
	if len(split) != len(fields) {
		t.Fatalf("got %d fields, want %d: %q", len(split), len(fields), got)
	}
	for i, part := range split {
		key, value, _ := strings.Cut(part, "=")
		if key != fields[i][0] || value != fields[i][1] {
			t.Fatalf("field %d = %s=%s, want %s=%s", i, key, value, fields[i][0], fields[i][1])
		}
	}

	user, err := url.PathUnescape(strings.TrimPrefix(split[0], "user="))
	if err != nil || user != userJSON {
		t.Fatalf("decoded user = %q (%v), want %q", user, err, userJSON)
	}
}

func TestParseWebAppURLMalformed(t *testing.T) {
	t.Parallel()

	full := "user=" + userQuoted + "&chat_instance=1&chat_type=sender&start_param=1&auth_date=1&hash=h"

	cases := []struct {
		name      string
		raw       string
		malformed bool
	}{
		{name: "noData", raw: "https://eventhorizongame.xyz/#tgWebAppVersion=7.10", malformed: true},
		{name: "noVersion", raw: "https://eventhorizongame.xyz/#tgWebAppData=" + url.QueryEscape(full), malformed: true},
		{name: "missingHash", raw: webAppURL(strings.TrimSuffix(full, "&hash=h")), malformed: true},
		{name: "fieldWithoutValue", raw: webAppURL(full + "&broken"), malformed: true},
		{name: "badEscape", raw: "https://x/#tgWebAppData=%zz&tgWebAppVersion=7.10"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := webapp.ParseWebAppURL(tc.raw)
			if err == nil {
				t.Fatalf("ParseWebAppURL() = %q, want error", got)
			}
			if tc.malformed && !errors.Is(err, webapp.ErrMalformedURL) {
				t.Fatalf("ParseWebAppURL() error = %v, want ErrMalformedURL", err)
			}
		})
	}
}
