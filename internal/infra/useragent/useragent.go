// Package useragent генерирует правдоподобные User-Agent мобильного Chrome на Android.
// Мини-приложение открывается во встроенном WebView Telegram для Android, поэтому
// подменный UA должен выглядеть как мобильный браузер, иначе API может отвергнуть запросы.
package useragent

import (
	"fmt"
	"strings"

	"horizon-tapper/internal/shared"
)

// DefaultAndroidChrome используется, когда подмена UA выключена.
const DefaultAndroidChrome = "Mozilla/5.0 (Linux; Android 13; SM-S911B Build/TP1A.220624.014; wv) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/128.0.6613.127 Mobile Safari/537.36"

var androidDevices = []string{
	"SM-S918B", "SM-S911B", "SM-A546B", "SM-A346B", "SM-G991B",
	"Pixel 7", "Pixel 7 Pro", "Pixel 8", "Pixel 6a",
	"2201116SG", "23049PCD8G", "CPH2449", "RMX3741", "M2101K6G",
}

var androidVersions = []int{11, 12, 13, 14}

// chromeMajors: диапазон актуальных мажорных версий Chrome.
var chromeMajors = [2]int{118, 130}

// AndroidChrome собирает UA вида
// "Mozilla/5.0 (Linux; Android N; DEVICE) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/X.0.B.P Mobile Safari/537.36".
// r == nil: используется глобальный генератор.
func AndroidChrome(r shared.IntN) string {
	if r == nil {
		r = shared.DefaultRand
	}
	device := androidDevices[r.IntN(len(androidDevices))]
	android := androidVersions[r.IntN(len(androidVersions))]
	major := shared.RandomFrom(r, chromeMajors[0], chromeMajors[1])
	build := shared.RandomFrom(r, 5000, 6999)
	patch := shared.RandomFrom(r, 50, 250)

	return fmt.Sprintf(
		"Mozilla/5.0 (Linux; Android %d; %s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.%d.%d Mobile Safari/537.36",
		android, device, major, build, patch,
	)
}

// LooksMobile: грубая проверка, что строка похожа на мобильный UA.
func LooksMobile(ua string) bool {
	s := strings.ToLower(ua)
	return strings.Contains(s, "mobile") || strings.Contains(s, "android") || strings.Contains(s, "iphone")
}
