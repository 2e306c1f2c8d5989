// Пакет config отвечает за сбор и предоставление конфигурации всего приложения
// (фарм мини-игры HorizonLaunch через пользовательские сессии Telegram). Он:
//  1. читает переменные окружения из .env (через godotenv),
//  2. нормализует и валидирует входные значения,
//  3. накапливает предупреждения вместо падения на необязательных параметрах,
//  4. предоставляет потокобезопасный доступ к результату через R/W мьютекс.
//
// Конфиг среды управляет подключением к Telegram API, каталогом сессий, реферальным
// идентификатором, случайной задержкой старта, подменой User-Agent, прокси и логированием.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// EnvConfig описывает параметры, приходящие из окружения (.env). Это «операционные»
// настройки запуска: учётные данные MTProto, каталог сессий, параметры игрового цикла,
// прокси и логирование.
//
// NB: значения уже проходят минимальную валидацию и нормализацию в loadConfig.
type EnvConfig struct {
	APIID       int
	APIHash     string
	SessionsDir string
	LogLevel    string
	ThrottleRPS int
	// Игровой цикл
	RefID               string
	FallbackRefID       string
	UseRandomDelayInRun bool
	RandomDelayInRun    [2]int
	FakeUserAgent       bool
	APIBaseURL          string
	HTTPTimeoutSec      int
	MaxFloodRetries     int
	FixCycleSleep       bool
	// RunTimeoutSec: автоостановка процесса через N секунд; 0: работать до сигнала.
	RunTimeoutSec int
	// Прокси
	UseProxyFromFile bool
	ProxiesFile      string
	// Файловое логирование
	LogFile           string
	LogFileLevel      string
	LogFileMaxSize    int
	LogFileMaxBackups int
	LogFileMaxAge     int
	LogFileCompress   bool
}

// Config хранит конфигурацию среды.
//
// Потокобезопасность: публичные геттеры берут RLock.
type Config struct {
	Env      EnvConfig
	warnings []string     // предупреждения, накопленные при чтении окружения
	mu       sync.RWMutex // защита конкурентного доступа к конфигурации
}

// Значения по умолчанию для параметров окружения и связанных файлов.
const (
	defaultSessionsDir      = "sessions"
	defaultLogLevel         = "info"
	defaultThrottleRPS      = 1
	defaultRefID            = "339631649"
	DefaultFallbackRefID    = "339631649"
	defaultUseRandomDelay   = true
	defaultFakeUserAgent    = true
	defaultAPIBaseURL       = "https://api.eventhorizongame.xyz"
	defaultHTTPTimeoutSec   = 0
	defaultMaxFloodRetries  = 0
	defaultFixCycleSleep    = false
	defaultRunTimeoutSec    = 0
	defaultUseProxyFromFile = false
	defaultProxiesFile      = "assets/proxies.txt"
	// Файловое логирование (LOG_FILE не имеет дефолта - должен быть явно указан для активации)
	defaultLogFileLevel      = "debug"
	defaultLogFileMaxSize    = 50
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 7
	defaultLogFileCompress   = true
)

var defaultRandomDelayInRun = [2]int{5, 30}

var (
	cfgInstance *Config
	cfgDone     bool
)

// Load: точка входа для инициализации глобальной конфигурации всего приложения.
// Повторный вызов запрещен (возвращается ошибка), чтобы избежать гонок
// конфигурации на старте.
func Load(envPath string) error {
	if cfgDone {
		return errors.New("config already loaded")
	}
	newCfg, err := loadConfig(envPath)
	if err != nil {
		return err
	}
	cfgInstance = newCfg
	cfgDone = true
	return nil
}

// loadConfig выполняет фактическую загрузку/валидацию без установки глобального
// состояния. Удобно для тестов: можно собрать временный Config и проверить его.
// Переменные, уже заданные в окружении процесса, имеют приоритет над .env.
func loadConfig(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	apiID, err := parseRequiredInt("API_ID")
	if err != nil {
		return nil, err
	}

	apiHash := strings.TrimSpace(os.Getenv("API_HASH"))
	if apiHash == "" {
		return nil, errors.New("env API_HASH must be set")
	}

	var warnings []string

	sessionsDir := sanitizeFile("SESSIONS_DIR", os.Getenv("SESSIONS_DIR"), defaultSessionsDir, &warnings)
	logLevel := sanitizeLogLevel("LOG_LEVEL", os.Getenv("LOG_LEVEL"), defaultLogLevel, &warnings)
	throttleRPS := parseIntDefault("THROTTLE_RPS", defaultThrottleRPS, greaterThanZero, &warnings)
	refID := sanitizeRefID("REF_ID", os.Getenv("REF_ID"), defaultRefID, &warnings)
	fallbackRefID := sanitizeRefID("FALLBACK_REF_ID", os.Getenv("FALLBACK_REF_ID"), DefaultFallbackRefID, &warnings)
	useRandomDelay := parseBoolDefault("USE_RANDOM_DELAY_IN_RUN", defaultUseRandomDelay, &warnings)
	randomDelay := sanitizeRange("RANDOM_DELAY_IN_RUN", os.Getenv("RANDOM_DELAY_IN_RUN"), defaultRandomDelayInRun, &warnings)
	fakeUA := parseBoolDefault("FAKE_USERAGENT", defaultFakeUserAgent, &warnings)
	apiBaseURL := sanitizeURL("API_BASE_URL", os.Getenv("API_BASE_URL"), defaultAPIBaseURL, &warnings)
	httpTimeout := parseIntDefault("HTTP_TIMEOUT_SEC", defaultHTTPTimeoutSec, nonNegative, &warnings)
	maxFloodRetries := parseIntDefault("MAX_FLOOD_RETRIES", defaultMaxFloodRetries, nonNegative, &warnings)
	fixCycleSleep := parseBoolDefault("FIX_CYCLE_SLEEP", defaultFixCycleSleep, &warnings)
	runTimeout := parseIntDefault("RUN_TIMEOUT_SEC", defaultRunTimeoutSec, nonNegative, &warnings)
	useProxyFromFile := parseBoolDefault("USE_PROXY_FROM_FILE", defaultUseProxyFromFile, &warnings)
	proxiesFile := sanitizeFile("PROXIES_FILE", os.Getenv("PROXIES_FILE"), defaultProxiesFile, &warnings)
	logFile := strings.TrimSpace(os.Getenv("LOG_FILE"))
	logFileLevel := sanitizeLogLevel("LOG_FILE_LEVEL", os.Getenv("LOG_FILE_LEVEL"), defaultLogFileLevel, &warnings)
	logFileMaxSize := parseIntDefault("LOG_FILE_MAX_SIZE_MB", defaultLogFileMaxSize, greaterThanZero, &warnings)
	logFileMaxBackups := parseIntDefault("LOG_FILE_MAX_BACKUPS", defaultLogFileMaxBackups, nonNegative, &warnings)
	logFileMaxAge := parseIntDefault("LOG_FILE_MAX_AGE_DAYS", defaultLogFileMaxAge, nonNegative, &warnings)
	logFileCompress := parseBoolDefault("LOG_FILE_COMPRESS", defaultLogFileCompress, &warnings)

	env := EnvConfig{
		APIID:               apiID,
		APIHash:             apiHash,
		SessionsDir:         sessionsDir,
		LogLevel:            logLevel,
		ThrottleRPS:         throttleRPS,
		RefID:               refID,
		FallbackRefID:       fallbackRefID,
		UseRandomDelayInRun: useRandomDelay,
		RandomDelayInRun:    randomDelay,
		FakeUserAgent:       fakeUA,
		APIBaseURL:          apiBaseURL,
		HTTPTimeoutSec:      httpTimeout,
		MaxFloodRetries:     maxFloodRetries,
		FixCycleSleep:       fixCycleSleep,
		RunTimeoutSec:       runTimeout,
		UseProxyFromFile:    useProxyFromFile,
		ProxiesFile:         proxiesFile,
		// Файловое логирование
		LogFile:           logFile,
		LogFileLevel:      logFileLevel,
		LogFileMaxSize:    logFileMaxSize,
		LogFileMaxBackups: logFileMaxBackups,
		LogFileMaxAge:     logFileMaxAge,
		LogFileCompress:   logFileCompress,
	}

	cfg := &Config{
		Env:      env,
		warnings: warnings,
	}

	return cfg, nil
}

// Warnings возвращает накопленные предупреждения, возникшие при загрузке .env
// (например, когда подставлено значение по умолчанию). Возвращается копия.
func Warnings() []string {
	cfgInstance.mu.RLock()
	defer cfgInstance.mu.RUnlock()
	result := make([]string, len(cfgInstance.warnings))
	copy(result, cfgInstance.warnings)
	return result
}

// Env возвращает EnvConfig из глобального singleton. Это неизменяемый снимок
// на момент загрузки.
func Env() EnvConfig {
	cfgInstance.mu.RLock()
	defer cfgInstance.mu.RUnlock()
	return cfgInstance.Env
}

// parseRequiredInt читает обязательную целочисленную переменную окружения name.
// Если переменная не задана или не является корректным числом: возвращает ошибку.
func parseRequiredInt(name string) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return 0, fmt.Errorf("env %s must be set", name)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("env %s must be a valid integer: %w", name, err)
	}
	return v, nil
}

// parseIntDefault читает name как int. Если пусто/некорректно/не проходит
// дополнительную проверку validator: возвращает defaultVal и пишет предупреждение.
func parseIntDefault(name string, defaultVal int, validator func(int) bool, warnings *[]string) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %d", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid integer; using default %d", name, value, defaultVal)
		return defaultVal
	}
	if validator != nil && !validator(v) {
		appendWarningf(warnings, "env %s value %d does not satisfy constraints; using default %d", name, v, defaultVal)
		return defaultVal
	}
	return v
}

// appendWarningf: служебная функция для накопления предупреждений о некорректных
// переменных окружения. Список затем доступен через Warnings().
func appendWarningf(warnings *[]string, format string, args ...any) {
	if warnings == nil {
		return
	}
	*warnings = append(*warnings, fmt.Sprintf(format, args...))
}

func greaterThanZero(v int) bool { return v > 0 }
func nonNegative(v int) bool     { return v >= 0 }

// parseBoolDefault читает name как bool. Если пусто/некорректно: возвращает defaultVal и пишет предупреждение.
func parseBoolDefault(name string, defaultVal bool, warnings *[]string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %v", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid boolean; using default %v", name, value, defaultVal)
		return defaultVal
	}
	return v
}

// sanitizeLogLevel нормализует уровень и ограничивает значения набором
// {debug, info, warn, error}. Всё остальное превращается в defaultVal.
func sanitizeLogLevel(name, level, defaultVal string, warnings *[]string) string {
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		appendWarningf(warnings, "env %s is not set; using default %q", name, defaultVal)
		return defaultVal
	}
	switch lvl {
	case "debug", "info", "warn", "error":
		return lvl
	default:
		appendWarningf(warnings, "env %s value %q is invalid; using default %q", name, level, defaultVal)
		return defaultVal
	}
}

// sanitizeFile возвращает валидное имя файла/каталога. Если переменная не
// задана, подставляет fallback и пишет предупреждение.
func sanitizeFile(name, value, fallback string, warnings *[]string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		appendWarningf(warnings, "env %s is not set; using default %q", name, fallback)
		return fallback
	}
	return v
}

// sanitizeRefID принимает только десятичный идентификатор (start_param у бота числовой).
func sanitizeRefID(name, value, fallback string, warnings *[]string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		appendWarningf(warnings, "env %s is not set; using default %q", name, fallback)
		return fallback
	}
	if _, err := strconv.ParseUint(v, 10, 64); err != nil {
		appendWarningf(warnings, "env %s value %q is not numeric; using default %q", name, v, fallback)
		return fallback
	}
	return v
}

// sanitizeURL требует схему http(s); иначе: fallback с предупреждением.
func sanitizeURL(name, value, fallback string, warnings *[]string) string {
	v := strings.TrimRight(strings.TrimSpace(value), "/")
	if v == "" {
		appendWarningf(warnings, "env %s is not set; using default %q", name, fallback)
		return fallback
	}
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		appendWarningf(warnings, "env %s value %q is not an http(s) URL; using default %q", name, v, fallback)
		return fallback
	}
	return v
}

// sanitizeRange парсит пару "MIN,MAX" (секунды). Допускаются квадратные скобки
// ("[5, 30]"). Некорректная пара или MIN > MAX: fallback с предупреждением.
func sanitizeRange(name, value string, fallback [2]int, warnings *[]string) [2]int {
	raw := strings.Trim(strings.TrimSpace(value), "[]")
	if raw == "" {
		appendWarningf(warnings, "env %s is not set; using default %v", name, fallback)
		return fallback
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		appendWarningf(warnings, "env %s value %q must be MIN,MAX; using default %v", name, value, fallback)
		return fallback
	}
	lo, errLo := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, errHi := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errLo != nil || errHi != nil || lo < 0 || hi < lo {
		appendWarningf(warnings, "env %s value %q is invalid; using default %v", name, value, fallback)
		return fallback
	}
	return [2]int{lo, hi}
}
