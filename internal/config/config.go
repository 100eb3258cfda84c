// Пакет config — загрузка и валидация конфигурации Ticket Wallet
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Режимы хранения PDF-вложений.
const (
	// AttachmentModeNative — PDF лежат файлами в директории вложений.
	AttachmentModeNative = "native"
	// AttachmentModeInline — PDF хранятся base64-строками внутри записей.
	AttachmentModeInline = "inline"
)

// Config содержит все параметры конфигурации Ticket Wallet.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Корневая директория данных (хранилище + вложения)
	DataDir string
	// Режим хранения вложений (native, inline)
	AttachmentMode string
	// Максимальный размер PDF в байтах
	MaxPDFSize int64
	// Интервал уборки осиротевших вложений
	SweepInterval time.Duration
	// Максимальное количество записей в кэше вложений
	CacheSize int
	// Время жизни записи кэша вложений
	CacheTTL time.Duration
	// Секрет HS256 bearer-аутентификации (пустой = API без аутентификации)
	APITokenSecret string
	// Путь к TLS сертификату (опционально)
	TLSCert string
	// Путь к TLS приватному ключу (опционально)
	TLSKey string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
}

// StoreDir возвращает директорию KV-хранилища.
func (c *Config) StoreDir() string {
	return filepath.Join(c.DataDir, "store")
}

// AttachmentDir возвращает директорию PDF-вложений.
func (c *Config) AttachmentDir() string {
	return filepath.Join(c.DataDir, "tickets_pdf")
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// TW_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("TW_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("TW_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("TW_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// TW_DATA_DIR — обязательный
	cfg.DataDir, err = getEnvRequired("TW_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// TW_ATTACHMENT_MODE — режим хранения вложений (по умолчанию native)
	cfg.AttachmentMode = getEnvDefault("TW_ATTACHMENT_MODE", AttachmentModeNative)
	if cfg.AttachmentMode != AttachmentModeNative && cfg.AttachmentMode != AttachmentModeInline {
		return nil, fmt.Errorf("TW_ATTACHMENT_MODE: недопустимое значение %q, допустимые: native, inline",
			cfg.AttachmentMode)
	}

	// TW_MAX_PDF_SIZE — максимальный размер PDF (по умолчанию 20 MiB)
	maxPDFSize, err := getEnvInt64("TW_MAX_PDF_SIZE", 20*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("TW_MAX_PDF_SIZE: %w", err)
	}
	if maxPDFSize <= 0 {
		return nil, fmt.Errorf("TW_MAX_PDF_SIZE: значение должно быть положительным")
	}
	cfg.MaxPDFSize = maxPDFSize

	// TW_SWEEP_INTERVAL — интервал уборки вложений (по умолчанию 1h)
	cfg.SweepInterval, err = getEnvDuration("TW_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("TW_SWEEP_INTERVAL: %w", err)
	}

	// TW_CACHE_SIZE — размер кэша вложений (по умолчанию 32)
	cacheSize, err := getEnvInt("TW_CACHE_SIZE", 32)
	if err != nil {
		return nil, fmt.Errorf("TW_CACHE_SIZE: %w", err)
	}
	if cacheSize < 0 {
		return nil, fmt.Errorf("TW_CACHE_SIZE: значение не может быть отрицательным")
	}
	cfg.CacheSize = cacheSize

	// TW_CACHE_TTL — TTL кэша вложений (по умолчанию 10m)
	cfg.CacheTTL, err = getEnvDuration("TW_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("TW_CACHE_TTL: %w", err)
	}

	// TW_API_TOKEN_SECRET — секрет bearer-аутентификации (опционально)
	cfg.APITokenSecret = getEnvDefault("TW_API_TOKEN_SECRET", "")

	// TW_TLS_CERT / TW_TLS_KEY — опциональны, но только парой
	cfg.TLSCert = getEnvDefault("TW_TLS_CERT", "")
	cfg.TLSKey = getEnvDefault("TW_TLS_KEY", "")
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("TW_TLS_CERT и TW_TLS_KEY должны быть заданы вместе")
	}

	// TW_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("TW_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("TW_SHUTDOWN_TIMEOUT: %w", err)
	}

	// TW_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("TW_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("TW_LOG_LEVEL: %w", err)
	}

	// TW_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("TW_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("TW_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 10m, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
