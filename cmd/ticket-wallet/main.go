// Точка входа Ticket Wallet — личного кошелька билетов с PDF-вложениями.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/ticketwallet/internal/api/handlers"
	"github.com/bigkaa/ticketwallet/internal/api/middleware"
	"github.com/bigkaa/ticketwallet/internal/config"
	"github.com/bigkaa/ticketwallet/internal/repository"
	"github.com/bigkaa/ticketwallet/internal/server"
	"github.com/bigkaa/ticketwallet/internal/service"
	"github.com/bigkaa/ticketwallet/internal/storage/attachment"
	"github.com/bigkaa/ticketwallet/internal/storage/kvstore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Ticket Wallet запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("attachment_mode", cfg.AttachmentMode),
	)

	// --- Инициализация компонентов ---

	// 1. KV-хранилище коллекции
	store, err := kvstore.NewFileStore(cfg.StoreDir())
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Хранилище вложений (режим из конфигурации)
	var attach attachment.Store
	attachmentDir := ""
	if cfg.AttachmentMode == config.AttachmentModeNative {
		nativeStore, err := attachment.NewNativeStore(cfg.AttachmentDir(), cfg.MaxPDFSize, logger)
		if err != nil {
			logger.Error("Ошибка инициализации хранилища вложений", slog.String("error", err.Error()))
			os.Exit(1)
		}
		attach = nativeStore
		attachmentDir = nativeStore.Dir()
	} else {
		attach = attachment.NewInlineStore(cfg.MaxPDFSize, logger)
	}

	// 3. Репозиторий билетов
	repo := repository.New(store, logger)

	// 4. Кэш декодированных вложений
	var cache *service.CacheService
	if cfg.CacheSize > 0 {
		cache = service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)
	}

	// 5. Сервис билетов
	ticketSvc := service.NewTicketService(repo, attach, cache, logger)

	// 6. Фоновая уборка осиротевших вложений
	// (в режиме inline attachmentDir пуст и уборка простаивает)
	sweepSvc := service.NewSweepService(attachmentDir, repo, cfg.SweepInterval, logger)
	sweepSvc.Start(context.Background())

	// 7. Handlers
	ticketsHandler := handlers.NewTicketsHandler(ticketSvc, cfg.MaxPDFSize, logger)
	healthHandler := handlers.NewHealthHandler(cfg.DataDir, store)

	// 8. Bearer-аутентификация (опционально)
	var auth *middleware.TokenAuth
	if cfg.APITokenSecret != "" {
		auth = middleware.NewTokenAuth(cfg.APITokenSecret, logger)
		logger.Info("Bearer-аутентификация включена")
	} else {
		logger.Warn("TW_API_TOKEN_SECRET не задан, API работает без аутентификации")
	}

	// 9. Создание и запуск HTTP-сервера
	srv, err := server.New(cfg, logger, ticketsHandler, healthHandler, auth)
	if err != nil {
		logger.Error("Ошибка инициализации сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")
	sweepSvc.Stop()

	logger.Info("Ticket Wallet остановлен")
}
