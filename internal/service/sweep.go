// sweep.go — фоновая уборка осиротевших вложений.
//
// Файл в директории вложений считается осиротевшим, если на него не
// ссылается ни одна запись коллекции. Такие файлы появляются после
// падения процесса между сохранением вложения и записью в репозиторий,
// либо после отказа best-effort удаления.
//
// Запускается как горутина с периодическим тикером (TW_SWEEP_INTERVAL).
package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/ticketwallet/internal/domain/model"
	"github.com/bigkaa/ticketwallet/internal/repository"
)

// sweepGrace — возраст, до которого файл не трогаем: это может быть
// незавершённое сохранение, ещё не записанное в коллекцию.
const sweepGrace = 5 * time.Minute

// Prometheus метрики уборки
var (
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tw_sweep_runs_total",
		Help: "Общее количество запусков уборки вложений",
	})

	sweepFilesRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tw_sweep_files_removed_total",
		Help: "Общее количество осиротевших файлов, удалённых уборкой",
	})

	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tw_sweep_duration_seconds",
		Help:    "Длительность уборки вложений в секундах",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
)

// SweepResult — результат одного запуска уборки.
type SweepResult struct {
	// ScannedCount — количество просмотренных файлов
	ScannedCount int
	// RemovedCount — количество удалённых осиротевших файлов
	RemovedCount int
	// Errors — количество ошибок при обработке файлов
	Errors int
	// Duration — длительность выполнения
	Duration time.Duration
}

// SweepService — сервис фоновой уборки директории вложений.
type SweepService struct {
	// dir — директория вложений; пустая строка отключает уборку
	// (режим inline файлов не создаёт)
	dir      string
	repo     *repository.TicketRepository
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex // защита от параллельного запуска RunOnce
	cancel context.CancelFunc
}

// NewSweepService создаёт сервис уборки.
func NewSweepService(
	dir string,
	repo *repository.TicketRepository,
	interval time.Duration,
	logger *slog.Logger,
) *SweepService {
	return &SweepService{
		dir:      dir,
		repo:     repo,
		interval: interval,
		logger:   logger.With(slog.String("component", "sweep")),
	}
}

// Start запускает фоновую горутину уборки с периодическим тикером.
// Вызывается один раз при старте приложения.
func (s *SweepService) Start(ctx context.Context) {
	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.run(sweepCtx)

	s.logger.Info("Уборка вложений запущена",
		slog.String("interval", s.interval.String()),
	)
}

// Stop останавливает фоновый процесс уборки.
func (s *SweepService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("Уборка вложений остановлена")
}

// run — основной цикл фоновой горутины.
func (s *SweepService) run(ctx context.Context) {
	// Первый запуск — сразу после старта
	s.RunOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce выполняет один цикл уборки.
// Потокобезопасен: использует mutex для защиты от параллельного запуска.
func (s *SweepService) RunOnce() *SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result := &SweepResult{}

	if s.dir == "" {
		return result
	}

	referenced, err := s.referencedFiles()
	if err != nil {
		s.logger.Error("Уборка: ошибка чтения коллекции",
			slog.String("error", err.Error()),
		)
		result.Errors++
		return result
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("Уборка: ошибка чтения директории вложений",
			slog.String("dir", s.dir),
			slog.String("error", err.Error()),
		)
		result.Errors++
		return result
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		result.ScannedCount++

		if referenced[entry.Name()] {
			continue
		}

		// Свежие файлы пропускаем: возможно, сохранение ещё не
		// успело попасть в коллекцию.
		info, err := entry.Info()
		if err != nil {
			result.Errors++
			continue
		}
		if now.Sub(info.ModTime()) < sweepGrace {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.logger.Error("Уборка: ошибка удаления осиротевшего файла",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()),
			)
			result.Errors++
			continue
		}

		s.logger.Info("Уборка: удалён осиротевший файл",
			slog.String("file", entry.Name()),
		)
		result.RemovedCount++
	}

	result.Duration = time.Since(start)

	sweepRunsTotal.Inc()
	sweepFilesRemovedTotal.Add(float64(result.RemovedCount))
	sweepDurationSeconds.Observe(result.Duration.Seconds())

	s.logger.Debug("Уборка завершена",
		slog.Int("scanned", result.ScannedCount),
		slog.Int("removed", result.RemovedCount),
		slog.Int("errors", result.Errors),
		slog.Duration("duration", result.Duration),
	)

	return result
}

// referencedFiles собирает множество имён файлов, на которые
// ссылаются записи коллекции.
func (s *SweepService) referencedFiles() (map[string]bool, error) {
	records, err := s.repo.ListAll()
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Platform == model.PlatformNative && rec.PDFURI != "" {
			referenced[rec.PDFURI] = true
		}
	}
	return referenced, nil
}
