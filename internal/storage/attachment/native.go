// native.go — файловое хранилище вложений (режим native).
package attachment

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bigkaa/ticketwallet/internal/domain/model"
)

// NativeStore хранит PDF файлами в собственной директории.
// Ссылка (Ref.URI) — имя файла внутри директории, без пути.
type NativeStore struct {
	// dir — директория вложений
	dir string
	// maxSize — максимальный размер PDF в байтах (0 = без лимита)
	maxSize int64
	logger  *slog.Logger
}

// NewNativeStore создаёт NativeStore. Создаёт директорию вложений,
// если она не существует.
func NewNativeStore(dir string, maxSize int64, logger *slog.Logger) (*NativeStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию вложений %s: %w", dir, err)
	}

	return &NativeStore{
		dir:     dir,
		maxSize: maxSize,
		logger:  logger.With(slog.String("component", "attachment")),
	}, nil
}

// Dir возвращает директорию вложений.
func (s *NativeStore) Dir() string {
	return s.dir
}

// Ingest копирует содержимое reader в файл вложения.
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется, мусора не остаётся.
func (s *NativeStore) Ingest(reader io.Reader, originalName string) (*Ref, error) {
	if reader == nil {
		return nil, fmt.Errorf("%w: источник вложения не задан", model.ErrAttachmentIO)
	}

	storageName := generateStorageName(originalName)
	fullPath, err := ensureWithin(s.dir, storageName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAttachmentIO, err)
	}
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка создания временного файла: %v", model.ErrAttachmentIO, err)
	}

	src := reader
	if s.maxSize > 0 {
		src = io.LimitReader(reader, s.maxSize+1)
	}

	size, err := io.Copy(f, src)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: ошибка записи вложения: %v", model.ErrAttachmentIO, err)
	}
	if s.maxSize > 0 && size > s.maxSize {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: размер вложения превышает лимит %d байт", model.ErrValidation, s.maxSize)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: ошибка fsync: %v", model.ErrAttachmentIO, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: ошибка закрытия файла: %v", model.ErrAttachmentIO, err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: ошибка атомарного переименования: %v", model.ErrAttachmentIO, err)
	}

	s.logger.Debug("Вложение сохранено",
		slog.String("storage_name", storageName),
		slog.Int64("size", size),
	)

	return &Ref{
		Kind:         KindPath,
		URI:          storageName,
		OriginalName: originalName,
	}, nil
}

// Release удаляет файл вложения. Отсутствие файла — не ошибка:
// повторное удаление идемпотентно.
func (s *NativeStore) Release(ref *Ref) error {
	if ref == nil || ref.URI == "" {
		return nil
	}

	fullPath, err := ensureWithin(s.dir, ref.URI)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrAttachmentIO, err)
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: ошибка удаления файла %s: %v", model.ErrAttachmentIO, ref.URI, err)
	}
	return nil
}

// Materialize открывает файл вложения для чтения.
// Файл обязан закрыть вызывающий код (Resource.Close).
func (s *NativeStore) Materialize(ref *Ref) (*Resource, error) {
	if ref == nil || ref.URI == "" {
		return nil, fmt.Errorf("%w: пустая ссылка на вложение", model.ErrAttachmentMissing)
	}

	fullPath, err := ensureWithin(s.dir, ref.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAttachmentIO, err)
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: файл %s не найден", model.ErrAttachmentMissing, ref.URI)
		}
		return nil, fmt.Errorf("%w: ошибка открытия файла %s: %v", model.ErrAttachmentIO, ref.URI, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: ошибка чтения информации о файле %s: %v", model.ErrAttachmentIO, ref.URI, err)
	}

	return &Resource{
		OriginalName: ref.OriginalName,
		Size:         info.Size(),
		File:         f,
		Path:         fullPath,
		ModTime:      info.ModTime(),
	}, nil
}

var _ Store = (*NativeStore)(nil)
