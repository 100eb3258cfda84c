// Пакет kvstore — локальное key-value хранилище строковых значений.
// Одно значение — один файл в директории хранилища; запись атомарная
// по паттерну temp файл → fsync → rename.
package kvstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store — контракт key-value хранилища.
// Get возвращает ok=false, если ключ не записан.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// FileStore — файловая реализация Store.
type FileStore struct {
	// dir — директория хранилища
	dir string
}

// NewFileStore создаёт FileStore в указанной директории.
// Создаёт директорию при необходимости и проверяет её доступность
// на запись тестовым файлом.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию хранилища %s: %w", dir, err)
	}

	// Проверка записи: битая директория должна падать на старте,
	// а не на первой операции пользователя.
	probe := filepath.Join(dir, ".write_check")
	if err := os.WriteFile(probe, []byte("ok"), 0o640); err != nil {
		return nil, fmt.Errorf("директория хранилища %s недоступна для записи: %w", dir, err)
	}
	_ = os.Remove(probe)

	return &FileStore{dir: dir}, nil
}

// Get читает значение ключа. Отсутствие файла — не ошибка (ok=false).
func (s *FileStore) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("ошибка чтения ключа %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set записывает значение ключа атомарно: temp файл → fsync → rename.
// Прерванная запись не может оставить ключ в полузаписанном состоянии.
func (s *FileStore) Set(key, value string) error {
	fullPath := s.keyPath(key)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла для ключа %s: %w", key, err)
	}

	if _, err := f.WriteString(value); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи ключа %s: %w", key, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync ключа %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла ключа %s: %w", key, err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования ключа %s: %w", key, err)
	}

	return nil
}

// Dir возвращает директорию хранилища.
func (s *FileStore) Dir() string {
	return s.dir
}

// keyPath возвращает путь файла значения для ключа.
func (s *FileStore) keyPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}
