// Пакет attachment — хранение PDF-вложений билетов.
// Два режима: NativeStore (файл в директории вложений) и InlineStore
// (base64-строка внутри записи). Режим выбирается конфигурацией на
// старте; у каждой записи свой вариант, зафиксированный при создании.
package attachment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind — вариант хранения вложения.
type Kind string

const (
	// KindPath — вложение лежит файлом, Ref.URI содержит имя файла.
	KindPath Kind = "path"
	// KindInline — вложение встроено, Ref.Data содержит base64.
	KindInline Kind = "inline"
)

// Ref — ссылка на сохранённое вложение. Заполнен URI либо Data,
// в зависимости от Kind.
type Ref struct {
	Kind         Kind
	URI          string
	Data         string
	OriginalName string
}

// Resource — материализованное вложение, готовое к отдаче.
// Для KindPath заполнены File/Path/ModTime (File обязан закрыть
// вызывающий код), для KindInline — Bytes.
type Resource struct {
	OriginalName string
	Size         int64

	File    *os.File
	Path    string
	ModTime time.Time

	Bytes []byte
}

// Close закрывает открытый файл ресурса, если он есть.
func (r *Resource) Close() error {
	if r.File != nil {
		return r.File.Close()
	}
	return nil
}

// Store — контракт хранилища вложений.
//
// Ingest сохраняет содержимое reader и возвращает ссылку.
// Release удаляет содержимое по ссылке; повторный вызов — не ошибка.
// Materialize достаёт содержимое по ссылке.
type Store interface {
	Ingest(reader io.Reader, originalName string) (*Ref, error)
	Release(ref *Ref) error
	Materialize(ref *Ref) (*Resource, error)
}

// generateStorageName генерирует имя файла вложения.
// Формат: {timestamp}_{uuid8}_{sanitized original}
// Пример: 20260829T154501_a1b2c3d4_Show_do_Artista.pdf
// UUID-фрагмент защищает от коллизий при совпадении секунды и имени.
func generateStorageName(originalName string) string {
	ts := time.Now().UTC().Format("20060102T150405")
	uid := uuid.New().String()[:8]
	return fmt.Sprintf("%s_%s_%s", ts, uid, sanitize(originalName))
}

// sanitize заменяет на подчёркивание все символы имени файла,
// кроме латинских букв, цифр и точки.
func sanitize(s string) string {
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}
	if result.Len() == 0 {
		return "file.pdf"
	}
	return result.String()
}

// ensureWithin защищает от выхода URI за пределы директории вложений
// (например, при повреждённой записи с "../" в pdfUri).
func ensureWithin(dir, uri string) (string, error) {
	if uri == "." || uri == ".." || filepath.Base(uri) != uri {
		return "", fmt.Errorf("недопустимое имя вложения: %q", uri)
	}
	return filepath.Join(dir, uri), nil
}
