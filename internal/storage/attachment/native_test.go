package attachment

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bigkaa/ticketwallet/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestNativeStore(t *testing.T, maxSize int64) (*NativeStore, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewNativeStore(dir, maxSize, testLogger())
	if err != nil {
		t.Fatalf("Ошибка создания NativeStore: %v", err)
	}
	return store, dir
}

func TestNativeIngest(t *testing.T) {
	store, dir := newTestNativeStore(t, 0)

	content := "%PDF-1.4 test content"
	ref, err := store.Ingest(strings.NewReader(content), "Show do Artista.pdf")
	if err != nil {
		t.Fatalf("Ошибка Ingest: %v", err)
	}

	if ref.Kind != KindPath {
		t.Errorf("Kind: хотели %q, получили %q", KindPath, ref.Kind)
	}
	if ref.OriginalName != "Show do Artista.pdf" {
		t.Errorf("OriginalName: получили %q", ref.OriginalName)
	}
	// Имя хранения санитизировано: пробелы и не-ASCII заменены на _
	if !strings.HasSuffix(ref.URI, "_Show_do_Artista.pdf") {
		t.Errorf("URI должен оканчиваться санитизированным именем: %q", ref.URI)
	}

	data, err := os.ReadFile(filepath.Join(dir, ref.URI))
	if err != nil {
		t.Fatalf("Файл вложения не создан: %v", err)
	}
	if string(data) != content {
		t.Errorf("Содержимое файла: хотели %q, получили %q", content, string(data))
	}

	// Temp-файлов не остаётся
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("После Ingest не должно оставаться temp-файлов: %s", e.Name())
		}
	}
}

func TestNativeIngestUniqueNames(t *testing.T) {
	store, _ := newTestNativeStore(t, 0)

	ref1, err := store.Ingest(strings.NewReader("a"), "ingresso.pdf")
	if err != nil {
		t.Fatalf("Ошибка первого Ingest: %v", err)
	}
	ref2, err := store.Ingest(strings.NewReader("b"), "ingresso.pdf")
	if err != nil {
		t.Fatalf("Ошибка второго Ingest: %v", err)
	}

	if ref1.URI == ref2.URI {
		t.Errorf("Одинаковые исходные имена должны давать разные имена хранения: %q", ref1.URI)
	}
}

func TestNativeIngestSizeLimit(t *testing.T) {
	store, dir := newTestNativeStore(t, 10)

	_, err := store.Ingest(strings.NewReader("содержимое длиннее десяти байт"), "big.pdf")
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("Превышение лимита должно давать ErrValidation, получили %v", err)
	}

	// Отклонённое вложение не оставляет файлов
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("После отказа по лимиту директория должна быть пустой, файлов: %d", len(entries))
	}
}

func TestNativeRelease(t *testing.T) {
	store, dir := newTestNativeStore(t, 0)

	ref, err := store.Ingest(strings.NewReader("data"), "ingresso.pdf")
	if err != nil {
		t.Fatalf("Ошибка Ingest: %v", err)
	}

	if err := store.Release(ref); err != nil {
		t.Fatalf("Ошибка Release: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ref.URI)); !os.IsNotExist(err) {
		t.Error("Файл должен быть удалён после Release")
	}

	// Повторный Release — не ошибка
	if err := store.Release(ref); err != nil {
		t.Errorf("Повторный Release должен быть идемпотентным: %v", err)
	}
}

func TestNativeMaterialize(t *testing.T) {
	store, _ := newTestNativeStore(t, 0)

	content := "%PDF-1.4 material"
	ref, err := store.Ingest(strings.NewReader(content), "ingresso.pdf")
	if err != nil {
		t.Fatalf("Ошибка Ingest: %v", err)
	}

	res, err := store.Materialize(ref)
	if err != nil {
		t.Fatalf("Ошибка Materialize: %v", err)
	}
	defer res.Close()

	if res.File == nil {
		t.Fatal("Materialize для native должен вернуть открытый файл")
	}
	if res.Size != int64(len(content)) {
		t.Errorf("Size: хотели %d, получили %d", len(content), res.Size)
	}
	if res.OriginalName != "ingresso.pdf" {
		t.Errorf("OriginalName: получили %q", res.OriginalName)
	}
}

func TestNativeMaterializeMissing(t *testing.T) {
	store, dir := newTestNativeStore(t, 0)

	ref, err := store.Ingest(strings.NewReader("data"), "ingresso.pdf")
	if err != nil {
		t.Fatalf("Ошибка Ingest: %v", err)
	}

	// Файл удалён извне (вручную, сторонней программой)
	if err := os.Remove(filepath.Join(dir, ref.URI)); err != nil {
		t.Fatalf("Ошибка удаления файла: %v", err)
	}

	_, err = store.Materialize(ref)
	if !errors.Is(err, model.ErrAttachmentMissing) {
		t.Errorf("Исчезнувший файл должен давать ErrAttachmentMissing, получили %v", err)
	}
}

func TestNativeMaterializeRejectsPathEscape(t *testing.T) {
	store, _ := newTestNativeStore(t, 0)

	_, err := store.Materialize(&Ref{Kind: KindPath, URI: "../outside.pdf"})
	if err == nil {
		t.Error("URI с выходом из директории должен отклоняться")
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ingresso.pdf", "ingresso.pdf"},
		{"Show do Artista.pdf", "Show_do_Artista.pdf"},
		{"entrada-2026!.pdf", "entrada_2026_.pdf"},
		{"билет.pdf", "_____.pdf"},
		{"", "file.pdf"},
	}

	for _, tt := range tests {
		if got := sanitize(tt.input); got != tt.want {
			t.Errorf("sanitize(%q): хотели %q, получили %q", tt.input, tt.want, got)
		}
	}
}
