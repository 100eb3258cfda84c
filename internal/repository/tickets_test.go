package repository

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/bigkaa/ticketwallet/internal/domain/model"
	"github.com/bigkaa/ticketwallet/internal/storage/kvstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRecord(id string, date time.Time) model.TicketRecord {
	return model.TicketRecord{
		ID:              id,
		EventName:       "Event " + id,
		EventLocal:      "Local " + id,
		EventDate:       date,
		PDFOriginalName: "ingresso.pdf",
		Platform:        model.PlatformNative,
		PDFURI:          "file_" + id + ".pdf",
	}
}

func TestListAllEmpty(t *testing.T) {
	repo := New(kvstore.NewMemStore(), testLogger())

	records, err := repo.ListAll()
	if err != nil {
		t.Fatalf("Ошибка ListAll: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Пустое хранилище должно давать пустой список, записей: %d", len(records))
	}
}

func TestInsertAndList(t *testing.T) {
	repo := New(kvstore.NewMemStore(), testLogger())

	rec := testRecord("1", time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))
	if err := repo.Insert(rec); err != nil {
		t.Fatalf("Ошибка Insert: %v", err)
	}

	records, err := repo.ListAll()
	if err != nil {
		t.Fatalf("Ошибка ListAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Хотели 1 запись, получили %d", len(records))
	}
	if records[0].ID != "1" || records[0].EventName != "Event 1" {
		t.Errorf("Запись изменилась при сохранении: %+v", records[0])
	}
}

func TestListSortedByEventDate(t *testing.T) {
	repo := New(kvstore.NewMemStore(), testLogger())

	// Вставка в обратном порядке дат
	later := testRecord("1", time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC))
	earlier := testRecord("2", time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))

	if err := repo.Insert(later); err != nil {
		t.Fatalf("Ошибка Insert: %v", err)
	}
	if err := repo.Insert(earlier); err != nil {
		t.Fatalf("Ошибка Insert: %v", err)
	}

	records, err := repo.ListAll()
	if err != nil {
		t.Fatalf("Ошибка ListAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Хотели 2 записи, получили %d", len(records))
	}
	if records[0].ID != "2" || records[1].ID != "1" {
		t.Errorf("Список должен быть отсортирован по возрастанию даты: %s, %s",
			records[0].ID, records[1].ID)
	}
}

func TestInsertDuplicateID(t *testing.T) {
	repo := New(kvstore.NewMemStore(), testLogger())

	rec := testRecord("1", time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))
	if err := repo.Insert(rec); err != nil {
		t.Fatalf("Ошибка Insert: %v", err)
	}

	err := repo.Insert(rec)
	if !errors.Is(err, model.ErrPersistence) {
		t.Errorf("Дубликат id должен давать ErrPersistence, получили %v", err)
	}
}

func TestFindByID(t *testing.T) {
	repo := New(kvstore.NewMemStore(), testLogger())

	rec := testRecord("1", time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))
	if err := repo.Insert(rec); err != nil {
		t.Fatalf("Ошибка Insert: %v", err)
	}

	found, err := repo.FindByID("1")
	if err != nil {
		t.Fatalf("Ошибка FindByID: %v", err)
	}
	if found.EventName != rec.EventName {
		t.Errorf("FindByID вернул не ту запись: %+v", found)
	}

	_, err = repo.FindByID("999")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Неизвестный id должен давать ErrNotFound, получили %v", err)
	}
}

func TestDeleteByID(t *testing.T) {
	repo := New(kvstore.NewMemStore(), testLogger())

	rec := testRecord("1", time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))
	if err := repo.Insert(rec); err != nil {
		t.Fatalf("Ошибка Insert: %v", err)
	}

	removed, found, err := repo.DeleteByID("1")
	if err != nil {
		t.Fatalf("Ошибка DeleteByID: %v", err)
	}
	if !found {
		t.Fatal("DeleteByID должен найти существующую запись")
	}
	if removed.PDFURI != rec.PDFURI {
		t.Errorf("Удалённая запись должна возвращаться для очистки вложения: %+v", removed)
	}

	records, _ := repo.ListAll()
	if len(records) != 0 {
		t.Errorf("После удаления коллекция должна быть пустой, записей: %d", len(records))
	}
}

func TestDeleteByIDIdempotent(t *testing.T) {
	store := kvstore.NewMemStore()
	repo := New(store, testLogger())

	if err := repo.Insert(testRecord("1", time.Now().UTC())); err != nil {
		t.Fatalf("Ошибка Insert: %v", err)
	}
	before, _, _ := store.Get(StorageKey)

	_, found, err := repo.DeleteByID("999")
	if err != nil {
		t.Fatalf("Удаление неизвестного id не должно быть ошибкой: %v", err)
	}
	if found {
		t.Error("Неизвестный id не должен считаться найденным")
	}

	// Хранилище не тронуто
	after, _, _ := store.Get(StorageKey)
	if before != after {
		t.Error("Удаление неизвестного id не должно перезаписывать коллекцию")
	}
}

func TestCorruptBlobDegradesToEmpty(t *testing.T) {
	store := kvstore.NewMemStore()
	if err := store.Set(StorageKey, "{не json"); err != nil {
		t.Fatalf("Ошибка записи: %v", err)
	}

	repo := New(store, testLogger())

	records, err := repo.ListAll()
	if err != nil {
		t.Fatalf("Повреждённый блоб не должен быть ошибкой чтения: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Повреждённый блоб должен деградировать к пустой коллекции, записей: %d", len(records))
	}

	// Следующая вставка начинает коллекцию заново
	if err := repo.Insert(testRecord("1", time.Now().UTC())); err != nil {
		t.Fatalf("Insert после повреждённого блоба: %v", err)
	}
	records, _ = repo.ListAll()
	if len(records) != 1 {
		t.Errorf("После вставки хотели 1 запись, получили %d", len(records))
	}
}

func TestPersistenceErrors(t *testing.T) {
	store := kvstore.NewMemStore()
	repo := New(store, testLogger())

	store.GetErr = errors.New("диск недоступен")
	if _, err := repo.ListAll(); !errors.Is(err, model.ErrPersistence) {
		t.Errorf("Отказ чтения должен давать ErrPersistence, получили %v", err)
	}

	store.GetErr = nil
	store.SetErr = errors.New("диск переполнен")
	err := repo.Insert(testRecord("1", time.Now().UTC()))
	if !errors.Is(err, model.ErrPersistence) {
		t.Errorf("Отказ записи должен давать ErrPersistence, получили %v", err)
	}
}

func TestRoundTripThroughFileStore(t *testing.T) {
	store, err := kvstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка создания FileStore: %v", err)
	}
	repo := New(store, testLogger())

	original := model.TicketRecord{
		ID:              "1756400000000",
		EventName:       "Show do Artista",
		EventLocal:      "Estádio Municipal",
		EventDate:       time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		PDFOriginalName: "ingresso.pdf",
		Platform:        model.PlatformWeb,
		PDFBase64:       "JVBERi0xLjQK",
	}
	if err := repo.Insert(original); err != nil {
		t.Fatalf("Ошибка Insert: %v", err)
	}

	// Новый репозиторий поверх того же файла читает то же самое
	reopened := New(store, testLogger())
	found, err := reopened.FindByID("1756400000000")
	if err != nil {
		t.Fatalf("Ошибка FindByID: %v", err)
	}
	if found.EventName != original.EventName ||
		!found.EventDate.Equal(original.EventDate) ||
		found.PDFBase64 != original.PDFBase64 ||
		found.Platform != original.Platform {
		t.Errorf("Запись изменилась после перечитывания:\nбыло:  %+v\nстало: %+v", original, found)
	}
}
