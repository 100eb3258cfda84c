// Пакет repository — хранение коллекции билетов.
// Вся коллекция сериализуется одним JSON-массивом под единственным
// ключом KV-хранилища; каждая мутация — полная перезапись массива.
// Формат прост и переносим, но операции стоят O(n) от размера
// коллекции — для личного кошелька билетов это приемлемо.
package repository

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/bigkaa/ticketwallet/internal/domain/model"
	"github.com/bigkaa/ticketwallet/internal/storage/kvstore"
)

// StorageKey — ключ KV-хранилища, под которым лежит вся коллекция.
const StorageKey = "tickets"

// TicketRepository — доступ к коллекции билетов.
// Read-modify-write защищён мьютексом: процесс один, конкурируют
// только HTTP-обработчики внутри него.
type TicketRepository struct {
	mu     sync.Mutex
	store  kvstore.Store
	logger *slog.Logger
}

// New создаёт TicketRepository поверх KV-хранилища.
func New(store kvstore.Store, logger *slog.Logger) *TicketRepository {
	return &TicketRepository{
		store:  store,
		logger: logger.With(slog.String("component", "repository")),
	}
}

// ListAll возвращает все записи, отсортированные по возрастанию даты
// события. Отсутствующий ключ — пустая коллекция. Повреждённый JSON
// тоже деградирует к пустой коллекции (с логированием): кошелёк
// должен открываться даже после порчи блоба.
func (r *TicketRepository) ListAll() ([]model.TicketRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loadLocked()
}

// FindByID возвращает запись по id.
func (r *TicketRepository) FindByID(id string) (model.TicketRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.loadLocked()
	if err != nil {
		return model.TicketRecord{}, err
	}

	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return model.TicketRecord{}, fmt.Errorf("%w: билет %s", model.ErrNotFound, id)
}

// Insert добавляет запись и перезаписывает коллекцию.
// Дубликат id нарушает инвариант уникальности и отклоняется.
func (r *TicketRepository) Insert(rec model.TicketRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.loadLocked()
	if err != nil {
		return err
	}

	for _, existing := range records {
		if existing.ID == rec.ID {
			return fmt.Errorf("%w: билет с id %s уже существует", model.ErrPersistence, rec.ID)
		}
	}

	records = append(records, rec)
	return r.saveLocked(records)
}

// DeleteByID удаляет запись по id и перезаписывает коллекцию.
// Отсутствующий id — не ошибка (идемпотентность): возвращается
// removed=false без изменения хранилища. Удалённая запись
// возвращается вызывающему коду для очистки вложения.
func (r *TicketRepository) DeleteByID(id string) (model.TicketRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.loadLocked()
	if err != nil {
		return model.TicketRecord{}, false, err
	}

	kept := records[:0]
	var removed model.TicketRecord
	found := false
	for _, rec := range records {
		if rec.ID == id {
			removed = rec
			found = true
			continue
		}
		kept = append(kept, rec)
	}

	if !found {
		return model.TicketRecord{}, false, nil
	}

	if err := r.saveLocked(kept); err != nil {
		return model.TicketRecord{}, false, err
	}
	return removed, true, nil
}

// loadLocked читает и декодирует коллекцию. Вызывать под mu.
func (r *TicketRepository) loadLocked() ([]model.TicketRecord, error) {
	raw, ok, err := r.store.Get(StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения коллекции: %v", model.ErrPersistence, err)
	}
	if !ok {
		return []model.TicketRecord{}, nil
	}

	var records []model.TicketRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		r.logger.Warn("Повреждённая коллекция билетов, деградация к пустой",
			slog.String("error", err.Error()),
		)
		return []model.TicketRecord{}, nil
	}

	sortByEventDate(records)
	return records, nil
}

// saveLocked кодирует и записывает коллекцию. Вызывать под mu.
func (r *TicketRepository) saveLocked(records []model.TicketRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: ошибка сериализации коллекции: %v", model.ErrPersistence, err)
	}
	if err := r.store.Set(StorageKey, string(data)); err != nil {
		return fmt.Errorf("%w: ошибка записи коллекции: %v", model.ErrPersistence, err)
	}
	return nil
}

// sortByEventDate сортирует записи по возрастанию даты события;
// при равных датах — по id, чтобы порядок был стабильным.
func sortByEventDate(records []model.TicketRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].EventDate.Equal(records[j].EventDate) {
			return records[i].ID < records[j].ID
		}
		return records[i].EventDate.Before(records[j].EventDate)
	})
}
