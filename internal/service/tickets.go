// Пакет service — бизнес-логика Ticket Wallet.
// TicketService оркестрирует создание, чтение и удаление билетов:
// валидация входа, сохранение вложения, запись в репозиторий,
// компенсирующая очистка при частичных отказах.
package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/ticketwallet/internal/api/middleware"
	"github.com/bigkaa/ticketwallet/internal/domain/model"
	"github.com/bigkaa/ticketwallet/internal/repository"
	"github.com/bigkaa/ticketwallet/internal/storage/attachment"
)

// CreateParams — входные данные создания билета.
type CreateParams struct {
	EventName  string
	EventLocal string
	// EventDate — дата события; нормализуется к полуночи UTC.
	EventDate time.Time
	// PDF — содержимое вложения.
	PDF io.Reader
	// PDFName — имя файла, выбранного пользователем.
	PDFName string
}

// TicketService — оркестрация операций над билетами.
type TicketService struct {
	repo   *repository.TicketRepository
	attach attachment.Store
	cache  *CacheService
	logger *slog.Logger

	// idMu/lastID гарантируют уникальность timestamp-идентификаторов
	// внутри процесса: два создания в одну миллисекунду получают
	// монотонно возрастающие значения.
	idMu   sync.Mutex
	lastID int64
}

// NewTicketService создаёт TicketService.
// cache может быть nil — тогда кэширование декодированных вложений отключено.
func NewTicketService(
	repo *repository.TicketRepository,
	attach attachment.Store,
	cache *CacheService,
	logger *slog.Logger,
) *TicketService {
	return &TicketService{
		repo:   repo,
		attach: attach,
		cache:  cache,
		logger: logger.With(slog.String("component", "tickets")),
	}
}

// Create регистрирует новый билет.
//
// Порядок: валидация → сохранение вложения → запись в репозиторий.
// Если запись не удалась после сохранения вложения, вложение
// освобождается best-effort, чтобы не копить осиротевшие файлы.
func (s *TicketService) Create(params CreateParams) (model.TicketRecord, error) {
	// 1. Валидация
	if err := validateCreate(params); err != nil {
		middleware.OperationsTotal.WithLabelValues("create", "error").Inc()
		return model.TicketRecord{}, err
	}

	// 2. Сохранение вложения
	ref, err := s.attach.Ingest(params.PDF, params.PDFName)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("create", "error").Inc()
		return model.TicketRecord{}, err
	}

	// 3. Формирование записи
	rec := model.TicketRecord{
		ID:              s.nextID(),
		EventName:       strings.TrimSpace(params.EventName),
		EventLocal:      strings.TrimSpace(params.EventLocal),
		EventDate:       model.NormalizeEventDate(params.EventDate),
		PDFOriginalName: ref.OriginalName,
	}
	switch ref.Kind {
	case attachment.KindInline:
		rec.Platform = model.PlatformWeb
		rec.PDFBase64 = ref.Data
	default:
		rec.Platform = model.PlatformNative
		rec.PDFURI = ref.URI
	}

	// 4. Запись в репозиторий с компенсирующей очисткой
	if err := s.repo.Insert(rec); err != nil {
		if relErr := s.attach.Release(ref); relErr != nil {
			s.logger.Warn("Не удалось освободить вложение после отказа записи",
				slog.String("ticket_id", rec.ID),
				slog.String("error", relErr.Error()),
			)
		}
		middleware.OperationsTotal.WithLabelValues("create", "error").Inc()
		return model.TicketRecord{}, err
	}

	middleware.OperationsTotal.WithLabelValues("create", "success").Inc()
	s.updateTicketsGauge()

	s.logger.Info("Билет создан",
		slog.String("ticket_id", rec.ID),
		slog.String("event_name", rec.EventName),
		slog.String("event_date", rec.EventDate.Format("2006-01-02")),
		slog.String("platform", string(rec.Platform)),
	)
	return rec, nil
}

// List возвращает все билеты, отсортированные по возрастанию даты события.
func (s *TicketService) List() ([]model.TicketRecord, error) {
	return s.repo.ListAll()
}

// Get возвращает билет по id.
func (s *TicketService) Get(id string) (model.TicketRecord, error) {
	return s.repo.FindByID(id)
}

// Delete удаляет билет и освобождает его вложение.
// Неизвестный id — тихий успех (идемпотентность). Ошибка освобождения
// вложения логируется, но не прерывает удаление записи.
func (s *TicketService) Delete(id string) error {
	rec, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		middleware.OperationsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}

	if relErr := s.attach.Release(refOf(rec)); relErr != nil {
		s.logger.Warn("Не удалось удалить вложение билета",
			slog.String("ticket_id", id),
			slog.String("error", relErr.Error()),
		)
	}

	if _, _, err := s.repo.DeleteByID(id); err != nil {
		middleware.OperationsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}

	if s.cache != nil {
		s.cache.Delete(id)
	}

	middleware.OperationsTotal.WithLabelValues("delete", "success").Inc()
	s.updateTicketsGauge()

	s.logger.Info("Билет удалён", slog.String("ticket_id", id))
	return nil
}

// Attachment материализует PDF-вложение билета.
// Декодированные встроенные вложения кэшируются: повторное открытие
// того же билета не декодирует base64 заново.
func (s *TicketService) Attachment(id string) (*attachment.Resource, error) {
	rec, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if rec.Platform == model.PlatformWeb && s.cache != nil {
		if data, ok := s.cache.Get(id); ok {
			return &attachment.Resource{
				OriginalName: rec.PDFOriginalName,
				Size:         int64(len(data)),
				Bytes:        data,
			}, nil
		}
	}

	res, err := s.attach.Materialize(refOf(rec))
	if err != nil {
		return nil, err
	}

	if rec.Platform == model.PlatformWeb && s.cache != nil && res.Bytes != nil {
		s.cache.Set(id, res.Bytes)
	}
	return res, nil
}

// nextID возвращает очередной миллисекундный timestamp-идентификатор.
// При создании двух билетов в одну миллисекунду второй получает
// значение на единицу больше.
func (s *TicketService) nextID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// updateTicketsGauge обновляет gauge количества билетов.
func (s *TicketService) updateTicketsGauge() {
	records, err := s.repo.ListAll()
	if err != nil {
		return
	}
	middleware.TicketsTotal.Set(float64(len(records)))
}

// validateCreate проверяет входные данные создания билета.
func validateCreate(params CreateParams) error {
	if strings.TrimSpace(params.EventName) == "" {
		return fmt.Errorf("%w: eventName не заполнено", model.ErrValidation)
	}
	if strings.TrimSpace(params.EventLocal) == "" {
		return fmt.Errorf("%w: eventLocal не заполнено", model.ErrValidation)
	}
	if params.EventDate.IsZero() {
		return fmt.Errorf("%w: eventDate не заполнена", model.ErrValidation)
	}
	if params.PDF == nil {
		return fmt.Errorf("%w: PDF-файл не выбран", model.ErrValidation)
	}
	if strings.TrimSpace(params.PDFName) == "" {
		return fmt.Errorf("%w: имя PDF-файла не задано", model.ErrValidation)
	}
	return nil
}

// refOf строит ссылку на вложение из записи билета.
func refOf(rec model.TicketRecord) *attachment.Ref {
	if rec.Platform == model.PlatformWeb {
		return &attachment.Ref{
			Kind:         attachment.KindInline,
			Data:         rec.PDFBase64,
			OriginalName: rec.PDFOriginalName,
		}
	}
	return &attachment.Ref{
		Kind:         attachment.KindPath,
		URI:          rec.PDFURI,
		OriginalName: rec.PDFOriginalName,
	}
}
