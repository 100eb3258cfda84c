// tickets.go — обработчики HTTP API билетов.
// CRUD-операции плюс отдача PDF-вложения.
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	apierrors "github.com/bigkaa/ticketwallet/internal/api/errors"
	"github.com/bigkaa/ticketwallet/internal/domain/model"
	"github.com/bigkaa/ticketwallet/internal/service"
)

// multipartMemoryLimit — порог, после которого multipart-поля
// сбрасываются во временные файлы.
const multipartMemoryLimit = 8 << 20 // 8 MiB

// TicketsHandler реализует endpoints /api/v1/tickets.
type TicketsHandler struct {
	svc *service.TicketService
	// maxPDFSize — лимит размера PDF для раннего отказа по
	// заявленному размеру части (точный контроль — в хранилище вложений)
	maxPDFSize int64
	logger     *slog.Logger
}

// NewTicketsHandler создаёт обработчик API билетов.
func NewTicketsHandler(svc *service.TicketService, maxPDFSize int64, logger *slog.Logger) *TicketsHandler {
	return &TicketsHandler{
		svc:        svc,
		maxPDFSize: maxPDFSize,
		logger:     logger.With(slog.String("component", "handlers")),
	}
}

// ticketListResponse — тело ответа GET /api/v1/tickets.
type ticketListResponse struct {
	Items []model.TicketRecord `json:"items"`
	Total int                  `json:"total"`
}

// CreateTicket обрабатывает POST /api/v1/tickets.
// Ожидает multipart/form-data: eventName, eventLocal,
// eventDate (YYYY-MM-DD), file (PDF).
func (h *TicketsHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		apierrors.ValidationError(w, "Некорректный multipart-запрос")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	dateStr := r.FormValue("eventDate")
	eventDate, err := time.Parse(openapi_types.DateFormat, dateStr)
	if err != nil {
		apierrors.ValidationError(w,
			fmt.Sprintf("eventDate: ожидается дата в формате YYYY-MM-DD, получено %q", dateStr))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "PDF-файл не выбран (поле file)")
		return
	}
	defer file.Close()

	if h.maxPDFSize > 0 && header.Size > h.maxPDFSize {
		apierrors.FileTooLarge(w,
			fmt.Sprintf("Размер файла %d байт превышает лимит %d байт", header.Size, h.maxPDFSize))
		return
	}
	if !looksLikePDF(header.Filename, header.Header.Get("Content-Type")) {
		apierrors.ValidationError(w, "Ожидается PDF-файл")
		return
	}

	rec, err := h.svc.Create(service.CreateParams{
		EventName:  r.FormValue("eventName"),
		EventLocal: r.FormValue("eventLocal"),
		EventDate:  eventDate,
		PDF:        file,
		PDFName:    header.Filename,
	})
	if err != nil {
		h.logger.Warn("Ошибка создания билета", slog.String("error", err.Error()))
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// ListTickets обрабатывает GET /api/v1/tickets.
// Возвращает все билеты, отсортированные по возрастанию даты события.
func (h *TicketsHandler) ListTickets(w http.ResponseWriter, _ *http.Request) {
	records, err := h.svc.List()
	if err != nil {
		h.logger.Error("Ошибка чтения списка билетов", slog.String("error", err.Error()))
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ticketListResponse{
		Items: records,
		Total: len(records),
	})
}

// GetTicket обрабатывает GET /api/v1/tickets/{ticketId}.
func (h *TicketsHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ticketId")

	rec, err := h.svc.Get(id)
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// DeleteTicket обрабатывает DELETE /api/v1/tickets/{ticketId}.
// Отвечает 204 и для неизвестного id: удаление идемпотентно.
func (h *TicketsHandler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ticketId")

	if err := h.svc.Delete(id); err != nil {
		h.logger.Error("Ошибка удаления билета",
			slog.String("ticket_id", id),
			slog.String("error", err.Error()),
		)
		apierrors.FromDomain(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DownloadTicketPDF обрабатывает GET /api/v1/tickets/{ticketId}/pdf.
// Отдаёт содержимое через http.ServeContent: Range и If-Modified-Since
// работают для файловых вложений без дополнительного кода.
func (h *TicketsHandler) DownloadTicketPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ticketId")

	res, err := h.svc.Attachment(id)
	if err != nil {
		apierrors.FromDomain(w, err)
		return
	}
	defer res.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": res.OriginalName}))

	if res.File != nil {
		http.ServeContent(w, r, res.OriginalName, res.ModTime, res.File)
		return
	}
	http.ServeContent(w, r, res.OriginalName, time.Time{}, bytes.NewReader(res.Bytes))
}

// looksLikePDF проверяет, что загружаемый файл похож на PDF:
// по расширению имени либо по заявленному Content-Type части.
func looksLikePDF(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return strings.Contains(strings.ToLower(contentType), "pdf")
}

// writeJSON записывает JSON-ответ с указанным статус-кодом.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
