// Пакет errors — конструкторы стандартных ошибок HTTP API.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // TODO: переименовать пакет errors, конфликт со stdlib

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/bigkaa/ticketwallet/internal/domain/model"
)

// Коды ошибок, определённые в OpenAPI контракте.
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeFileTooLarge      = "FILE_TOO_LARGE"
	CodeAttachmentIO      = "ATTACHMENT_IO_ERROR"
	CodeAttachmentMissing = "ATTACHMENT_MISSING"
	CodePersistenceError  = "PERSISTENCE_ERROR"
	CodeInternalError     = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// FileTooLarge — 413 файл превышает лимит.
func FileTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, message)
}

// AttachmentMissing — 410 запись есть, но содержимое вложения утрачено.
func AttachmentMissing(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusGone, CodeAttachmentMissing, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

// FromDomain отображает доменную ошибку в HTTP-ответ.
// Тексты ошибок валидации и not found показываются пользователю;
// ошибки ввода-вывода и хранилища отдаются обобщённой фразой,
// детали остаются в логах.
func FromDomain(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, model.ErrValidation):
		ValidationError(w, err.Error())
	case stderrors.Is(err, model.ErrNotFound):
		NotFound(w, err.Error())
	case stderrors.Is(err, model.ErrAttachmentMissing):
		AttachmentMissing(w, "PDF-файл билета утрачен")
	case stderrors.Is(err, model.ErrAttachmentIO):
		WriteError(w, http.StatusInternalServerError, CodeAttachmentIO,
			"Не удалось обработать PDF-файл билета")
	case stderrors.Is(err, model.ErrPersistence):
		WriteError(w, http.StatusInternalServerError, CodePersistenceError,
			"Не удалось сохранить изменения")
	default:
		InternalError(w, "Внутренняя ошибка сервера")
	}
}
