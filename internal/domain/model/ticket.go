// Пакет model — доменные структуры Ticket Wallet.
package model

import "time"

// Platform — способ хранения PDF-вложения билета.
type Platform string

const (
	// PlatformNative — PDF лежит файлом в директории вложений.
	PlatformNative Platform = "native"
	// PlatformWeb — PDF хранится base64-строкой внутри самой записи.
	PlatformWeb Platform = "web"
)

// TicketRecord — запись о билете: событие плюс ссылка на PDF-вложение.
// Ровно один из вариантов вложения заполнен: PDFURI (native) или
// PDFBase64 (web). Вариант фиксируется при создании и не меняется.
//
// Имена JSON-полей — формат хранения и API одновременно: вся коллекция
// сериализуется одним JSON-массивом под одним ключом KV-хранилища.
type TicketRecord struct {
	// ID — уникальный идентификатор записи (миллисекундный timestamp-токен).
	ID string `json:"id"`
	// EventName — название события.
	EventName string `json:"eventName"`
	// EventLocal — место проведения.
	EventLocal string `json:"eventLocal"`
	// EventDate — дата события, нормализована к полуночи UTC.
	EventDate time.Time `json:"eventDate"`
	// PDFOriginalName — имя файла, выбранного пользователем.
	PDFOriginalName string `json:"pdfOriginalName"`
	// Platform — вариант хранения вложения (native или web).
	Platform Platform `json:"platform"`
	// PDFURI — имя файла в директории вложений (только native).
	PDFURI string `json:"pdfUri,omitempty"`
	// PDFBase64 — содержимое PDF в base64 (только web).
	PDFBase64 string `json:"pdfBase64,omitempty"`
}

// NormalizeEventDate приводит дату события к полуночи UTC.
// Время суток и часовой пояс входного значения отбрасываются.
func NormalizeEventDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameEventDay сравнивает две даты событий по календарному дню UTC,
// игнорируя время суток.
func SameEventDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
