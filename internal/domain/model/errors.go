// errors.go — доменная таксономия ошибок Ticket Wallet.
// Базовые слои возвращают ошибки, обёрнутые над этими sentinel-значениями
// (fmt.Errorf с %w); проверка — через errors.Is. В пользовательский вывод
// ошибки превращает только API-слой.
package model

import "errors"

var (
	// ErrValidation — некорректные входные данные, состояние не изменено.
	ErrValidation = errors.New("ошибка валидации")
	// ErrNotFound — запись с указанным id отсутствует.
	ErrNotFound = errors.New("запись не найдена")
	// ErrAttachmentIO — ошибка чтения/записи PDF-вложения.
	ErrAttachmentIO = errors.New("ошибка ввода-вывода вложения")
	// ErrAttachmentMissing — запись есть, но содержимое вложения утрачено.
	ErrAttachmentMissing = errors.New("вложение утрачено")
	// ErrPersistence — ошибка чтения/записи коллекции в хранилище.
	ErrPersistence = errors.New("ошибка хранилища")
)
