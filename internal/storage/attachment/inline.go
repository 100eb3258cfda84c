// inline.go — встроенное хранилище вложений (режим inline).
// PDF кодируется в base64 и живёт внутри самой записи билета,
// отдельных файлов не создаётся.
package attachment

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/bigkaa/ticketwallet/internal/domain/model"
)

// InlineStore кодирует вложения в base64-строку (Ref.Data).
type InlineStore struct {
	// maxSize — максимальный размер PDF в байтах (0 = без лимита)
	maxSize int64
	logger  *slog.Logger
}

// NewInlineStore создаёт InlineStore.
func NewInlineStore(maxSize int64, logger *slog.Logger) *InlineStore {
	return &InlineStore{
		maxSize: maxSize,
		logger:  logger.With(slog.String("component", "attachment")),
	}
}

// Ingest читает содержимое целиком и кодирует в base64.
func (s *InlineStore) Ingest(reader io.Reader, originalName string) (*Ref, error) {
	if reader == nil {
		return nil, fmt.Errorf("%w: источник вложения не задан", model.ErrAttachmentIO)
	}

	src := reader
	if s.maxSize > 0 {
		src = io.LimitReader(reader, s.maxSize+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения вложения: %v", model.ErrAttachmentIO, err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: размер вложения превышает лимит %d байт", model.ErrValidation, s.maxSize)
	}

	s.logger.Debug("Вложение закодировано",
		slog.String("original_name", originalName),
		slog.Int("size", len(data)),
	)

	return &Ref{
		Kind:         KindInline,
		Data:         base64.StdEncoding.EncodeToString(data),
		OriginalName: originalName,
	}, nil
}

// Release — no-op: встроенное вложение исчезает вместе с записью.
func (s *InlineStore) Release(_ *Ref) error {
	return nil
}

// Materialize декодирует base64-содержимое вложения.
func (s *InlineStore) Materialize(ref *Ref) (*Resource, error) {
	if ref == nil || ref.Data == "" {
		return nil, fmt.Errorf("%w: пустое встроенное вложение", model.ErrAttachmentMissing)
	}

	data, err := base64.StdEncoding.DecodeString(ref.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: повреждённое base64-содержимое: %v", model.ErrAttachmentIO, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: встроенное вложение пустое", model.ErrAttachmentMissing)
	}

	return &Resource{
		OriginalName: ref.OriginalName,
		Size:         int64(len(data)),
		Bytes:        data,
	}, nil
}

var _ Store = (*InlineStore)(nil)
