// memstore.go — in-memory реализация Store для тестов.
package kvstore

import "sync"

// MemStore — потокобезопасное хранилище в памяти с инъекцией ошибок.
// GetErr/SetErr позволяют тестировать пути отказа хранилища.
type MemStore struct {
	mu     sync.Mutex
	values map[string]string

	// GetErr возвращается каждым вызовом Get, если не nil.
	GetErr error
	// SetErr возвращается каждым вызовом Set, если не nil.
	SetErr error
}

// NewMemStore создаёт пустой MemStore.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

// Get возвращает значение ключа из памяти.
func (s *MemStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.GetErr != nil {
		return "", false, s.GetErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// Set записывает значение ключа в память.
func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SetErr != nil {
		return s.SetErr
	}
	s.values[key] = value
	return nil
}

// Проверка контракта на этапе компиляции
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemStore)(nil)
)
