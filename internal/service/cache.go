// cache.go — LRU-кэш декодированных встроенных вложений с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable. Декодирование base64
// крупного PDF при каждом открытии билета — лишняя работа; кэш держит
// последние просмотренные вложения в памяти.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tw_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш вложений.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tw_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша вложений.",
	})
)

// CacheService — LRU-кэш декодированных PDF по id билета.
type CacheService struct {
	cache *expirable.LRU[string, []byte]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[string, []byte](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает декодированное вложение по id билета.
// Возвращает (данные, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *CacheService) Get(ticketID string) ([]byte, bool) {
	val, ok := c.cache.Get(ticketID)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *CacheService) Set(ticketID string, data []byte) {
	c.cache.Add(ticketID, data)
}

// Delete удаляет запись из кэша (инвалидация при удалении билета).
func (c *CacheService) Delete(ticketID string) {
	c.cache.Remove(ticketID)
}
