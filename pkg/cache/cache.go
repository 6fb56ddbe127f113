// Package cache хранит результаты удалённого решателя между запросами.
// Интерфейс намеренно узкий: решателю нужны точные чтения/записи и
// инвалидация по префиксу ключа, ничего больше.
package cache

import (
	"context"
	"errors"
	"time"

	"resonance/pkg/config"
)

// Поддерживаемые backend'ы
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	// ErrKeyNotFound ключ отсутствует или истёк
	ErrKeyNotFound = errors.New("key not found")
	// ErrCacheClosed операция над закрытым кэшем
	ErrCacheClosed = errors.New("cache is closed")
)

// Cache операции, которые реально использует слой решения
type Cache interface {
	// Get возвращает значение по ключу или ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Set сохраняет значение; ttl <= 0 означает TTL по умолчанию
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete удаляет ключ; отсутствие ключа не ошибка
	Delete(ctx context.Context, key string) error
	// DeleteByPattern удаляет ключи по паттерну "prefix*", возвращает число удалённых
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
	// Stats снимок статистики кэша
	Stats(ctx context.Context) (*Stats, error)
	// Close останавливает фоновые горутины и освобождает ресурсы
	Close() error
}

// Stats статистика попаданий для логов остановки и диагностики
type Stats struct {
	TotalKeys   int64
	Hits        int64
	Misses      int64
	HitRate     float64
	MemoryBytes int64
	Backend     string
}

// Options параметры создания кэша
type Options struct {
	Backend    string
	DefaultTTL time.Duration

	// Memory backend
	MaxEntries      int
	CleanupInterval time.Duration

	// Redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// DefaultOptions значения по умолчанию
func DefaultOptions() *Options {
	return &Options{
		Backend:         BackendMemory,
		DefaultTTL:      5 * time.Minute,
		MaxEntries:      10000,
		CleanupInterval: 1 * time.Minute,
		RedisAddr:       "localhost:6379",
		RedisDB:         0,
		RedisPoolSize:   10,
	}
}

// FromConfig создаёт опции из конфигурации
func FromConfig(cfg *config.CacheConfig) *Options {
	return &Options{
		Backend:       cfg.Driver,
		DefaultTTL:    cfg.DefaultTTL,
		MaxEntries:    cfg.MaxEntries,
		RedisAddr:     cfg.Address(),
		RedisPassword: cfg.Password,
		RedisDB:       cfg.DB,
		RedisPoolSize: 10,
	}
}

// New создаёт кэш на основе опций; неизвестный backend откатывается на memory
func New(opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendRedis:
		return NewRedisCache(opts)
	default:
		return NewMemoryCache(opts), nil
	}
}

// MustNew создаёт кэш или паникует
func MustNew(opts *Options) Cache {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}
