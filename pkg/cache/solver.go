package cache

import (
	"context"
	"encoding/json"
	"time"
)

// SolveCache специализированный кэш для результатов удалённого решателя subset-sum
type SolveCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedSolveResult кэшированный результат решения
type CachedSolveResult struct {
	Indices     []int     `json:"indices"`
	AchievedSum int64     `json:"achieved_sum"`
	Satisfied   bool      `json:"satisfied"`
	SolverID    string    `json:"solver_id,omitempty"`
	DurationMs  float64   `json:"duration_ms"`
	ComputedAt  time.Time `json:"computed_at"`
}

// NewSolveCache создаёт кэш для результатов решателя
func NewSolveCache(cache Cache, defaultTTL time.Duration) *SolveCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolveCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get получает кэшированный результат для экземпляра subset-sum
func (sc *SolveCache) Get(ctx context.Context, weights []int64, target int64) (*CachedSolveResult, bool, error) {
	key := BuildSolveKey("subset_sum", SubsetSumHash(weights, target))

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedSolveResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Повреждённый кэш — удаляем, ошибку удаления игнорируем намеренно
		_ = sc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// Set сохраняет результат в кэш
func (sc *SolveCache) Set(ctx context.Context, weights []int64, target int64, result *CachedSolveResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	key := BuildSolveKey("subset_sum", SubsetSumHash(weights, target))

	result.ComputedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, key, data, ttl)
}

// Invalidate удаляет кэш для экземпляра
func (sc *SolveCache) Invalidate(ctx context.Context, weights []int64, target int64) error {
	key := BuildSolveKey("subset_sum", SubsetSumHash(weights, target))
	return sc.cache.Delete(ctx, key)
}

// InvalidateAll удаляет весь кэш результатов решателя
func (sc *SolveCache) InvalidateAll(ctx context.Context) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, "solve:subset_sum:*")
}
