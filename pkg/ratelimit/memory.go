package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter пер-процессный лимитер; каждому ключу своё состояние
type MemoryLimiter struct {
	mu     sync.Mutex
	states map[string]*keyState
	config *Config
	stopCh chan struct{}
	closed bool
}

type keyState struct {
	// token bucket
	tokens    float64
	lastCheck time.Time

	// sliding window: отметки времени пропущенных запросов
	requests []time.Time
}

// NewMemoryLimiter создаёт in-memory лимитер и запускает фоновую уборку
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &MemoryLimiter{
		states: make(map[string]*keyState),
		config: cfg,
		stopCh: make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, ErrLimiterClosed
	}

	s, ok := l.states[key]
	if !ok {
		s = &keyState{
			tokens:    float64(l.config.Requests + l.config.BurstSize),
			lastCheck: time.Now(),
		}
		l.states[key] = s
	}

	if l.config.Strategy == "token_bucket" {
		return l.takeToken(s), nil
	}
	return l.takeWindowSlot(s), nil
}

func (l *MemoryLimiter) takeToken(s *keyState) bool {
	now := time.Now()
	elapsed := now.Sub(s.lastCheck)
	s.lastCheck = now

	rate := float64(l.config.Requests) / l.config.Window.Seconds()
	s.tokens += elapsed.Seconds() * rate

	maxTokens := float64(l.config.Requests + l.config.BurstSize)
	if s.tokens > maxTokens {
		s.tokens = maxTokens
	}

	if s.tokens >= 1 {
		s.tokens--
		return true
	}

	return false
}

func (l *MemoryLimiter) takeWindowSlot(s *keyState) bool {
	now := time.Now()
	s.requests = pruneBefore(s.requests, now.Add(-l.config.Window))

	if len(s.requests) < l.config.Requests {
		s.requests = append(s.requests, now)
		return true
	}

	return false
}

func (l *MemoryLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.states, key)
	return nil
}

func (l *MemoryLimiter) GetInfo(ctx context.Context, key string) (*LimitInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	info := &LimitInfo{
		Limit:   l.config.Requests,
		ResetAt: now.Add(l.config.Window),
	}

	s, ok := l.states[key]
	if !ok {
		info.Remaining = l.config.Requests
		return info, nil
	}

	if l.config.Strategy == "token_bucket" {
		info.Remaining = int(s.tokens)
	} else {
		active := pruneBefore(s.requests, now.Add(-l.config.Window))
		info.Remaining = l.config.Requests - len(active)
		// До выхода старейшего запроса из окна лимит не восстановится
		if info.Remaining <= 0 && len(active) > 0 {
			info.RetryAfter = active[0].Add(l.config.Window).Sub(now)
			info.ResetAt = active[0].Add(l.config.Window)
		}
	}

	if info.Remaining < 0 {
		info.Remaining = 0
	}

	return info, nil
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.stopCh)
	l.states = nil

	return nil
}

func (l *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.dropIdleKeys()
		}
	}
}

// dropIdleKeys удаляет ключи без активности за два окна, чтобы карта
// не росла неограниченно под шумом уникальных клиентов
func (l *MemoryLimiter) dropIdleKeys() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.config.Window * 2)

	for key, s := range l.states {
		s.requests = pruneBefore(s.requests, cutoff)
		if len(s.requests) == 0 && s.lastCheck.Before(cutoff) {
			delete(l.states, key)
		}
	}
}

// pruneBefore отбрасывает отметки старше cutoff; срез отсортирован по времени
func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(times) && !times[idx].After(cutoff) {
		idx++
	}
	return times[idx:]
}
