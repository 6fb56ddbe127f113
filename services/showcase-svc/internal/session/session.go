// Package session хранит реестр демонстрационных сессий. Каждая сессия
// владеет собственным оркестратором; неактивные сессии убираются фоновым
// janitor-ом по TTL.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"resonance/pkg/apperror"
	"resonance/pkg/cache"
	"resonance/pkg/config"
	"resonance/pkg/logger"
	"resonance/pkg/metrics"
	"resonance/services/showcase-svc/internal/orchestrator"
)

// Session демонстрационная сессия
type Session struct {
	ID           string
	Orchestrator *orchestrator.Orchestrator
	CreatedAt    time.Time

	mu         sync.Mutex
	lastAccess time.Time
}

// Touch обновляет время последней активности
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

// LastAccess возвращает время последней активности
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Manager реестр сессий с TTL-уборкой
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg        config.ShowcaseConfig
	solver     orchestrator.SubsetSolver
	solveCache *cache.SolveCache
	metrics    *metrics.Metrics

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager создаёт реестр и запускает фоновую уборку
func NewManager(cfg config.ShowcaseConfig, solver orchestrator.SubsetSolver, solveCache *cache.SolveCache) *Manager {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}

	m := &Manager{
		sessions:   make(map[string]*Session),
		cfg:        cfg,
		solver:     solver,
		solveCache: solveCache,
		metrics:    metrics.Get(),
		stop:       make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Create регистрирует новую сессию
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.cfg.MaxSessions {
		return nil, apperror.New(apperror.CodeSessionLimit, "session limit reached")
	}

	now := time.Now()
	s := &Session{
		ID:           uuid.New().String(),
		Orchestrator: orchestrator.New(m.cfg, m.solver, m.solveCache),
		CreatedAt:    now,
		lastAccess:   now,
	}
	m.sessions[s.ID] = s

	m.metrics.SessionsCreatedTotal.Inc()
	m.metrics.SessionsActive.Set(float64(len(m.sessions)))
	logger.WithSession(s.ID).Info("Session created")
	return s, nil
}

// Get возвращает сессию и продлевает её жизнь. Истёкшая сессия удаляется
// на месте и отличается от несуществующей кодом ошибки.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	if time.Since(s.LastAccess()) > m.cfg.SessionTTL {
		m.remove(id)
		return nil, apperror.NewWithField(apperror.CodeSessionExpired, "session expired", "session_id")
	}

	s.Touch()
	return s, nil
}

// Delete удаляет сессию. Отсутствие сессии не считается ошибкой.
func (m *Manager) Delete(id string) {
	m.remove(id)
}

// Count текущее число сессий
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close останавливает уборку и сбрасывает все сессии
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Orchestrator.Reset()
		delete(m.sessions, id)
	}
	m.metrics.SessionsActive.Set(0)
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}
	s.Orchestrator.Reset()
	delete(m.sessions, id)
	m.metrics.SessionsActive.Set(float64(len(m.sessions)))
}

// janitor периодически убирает истёкшие сессии
func (m *Manager) janitor() {
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.cfg.SessionTTL)

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastAccess().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		m.sessions[id].Orchestrator.Reset()
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if len(expired) > 0 {
		m.metrics.SessionsActive.Set(float64(count))
		logger.Log.Info("Expired sessions removed", "count", len(expired))
	}
}
