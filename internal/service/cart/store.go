package cart

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// DefaultTTL — срок жизни корзины с момента последнего обращения.
const DefaultTTL = 30 * time.Minute

// sessionCart привязывает корзину к сессии и хранит момент истечения.
type sessionCart struct {
	cart      *domain.Cart
	expiresAt time.Time
}

// SessionStore раздаёт корзины по идентификатору сессии. Обращение к
// корзине продлевает её срок жизни; просроченные корзины вычищает
// CleanupWorker.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionCart
	ttl      time.Duration
}

// NewSessionStore создаёт хранилище корзин с заданным TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionStore{
		sessions: make(map[string]*sessionCart),
		ttl:      ttl,
	}
}

// Get возвращает корзину сессии, создавая пустую при первом обращении.
// Просроченная корзина заменяется новой.
func (s *SessionStore) Get(sessionID string) *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	session, ok := s.sessions[sessionID]
	if !ok || now.After(session.expiresAt) {
		session = &sessionCart{cart: domain.NewCart()}
		s.sessions[sessionID] = session
	}
	session.expiresAt = now.Add(s.ttl)
	return session.cart
}

// Clear удаляет корзину сессии.
func (s *SessionStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len возвращает число живых сессий (включая ещё не вычищенные просроченные).
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// DeleteExpired удаляет до limit корзин, просроченных к моменту before.
// Возвращает число удалённых.
func (s *SessionStore) DeleteExpired(before time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, session := range s.sessions {
		if limit > 0 && deleted >= limit {
			break
		}
		if session.expiresAt.Before(before) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}
