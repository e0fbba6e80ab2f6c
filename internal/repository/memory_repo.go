package repository

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"therapy-chat/internal/domain"
)

// MemoryStore guarda sesiones y mensajes en memoria del proceso.
// Implementa SessionRepository y MessageRepository. Una sesión vencida se
// descarta junto con su transcripción, al leerla o en el barrido periódico.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	messages map[string][]domain.Message
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]domain.Session),
		messages: make(map[string][]domain.Message),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.liveLocked(id)
	if !ok {
		return domain.Session{}, ErrNotFound
	}
	return session, nil
}

func (s *MemoryStore) Update(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liveLocked(session.ID); !ok {
		return ErrNotFound
	}
	s.sessions[session.ID] = session
	return nil
}

// Append rechaza sesiones inexistentes o vencidas para no resucitar transcripciones barridas.
func (s *MemoryStore) Append(_ context.Context, message domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liveLocked(message.SessionID); !ok {
		return domain.Message{}, ErrNotFound
	}
	list := s.messages[message.SessionID]
	message.Seq = int64(len(list)) + 1
	s.messages[message.SessionID] = append(list, message)
	return message, nil
}

func (s *MemoryStore) ListBySessionID(_ context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liveLocked(sessionID); !ok {
		return []domain.Message{}, nil
	}
	list := s.messages[sessionID]
	out := make([]domain.Message, len(list))
	copy(out, list)
	return out, nil
}

// SweepExpired elimina las sesiones vencidas y sus mensajes; devuelve cuántas borró.
func (s *MemoryStore) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	removed := 0
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			delete(s.messages, id)
			removed++
		}
	}
	return removed
}

// RunJanitor barre cada interval hasta que ctx se cancele.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepExpired(); n > 0 {
				logger.Info("expired sessions evicted", zap.Int("count", n))
			}
		}
	}
}

// liveLocked devuelve la sesión si sigue vigente; si venció la borra. Requiere s.mu.
func (s *MemoryStore) liveLocked(id string) (domain.Session, bool) {
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	if session.Expired(s.now().UTC()) {
		delete(s.sessions, id)
		delete(s.messages, id)
		return domain.Session{}, false
	}
	return session, true
}
