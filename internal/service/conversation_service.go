package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"therapy-chat/internal/domain"
	"therapy-chat/internal/repository"
)

var (
	ErrConversationNotConfigured = errors.New("conversation service not configured")
	ErrDisclaimerNotAccepted     = errors.New("disclaimer not accepted")
	ErrEmptyMessage              = errors.New("empty message")
	ErrReplyPending              = errors.New("reply pending")
	ErrRateLimited               = errors.New("rate limited")
	ErrSessionNotFound           = errors.New("session not found")
)

const (
	EventMessage = "message"
	EventTyping  = "typing"
	EventState   = "state"

	subscriberBuffer  = 16
	replyStoreTimeout = 5 * time.Second
)

// Event se publica a los suscriptores de una sesión (por ejemplo el WebSocket).
type Event struct {
	Type    string                `json:"type"`
	Message *domain.Message       `json:"message,omitempty"`
	State   domain.EmotionalState `json:"state,omitempty"`
	Typing  bool                  `json:"typing"`
}

// PendingReply representa la respuesta del asistente programada tras el retardo fijo.
type PendingReply struct {
	UserMessage domain.Message
	State       domain.EmotionalState

	done  chan struct{}
	reply domain.Message
	err   error
}

func newPendingReply() *PendingReply {
	return &PendingReply{done: make(chan struct{})}
}

// Wait bloquea hasta la respuesta; ctx solo acota la espera, nunca cancela la respuesta.
func (p *PendingReply) Wait(ctx context.Context) (domain.Message, error) {
	select {
	case <-p.done:
		return p.reply, p.err
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

func (p *PendingReply) complete(reply domain.Message, err error) {
	p.reply = reply
	p.err = err
	close(p.done)
}

// ConversationService orquesta clasificador, generador de respuestas y almacenamiento.
type ConversationService struct {
	logger     *zap.Logger
	sessions   repository.SessionRepository
	messages   repository.MessageRepository
	classifier Classifier
	responder  ResponseGenerator
	limiter    MessageRateLimiter
	delay      time.Duration
	ttl        time.Duration

	afterFunc func(d time.Duration, f func())
	now       func() time.Time

	// sessionMu serializa lecturas-modificaciones de sesiones.
	sessionMu sync.Mutex

	mu          sync.Mutex
	pending     map[string]*PendingReply
	subscribers map[string]map[int]chan Event
	nextSubID   int
}

func NewConversationService(
	logger *zap.Logger,
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	classifier Classifier,
	responder ResponseGenerator,
	limiter MessageRateLimiter,
	delay time.Duration,
	ttl time.Duration,
) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay < 0 {
		delay = 0
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ConversationService{
		logger:     logger,
		sessions:   sessions,
		messages:   messages,
		classifier: classifier,
		responder:  responder,
		limiter:    limiter,
		delay:      delay,
		ttl:        ttl,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		now:         time.Now,
		pending:     make(map[string]*PendingReply),
		subscribers: make(map[string]map[int]chan Event),
	}
}

func (s *ConversationService) configured() bool {
	return s != nil && s.sessions != nil && s.messages != nil
}

// StartSession abre una conversación nueva con el saludo inicial.
func (s *ConversationService) StartSession(ctx context.Context, acceptDisclaimer bool) (domain.Session, []domain.Message, error) {
	if !s.configured() {
		return domain.Session{}, nil, ErrConversationNotConfigured
	}
	if !acceptDisclaimer {
		return domain.Session{}, nil, ErrDisclaimerNotAccepted
	}

	now := s.now().UTC()
	session := domain.Session{
		ID:                   uuid.NewString(),
		DisclaimerAcceptedAt: now,
		CurrentState:         domain.StateCalm,
		CreatedAt:            now,
		ExpiresAt:            now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, nil, fmt.Errorf("create session: %w", err)
	}

	greeting, err := s.messages.Append(ctx, domain.Message{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		Content:     GreetingMessage,
		Sender:      domain.SenderAssistant,
		Timestamp:   now,
		TherapyMode: domain.ModePtr(domain.ModeSupportive),
	})
	if err != nil {
		// La sesión queda sin saludo; nadie recibió su token y expira con el TTL.
		s.logger.Error("greeting append failed, session left to expire",
			zap.Error(err),
			zap.String("session_id", session.ID),
			zap.Time("expires_at", session.ExpiresAt),
		)
		return domain.Session{}, nil, fmt.Errorf("append greeting: %w", err)
	}

	s.logger.Info("session started", zap.String("session_id", session.ID))
	return session, []domain.Message{greeting}, nil
}

// Session devuelve la sesión si existe y no expiró.
func (s *ConversationService) Session(ctx context.Context, sessionID string) (domain.Session, error) {
	if !s.configured() {
		return domain.Session{}, ErrConversationNotConfigured
	}
	return s.loadSession(ctx, strings.TrimSpace(sessionID))
}

// History devuelve los mensajes en orden de inserción.
func (s *ConversationService) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if !s.configured() {
		return nil, ErrConversationNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// SetEmergencyPanel guarda el toggle del panel de recursos de emergencia.
func (s *ConversationService) SetEmergencyPanel(ctx context.Context, sessionID string, show bool) (domain.Session, error) {
	if !s.configured() {
		return domain.Session{}, ErrConversationNotConfigured
	}
	return s.updateSession(ctx, strings.TrimSpace(sessionID), func(session *domain.Session) {
		session.ShowEmergency = show
	})
}

// Send agrega el mensaje del usuario y programa la respuesta del asistente.
// Texto vacío o solo espacios no produce ningún cambio.
func (s *ConversationService) Send(ctx context.Context, sessionID, text string) (*PendingReply, error) {
	if !s.configured() {
		return nil, ErrConversationNotConfigured
	}
	content := strings.TrimSpace(text)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	sessionID = strings.TrimSpace(sessionID)
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return nil, err
	}

	// Reserva el turno antes de consultar al limitador, fuera de s.mu.
	s.mu.Lock()
	if _, busy := s.pending[sessionID]; busy {
		s.mu.Unlock()
		return nil, ErrReplyPending
	}
	pending := newPendingReply()
	s.pending[sessionID] = pending
	s.mu.Unlock()

	if !s.allowSend(ctx, sessionID) {
		s.clearPending(sessionID)
		return nil, ErrRateLimited
	}

	state := s.classifier.Classify(content)
	userMsg, err := s.messages.Append(ctx, domain.Message{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		Content:        content,
		Sender:         domain.SenderUser,
		Timestamp:      s.now().UTC(),
		EmotionalState: domain.StatePtr(state),
	})
	if err != nil {
		s.clearPending(sessionID)
		return nil, fmt.Errorf("append user message: %w", err)
	}
	pending.UserMessage = userMsg
	pending.State = state

	// El mensaje ya está guardado: la respuesta se programa aunque falle la actualización.
	if _, err := s.updateSession(ctx, sessionID, func(session *domain.Session) {
		session.CurrentState = state
		session.ReplyPending = true
	}); err != nil {
		s.logger.Warn("session state update failed", zap.Error(err), zap.String("session_id", sessionID))
	}

	s.logger.Info("user message received",
		zap.String("session_id", sessionID),
		zap.String("emotional_state", string(state)),
	)
	s.publish(sessionID, Event{Type: EventMessage, Message: &userMsg})
	s.publish(sessionID, Event{Type: EventState, State: state})
	s.publish(sessionID, Event{Type: EventTyping, Typing: true})

	s.afterFunc(s.delay, func() {
		s.deliverReply(sessionID, state, pending)
	})
	return pending, nil
}

// allowSend falla abierto: si el limitador no responde, el mensaje pasa.
func (s *ConversationService) allowSend(ctx context.Context, sessionID string) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allow(ctx, sessionID)
	if err != nil {
		s.logger.Warn("rate limiter unavailable, allowing message", zap.Error(err), zap.String("session_id", sessionID))
		return true
	}
	if !ok {
		s.logger.Info("message rate limited", zap.String("session_id", sessionID))
	}
	return ok
}

func (s *ConversationService) deliverReply(sessionID string, state domain.EmotionalState, pending *PendingReply) {
	ctx, cancel := context.WithTimeout(context.Background(), replyStoreTimeout)
	defer cancel()

	reply := s.responder.Generate(state)
	msg, err := s.messages.Append(ctx, domain.Message{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		Content:        reply.Content,
		Sender:         domain.SenderAssistant,
		Timestamp:      s.now().UTC(),
		EmotionalState: domain.StatePtr(state),
		TherapyMode:    domain.ModePtr(reply.Mode),
	})
	if err != nil {
		s.logger.Error("append assistant reply failed", zap.Error(err), zap.String("session_id", sessionID))
		err = fmt.Errorf("append assistant reply: %w", err)
	}

	if _, uerr := s.updateSession(ctx, sessionID, func(session *domain.Session) {
		session.ReplyPending = false
	}); uerr != nil {
		s.logger.Warn("session pending flag reset failed", zap.Error(uerr), zap.String("session_id", sessionID))
	}
	s.clearPending(sessionID)

	if err == nil {
		s.publish(sessionID, Event{Type: EventMessage, Message: &msg})
		s.logger.Info("assistant reply sent",
			zap.String("session_id", sessionID),
			zap.String("therapy_mode", string(reply.Mode)),
		)
	}
	s.publish(sessionID, Event{Type: EventTyping, Typing: false})
	pending.complete(msg, err)
}

// Subscribe registra un canal de eventos para la sesión; cancel lo libera.
func (s *ConversationService) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	if s == nil {
		close(ch)
		return ch, func() {}
	}
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	if s.subscribers[sessionID] == nil {
		s.subscribers[sessionID] = make(map[int]chan Event)
	}
	s.subscribers[sessionID][id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if subs, ok := s.subscribers[sessionID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(s.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// publish nunca bloquea: un suscriptor lento pierde eventos.
func (s *ConversationService) publish(sessionID string, evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers[sessionID] {
		select {
		case ch <- evt:
		default:
			s.logger.Warn("subscriber event dropped",
				zap.String("session_id", sessionID),
				zap.Int("subscriber", id),
				zap.String("type", evt.Type),
			)
		}
	}
}

func (s *ConversationService) clearPending(sessionID string) {
	s.mu.Lock()
	delete(s.pending, sessionID)
	s.mu.Unlock()
}

func (s *ConversationService) loadSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if sessionID == "" {
		return domain.Session{}, ErrSessionNotFound
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	if session.Expired(s.now().UTC()) {
		return domain.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *ConversationService) updateSession(ctx context.Context, sessionID string, mutate func(*domain.Session)) (domain.Session, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	mutate(&session)
	if err := s.sessions.Update(ctx, session); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("update session %s: %w", sessionID, err)
	}
	return session, nil
}
