package dialogue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
	"github.com/seu-repo/voice-order-assistant/internal/ports"
)

const completionErrorTemplate = "عذراً، حدث خطأ أثناء معالجة طلبك: %v"

type session struct {
	// lock is a one-slot semaphore so waiters can give up on ctx.
	lock    chan struct{}
	history []domain.Turn
}

// Manager owns the conversation history of every user.
// Turns for the same user are serialized; different users never contend.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*session
	completer ports.Completer
	maxTurns  int
	log       *zap.Logger
}

type Option func(*Manager)

// WithMaxTurns keeps only the most recent n user/assistant pairs. Zero keeps everything.
func WithMaxTurns(n int) Option {
	return func(m *Manager) { m.maxTurns = n }
}

func NewManager(completer ports.Completer, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		sessions:  make(map[string]*session),
		completer: completer,
		log:       log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func resolveUser(userID string) string {
	if userID == "" {
		return domain.DefaultUserID
	}
	return userID
}

func (s *session) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) release() { <-s.lock }

func (m *Manager) existing(userID string) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *Manager) session(userID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		s = &session{lock: make(chan struct{}, 1)}
		m.sessions[userID] = s
		telemetry.ActiveSessions.Set(float64(len(m.sessions)))
	}
	return s
}

// StartOrContinue runs one completion for userID and records the user turn and reply together.
// A completion failure becomes the reply text. A cancelled ctx leaves the history untouched.
func (m *Manager) StartOrContinue(ctx context.Context, userID, input string) (string, []domain.Turn, error) {
	userID = resolveUser(userID)
	s := m.session(userID)

	if err := s.acquire(ctx); err != nil {
		return "", nil, err
	}
	defer s.release()

	prior := append([]domain.Turn(nil), s.history...)

	start := time.Now()
	reply, err := m.completer.Complete(ctx, prior, input)
	telemetry.CompletionLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			m.log.Warn("Turn cancelled before completion",
				zap.String("user_id", userID),
				zap.Error(ctxErr),
			)
			return "", nil, ctxErr
		}
		m.log.Error("Completion failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		reply = fmt.Sprintf(completionErrorTemplate, err)
	}

	s.history = append(s.history,
		domain.Turn{Role: domain.RoleUser, Text: input},
		domain.Turn{Role: domain.RoleAssistant, Text: reply},
	)
	if m.maxTurns > 0 && len(s.history) > 2*m.maxTurns {
		s.history = append([]domain.Turn(nil), s.history[len(s.history)-2*m.maxTurns:]...)
	}

	return reply, append([]domain.Turn(nil), s.history...), nil
}

// Clear empties the history for userID. Unknown users are a no-op. It waits for
// an in-flight turn of the same user to finish, or for ctx to end.
func (m *Manager) Clear(ctx context.Context, userID string) error {
	userID = resolveUser(userID)
	s, ok := m.existing(userID)
	if !ok {
		return nil
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	s.history = nil
	s.release()

	m.log.Info("Conversation cleared", zap.String("user_id", userID))
	return nil
}

// History returns a copy of the recorded turns for userID, waiting like Clear.
func (m *Manager) History(ctx context.Context, userID string) ([]domain.Turn, error) {
	s, ok := m.existing(resolveUser(userID))
	if !ok {
		return []domain.Turn{}, nil
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	return append([]domain.Turn{}, s.history...), nil
}

// Sessions returns the number of users with a session.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
