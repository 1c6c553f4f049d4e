package handoff

import (
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Manager keeps at most one flow per session. Flows idle for longer than the
// session TTL, or pushed out by newer sessions, are closed on eviction.
type Manager struct {
	flows  *expirable.LRU[string, *Flow]
	deps   Deps
	logger *logger.Logger
}

func NewManager(maxSessions int, ttl time.Duration, deps Deps, log *logger.Logger) *Manager {
	l := log.Named("handoff_manager")
	onEvict := func(sessionID string, f *Flow) {
		f.Close()
		l.Debug("Flow evicted", zap.String("session_id", sessionID))
	}
	return &Manager{
		flows:  expirable.NewLRU[string, *Flow](maxSessions, onEvict, ttl),
		deps:   deps,
		logger: l,
	}
}

// Open starts a new flow for p, closing whatever flow the session had.
func (m *Manager) Open(sessionID string, p domain.Posting) *Flow {
	m.flows.Remove(sessionID)
	f := NewFlow(p, m.deps, m.logger.With(zap.String("session_id", sessionID)))
	m.flows.Add(sessionID, f)
	m.logger.Info("Flow opened", zap.String("session_id", sessionID), zap.String("posting_id", p.ID))
	return f
}

// Get returns the session's flow and refreshes its TTL.
func (m *Manager) Get(sessionID string) (*Flow, error) {
	f, ok := m.flows.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNoFlow, sessionID)
	}
	m.flows.Add(sessionID, f)
	return f, nil
}

// Close closes and forgets the session's flow.
func (m *Manager) Close(sessionID string) error {
	if !m.flows.Remove(sessionID) {
		return fmt.Errorf("%w: session %s", domain.ErrNoFlow, sessionID)
	}
	return nil
}

// CloseAll closes every flow. Used on shutdown.
func (m *Manager) CloseAll() {
	m.flows.Purge()
}

func (m *Manager) Len() int {
	return m.flows.Len()
}
