package session

import (
	"sync"

	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/pkg/errors"
)

// RegistryFactory builds a fresh tool registry for a new session.
type RegistryFactory func() (*tools.Registry, error)

// Manager hosts several independent sessions. Each gets its own Memory and
// its own Registry, built by the factory.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	base     Options
	registry RegistryFactory
}

func NewManager(base Options, registry RegistryFactory) *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		base:     base,
		registry: registry,
	}
}

func (m *Manager) Create() (*Session, error) {
	opts := m.base
	opts.Registry = nil
	if m.registry != nil {
		reg, err := m.registry()
		if err != nil {
			return nil, errors.Wrap(err, "could not build tool registry")
		}
		opts.Registry = reg
	}

	s, err := New(opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.SessionID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session, cancelling its active turn if there is one.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		_ = s.CancelActive()
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
