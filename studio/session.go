// studio/session.go
package studio

import (
	"fmt"
	"sync"

	"github.com/ViniZap4/saga-studio/domain"
)

// Session tracks which top-level module is active.
type Session struct {
	mu     sync.RWMutex
	active domain.ModuleKey
}

func NewSession() *Session {
	return &Session{active: domain.ModuleDashboard}
}

func (s *Session) Active() domain.ModuleKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Switch selects module. It has no other side effect.
func (s *Session) Switch(module domain.ModuleKey) error {
	if !module.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	s.mu.Lock()
	s.active = module
	s.mu.Unlock()
	return nil
}
