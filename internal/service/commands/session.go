package commands

import (
	"sync"

	"github.com/mamadbah2/feedplanner/internal/domain/models"
)

// SessionManager remembers the last plan computed for each sender so follow-up
// commands can refer to it.
type SessionManager struct {
	plans map[string]models.FeedPlan
	mu    sync.RWMutex
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		plans: make(map[string]models.FeedPlan),
	}
}

// LastPlan retrieves the most recent plan of a sender.
func (sm *SessionManager) LastPlan(sender string) (models.FeedPlan, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	plan, ok := sm.plans[sender]
	return plan, ok
}

// Remember stores the plan as the sender's most recent one.
func (sm *SessionManager) Remember(sender string, plan models.FeedPlan) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.plans[sender] = plan
}

// Clear removes a sender's session.
func (sm *SessionManager) Clear(sender string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.plans, sender)
}
