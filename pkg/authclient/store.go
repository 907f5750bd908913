package authclient

import (
	"sync"

	"packly/pkg/ability"
)

// Ability is the queryable object rebuilt from a permission snapshot.
type Ability struct {
	rules ability.RuleSet
}

// Can reports whether the action+subject pair is ever permitted. Scope and
// ownership stay server-enforced; this answer is for UI gating only.
func (a *Ability) Can(action ability.Action, subject ability.Subject) bool {
	if a == nil {
		return false
	}
	return a.rules.Can(action, subject)
}

// Rules returns the underlying snapshot.
func (a *Ability) Rules() ability.RuleSet {
	if a == nil {
		return nil
	}
	return a.rules
}

// PermissionStore holds the permission rules delivered at login/me time.
// The only mutation paths are SetPermissions and ClearPermissions; the
// derived Ability is memoized per snapshot and rebuilt only when the
// snapshot is replaced.
type PermissionStore struct {
	mu          sync.RWMutex
	permissions ability.RuleSet
	version     uint64

	cached        *Ability
	cachedVersion uint64
}

func NewPermissionStore() *PermissionStore {
	return &PermissionStore{}
}

// SetPermissions replaces the snapshot wholesale. The rules are copied so a
// later mutation of the caller's slice cannot change the store in place.
func (s *PermissionStore) SetPermissions(rules ability.RuleSet) {
	snapshot := make(ability.RuleSet, len(rules))
	copy(snapshot, rules)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions = snapshot
	s.version++
}

// ClearPermissions resets the snapshot to empty.
func (s *PermissionStore) ClearPermissions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions = nil
	s.version++
}

// Permissions returns the current snapshot.
func (s *PermissionStore) Permissions() ability.RuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.permissions
}

// Ability returns the derived ability object, rebuilding it only when the
// snapshot has been replaced since the last call.
func (s *PermissionStore) Ability() *Ability {
	s.mu.RLock()
	if s.cached != nil && s.cachedVersion == s.version {
		cached := s.cached
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil || s.cachedVersion != s.version {
		s.cached = &Ability{rules: s.permissions}
		s.cachedVersion = s.version
	}
	return s.cached
}
