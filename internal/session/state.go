// Package session establishes, on start-up and on every auth transition, a
// consistent (session, user, profile) triple. The State container is the
// single source of truth the rest of the application reads; only the
// bootstrap protocol and the profile guard write to it.
package session

import (
	"context"
	"sync"

	"usemy/internal/auth"
	"usemy/internal/profile"
)

// Snapshot is a consistent read of the bootstrap state.
type Snapshot struct {
	Session *auth.Session
	User    *auth.User
	Profile *profile.Profile
	Loading bool
}

// State holds the authoritative bootstrap state. It starts loading; exactly
// one Resolve call performs the loading→false transition, after which later
// signals update the session but can never flip loading back.
//
// All mutation goes through the narrow API below — Resolve, SetProfile,
// Clear — so the stale-callback discipline lives in one place.
type State struct {
	mu      sync.RWMutex
	session *auth.Session
	profile *profile.Profile
	loading bool

	resolveOnce sync.Once
	resolved    chan struct{}
}

func NewState() *State {
	return &State{
		loading:  true,
		resolved: make(chan struct{}),
	}
}

// Resolve installs the session (possibly nil) and ends loading. It reports
// whether this call performed the first loading→false transition. A nil
// session clears the profile synchronously; a session for a different user
// than the held profile drops the now-stale profile.
func (s *State) Resolve(sess *auth.Session) bool {
	s.mu.Lock()
	first := s.loading
	s.loading = false
	s.session = sess
	if sess == nil {
		s.profile = nil
	} else if s.profile != nil && s.profile.ID != sess.UserID {
		s.profile = nil
	}
	s.mu.Unlock()

	if first {
		s.markResolved()
	}
	return first
}

// ResolveTimeout forces the loading→false transition with no session. It is
// a no-op once the state is already resolved, so a late safety timer can
// never clobber real state.
func (s *State) ResolveTimeout() bool {
	s.mu.Lock()
	if !s.loading {
		s.mu.Unlock()
		return false
	}
	s.loading = false
	s.session = nil
	s.profile = nil
	s.mu.Unlock()

	s.markResolved()
	return true
}

// SetProfile applies a loaded profile if it still matches the live session.
// Returns false when the session is gone or belongs to a different user —
// the stale result is discarded. Last write wins between concurrent loads
// for the same user.
func (s *State) SetProfile(p *profile.Profile) bool {
	if p == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.UserID != p.ID {
		return false
	}
	s.profile = p
	return true
}

// Clear drops session and profile together (sign-out, invariant violation).
// It also counts as a resolution: a cleared state is a decided one.
func (s *State) Clear() {
	s.mu.Lock()
	s.session = nil
	s.profile = nil
	s.loading = false
	s.mu.Unlock()
	s.markResolved()
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Loading: s.loading}
	if s.session != nil {
		sess := *s.session
		snap.Session = &sess
		user := sess.User()
		snap.User = &user
	}
	if s.profile != nil {
		p := *s.profile
		snap.Profile = &p
	}
	return snap
}

// Resolved is closed once loading has ended, however it ended.
func (s *State) Resolved() <-chan struct{} {
	return s.resolved
}

// WaitResolved blocks until loading ends or ctx is done, and reports whether
// the state resolved in time.
func (s *State) WaitResolved(ctx context.Context) bool {
	select {
	case <-s.resolved:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *State) markResolved() {
	s.resolveOnce.Do(func() { close(s.resolved) })
}
