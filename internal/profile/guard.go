package profile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"usemy/internal/platform/metrics"
	id "usemy/pkg/domain"
	derrors "usemy/pkg/domain-errors"
	"usemy/pkg/platform/retry"
	"usemy/pkg/platform/sentinel"
)

// StateSink is the slice of the bootstrap state the guard writes to.
// SetProfile reports whether the profile was applied; the sink refuses
// profiles that no longer match the live session so a stale fetch can never
// overwrite newer state.
type StateSink interface {
	SetProfile(p *Profile) bool
	Clear()
}

// Guard enforces the invariant "live session ⇒ existing profile".
//
// Per session lifecycle it moves NO_SESSION → PROFILE_PENDING →
// {PROFILE_OK | PROFILE_MISSING_FATAL}; the fatal branch always returns to
// NO_SESSION via forced sign-out, so the system never persists with a
// session and a confirmed-absent profile.
type Guard struct {
	store   Store
	state   StateSink
	signOut func(ctx context.Context) error
	log     *zap.Logger
	metrics *metrics.Metrics

	// loadTimeout bounds a single profile fetch. Zero means 5s.
	loadTimeout time.Duration

	// Concurrent loads for the same user collapse into one store fetch.
	group singleflight.Group
}

func NewGuard(store Store, state StateSink, signOut func(ctx context.Context) error, log *zap.Logger, m *metrics.Metrics, loadTimeout time.Duration) *Guard {
	if loadTimeout <= 0 {
		loadTimeout = 5 * time.Second
	}
	return &Guard{
		store:       store,
		state:       state,
		signOut:     signOut,
		log:         log,
		metrics:     m,
		loadTimeout: loadTimeout,
	}
}

// LoadProfile fetches the profile for userID and applies it to the state.
//
// Outcomes:
//   - record found: stored, returns (true, nil)
//   - record absent: returns (false, nil) — absence is a fact, not an error
//   - store rejected our credentials: forced sign-out, state cleared,
//     returns (false, unauthorized) — a stale token cannot self-heal
//   - timeout or transient failure: logged, returns (false, nil); the caller
//     decides whether to retry
func (g *Guard) LoadProfile(ctx context.Context, userID id.UserID) (bool, error) {
	v, err, _ := g.group.Do(userID.String(), func() (any, error) {
		// Detach from the triggering caller: other callers share this
		// flight and must not be cancelled by the first one leaving.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.loadTimeout)
		defer cancel()
		return g.store.FindByID(fctx, userID)
	})

	switch {
	case err == nil:
		p := v.(*Profile)
		if !g.state.SetProfile(p) {
			g.log.Debug("profile load discarded, session moved on",
				zap.String("user_id", userID.String()))
		}
		g.metrics.ProfileLoads.WithLabelValues(metrics.OutcomeFound).Inc()
		return true, nil

	case errors.Is(err, sentinel.ErrNotFound):
		g.metrics.ProfileLoads.WithLabelValues(metrics.OutcomeMissing).Inc()
		return false, nil

	case errors.Is(err, sentinel.ErrUnauthorized):
		g.metrics.ProfileLoads.WithLabelValues(metrics.OutcomeUnauthorized).Inc()
		g.forceSignOut(ctx, userID, "store rejected session token")
		return false, derrors.Wrap(err, derrors.CodeUnauthorized, "session is no longer valid, please sign in again")

	default:
		g.metrics.ProfileLoads.WithLabelValues(metrics.OutcomeError).Inc()
		g.log.Warn("profile load failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return false, nil
	}
}

// WaitForProfile polls for profile existence up to maxAttempts times with a
// fixed interval, short-circuiting on the first hit. Used only during
// sign-up, where the backend trigger races us to create the row.
func (g *Guard) WaitForProfile(ctx context.Context, userID id.UserID, maxAttempts int, interval time.Duration) bool {
	found, err := retry.Poll(ctx, maxAttempts, interval, func(ctx context.Context) (bool, error) {
		exists, err := g.store.Exists(ctx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrUnauthorized) {
				return false, retry.Permanent(err)
			}
			g.log.Debug("profile existence probe failed",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			return false, err
		}
		return exists, nil
	})
	if err != nil && errors.Is(err, sentinel.ErrUnauthorized) {
		g.forceSignOut(ctx, userID, "store rejected session token during sign-up wait")
		return false
	}
	return found
}

// ForceSignOut tears the session down after an invariant violation. Exposed
// for the account service, which owns the sign-in contract.
func (g *Guard) ForceSignOut(ctx context.Context, userID id.UserID, reason string) {
	g.forceSignOut(ctx, userID, reason)
}

func (g *Guard) forceSignOut(ctx context.Context, userID id.UserID, reason string) {
	g.metrics.ForcedSignOuts.Inc()
	g.log.Warn("forcing sign-out",
		zap.String("user_id", userID.String()),
		zap.String("reason", reason))
	if err := g.signOut(ctx); err != nil {
		g.log.Error("forced sign-out failed", zap.Error(err))
	}
	g.state.Clear()
}
