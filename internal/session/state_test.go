package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usemy/internal/auth"
	"usemy/internal/profile"
	id "usemy/pkg/domain"
)

func newSession(userID id.UserID) *auth.Session {
	return &auth.Session{
		AccessToken: "tok_" + userID.String(),
		UserID:      userID,
		Email:       "user@example.com",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func newProfile(userID id.UserID) *profile.Profile {
	return &profile.Profile{
		ID:       userID,
		UserType: profile.UserTypeIndividual,
		FullName: "Jean Dupont",
	}
}

func TestState_ResolveEndsLoadingOnce(t *testing.T) {
	state := NewState()
	userID := id.NewUserID()

	assert.True(t, state.Snapshot().Loading)

	first := state.Resolve(newSession(userID))
	assert.True(t, first)
	assert.False(t, state.Snapshot().Loading)

	// A later signal updates the session but is not a loading transition.
	again := state.Resolve(newSession(userID))
	assert.False(t, again)
}

func TestState_ResolveNilClearsProfileSynchronously(t *testing.T) {
	state := NewState()
	userID := id.NewUserID()

	state.Resolve(newSession(userID))
	require.True(t, state.SetProfile(newProfile(userID)))
	require.NotNil(t, state.Snapshot().Profile)

	state.Resolve(nil)
	snap := state.Snapshot()
	assert.Nil(t, snap.Session)
	assert.Nil(t, snap.Profile)
	assert.False(t, snap.Loading)
}

func TestState_SetProfileRefusesStaleResults(t *testing.T) {
	state := NewState()
	userA := id.NewUserID()
	userB := id.NewUserID()

	t.Run("no session yet", func(t *testing.T) {
		assert.False(t, state.SetProfile(newProfile(userA)))
	})

	t.Run("session for a different user", func(t *testing.T) {
		state.Resolve(newSession(userB))
		assert.False(t, state.SetProfile(newProfile(userA)))
		assert.Nil(t, state.Snapshot().Profile)
	})

	t.Run("matching session applies", func(t *testing.T) {
		assert.True(t, state.SetProfile(newProfile(userB)))
		require.NotNil(t, state.Snapshot().Profile)
		assert.Equal(t, userB, state.Snapshot().Profile.ID)
	})
}

func TestState_SessionSwitchDropsStaleProfile(t *testing.T) {
	state := NewState()
	userA := id.NewUserID()
	userB := id.NewUserID()

	state.Resolve(newSession(userA))
	require.True(t, state.SetProfile(newProfile(userA)))

	state.Resolve(newSession(userB))
	snap := state.Snapshot()
	require.NotNil(t, snap.Session)
	assert.Equal(t, userB, snap.Session.UserID)
	assert.Nil(t, snap.Profile, "profile of the previous user must not leak into the new session")
}

func TestState_ResolveTimeoutIsNoOpAfterResolution(t *testing.T) {
	state := NewState()
	userID := id.NewUserID()

	state.Resolve(newSession(userID))
	assert.False(t, state.ResolveTimeout())
	require.NotNil(t, state.Snapshot().Session, "late safety timer must not clobber a live session")
}

func TestState_IdempotentRaceResolution(t *testing.T) {
	// Feeding the two sources in either order yields the same final state.
	userID := id.NewUserID()
	sess := newSession(userID)

	pullFirst := NewState()
	pullFirst.Resolve(sess)
	pullFirst.Resolve(sess)

	pushFirst := NewState()
	pushFirst.Resolve(sess)
	pushFirst.Resolve(sess)

	a, b := pullFirst.Snapshot(), pushFirst.Snapshot()
	assert.Equal(t, a.Session.UserID, b.Session.UserID)
	assert.Equal(t, a.Loading, b.Loading)
	assert.Equal(t, a.User, b.User)
}

func TestState_WaitResolved(t *testing.T) {
	state := NewState()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, state.WaitResolved(ctx), "unresolved state should time out")

	state.Clear()
	assert.True(t, state.WaitResolved(context.Background()), "clear counts as resolution")
}
