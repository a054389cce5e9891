package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"usemy/internal/auth"
	"usemy/internal/platform/config"
	"usemy/internal/platform/metrics"
	id "usemy/pkg/domain"
)

// fakeSource drives both sides of the race from the test: the pull answer
// after pullDelay (or never, when pullHangs), and push changes fed through
// the push channel.
type fakeSource struct {
	pullDelay   time.Duration
	pullSession *auth.Session
	pullErr     error
	pullHangs   bool

	push chan auth.Change

	mu            sync.Mutex
	unsubscribed  bool
	subscribeSeen bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{push: make(chan auth.Change, 8)}
}

func (f *fakeSource) GetSession(ctx context.Context) (*auth.Session, error) {
	if f.pullHangs {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	select {
	case <-time.After(f.pullDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.pullSession, f.pullErr
}

func (f *fakeSource) Subscribe(ctx context.Context) (<-chan auth.Change, func()) {
	f.mu.Lock()
	f.subscribeSeen = true
	f.mu.Unlock()
	return f.push, func() {
		f.mu.Lock()
		f.unsubscribed = true
		f.mu.Unlock()
	}
}

func (f *fakeSource) emitAfter(d time.Duration, change auth.Change) {
	go func() {
		time.Sleep(d)
		f.push <- change
	}()
}

func newBootstrap(t *testing.T, src Source, state *State, onSession func(context.Context, *auth.Session), cfg config.BootstrapConfig) *Bootstrap {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return New(src, state, onSession, zap.NewNop(), m, cfg)
}

func waitResolvedWithin(t *testing.T, state *State, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.True(t, state.WaitResolved(ctx), "state did not resolve within %v", d)
}

func TestBootstrap_PushWinsOverSlowerPull(t *testing.T) {
	userID := id.NewUserID()
	sess := newSession(userID)

	src := newFakeSource()
	src.pullDelay = 200 * time.Millisecond
	src.pullSession = sess
	src.emitAfter(50*time.Millisecond, auth.Change{Event: auth.EventInitial, Session: sess})

	state := NewState()
	b := newBootstrap(t, src, state, nil, config.BootstrapConfig{
		PullTimeout:   time.Second,
		SafetyTimeout: 2 * time.Second,
	})

	start := time.Now()
	stop := b.Start(context.Background())
	defer stop()

	waitResolvedWithin(t, state, time.Second)
	elapsed := time.Since(start)

	snap := state.Snapshot()
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Session)
	assert.Equal(t, userID, snap.Session.UserID)
	assert.Less(t, elapsed, 150*time.Millisecond, "push at 50ms should resolve well before the 200ms pull")

	// The pull landing later must not disturb the resolved state.
	time.Sleep(250 * time.Millisecond)
	snap = state.Snapshot()
	require.NotNil(t, snap.Session)
	assert.Equal(t, userID, snap.Session.UserID)
	assert.False(t, snap.Loading)
}

func TestBootstrap_PullWinsOverSlowerPush(t *testing.T) {
	userID := id.NewUserID()
	sess := newSession(userID)

	src := newFakeSource()
	src.pullDelay = 20 * time.Millisecond
	src.pullSession = sess
	src.emitAfter(150*time.Millisecond, auth.Change{Event: auth.EventInitial, Session: sess})

	state := NewState()
	b := newBootstrap(t, src, state, nil, config.BootstrapConfig{
		PullTimeout:   time.Second,
		SafetyTimeout: 2 * time.Second,
	})

	stop := b.Start(context.Background())
	defer stop()

	waitResolvedWithin(t, state, time.Second)
	snap := state.Snapshot()
	require.NotNil(t, snap.Session)
	assert.Equal(t, userID, snap.Session.UserID)
}

func TestBootstrap_SafetyTimeoutWhenBothSourcesHang(t *testing.T) {
	src := newFakeSource()
	src.pullHangs = true
	// push never emits

	state := NewState()
	b := newBootstrap(t, src, state, nil, config.BootstrapConfig{
		PullTimeout:   50 * time.Millisecond,
		SafetyTimeout: 100 * time.Millisecond,
	})

	start := time.Now()
	stop := b.Start(context.Background())
	defer stop()

	waitResolvedWithin(t, state, time.Second)
	elapsed := time.Since(start)

	snap := state.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Session, "timeout resolution carries no session")
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestBootstrap_PullErrorDoesNotResolve(t *testing.T) {
	userID := id.NewUserID()
	sess := newSession(userID)

	src := newFakeSource()
	src.pullDelay = 10 * time.Millisecond
	src.pullErr = errors.New("network unreachable")
	src.emitAfter(80*time.Millisecond, auth.Change{Event: auth.EventInitial, Session: sess})

	state := NewState()
	b := newBootstrap(t, src, state, nil, config.BootstrapConfig{
		PullTimeout:   time.Second,
		SafetyTimeout: 2 * time.Second,
	})

	stop := b.Start(context.Background())
	defer stop()

	// Well after the pull error, still loading: an error is not a result.
	time.Sleep(50 * time.Millisecond)
	assert.True(t, state.Snapshot().Loading)

	waitResolvedWithin(t, state, time.Second)
	snap := state.Snapshot()
	require.NotNil(t, snap.Session)
	assert.Equal(t, userID, snap.Session.UserID)
}

func TestBootstrap_SafetyTimerNeverFiresAfterResolution(t *testing.T) {
	userID := id.NewUserID()
	sess := newSession(userID)

	src := newFakeSource()
	src.pullHangs = true
	src.emitAfter(10*time.Millisecond, auth.Change{Event: auth.EventInitial, Session: sess})

	state := NewState()
	b := newBootstrap(t, src, state, nil, config.BootstrapConfig{
		PullTimeout:   time.Second,
		SafetyTimeout: 60 * time.Millisecond,
	})

	stop := b.Start(context.Background())
	defer stop()

	waitResolvedWithin(t, state, time.Second)

	// Sleep past the safety deadline; the session must survive.
	time.Sleep(120 * time.Millisecond)
	snap := state.Snapshot()
	require.NotNil(t, snap.Session)
	assert.Equal(t, userID, snap.Session.UserID)
}

func TestBootstrap_SignOutChangeClearsProfile(t *testing.T) {
	userID := id.NewUserID()
	sess := newSession(userID)

	src := newFakeSource()
	src.pullHangs = true
	src.push <- auth.Change{Event: auth.EventInitial, Session: sess}

	state := NewState()
	b := newBootstrap(t, src, state, nil, config.BootstrapConfig{
		PullTimeout:   time.Second,
		SafetyTimeout: 2 * time.Second,
	})

	stop := b.Start(context.Background())
	defer stop()

	waitResolvedWithin(t, state, time.Second)
	require.True(t, state.SetProfile(newProfile(userID)))

	src.push <- auth.Change{Event: auth.EventSignedOut, Session: nil}

	require.Eventually(t, func() bool {
		snap := state.Snapshot()
		return snap.Session == nil && snap.Profile == nil
	}, time.Second, 10*time.Millisecond, "sign-out must clear session and profile together")
}

func TestBootstrap_OnSessionFiresForEverySessionSignal(t *testing.T) {
	userID := id.NewUserID()
	sess := newSession(userID)

	src := newFakeSource()
	src.pullDelay = 10 * time.Millisecond
	src.pullSession = sess

	var (
		mu    sync.Mutex
		calls []id.UserID
	)
	onSession := func(_ context.Context, s *auth.Session) {
		mu.Lock()
		calls = append(calls, s.UserID)
		mu.Unlock()
	}

	state := NewState()
	b := newBootstrap(t, src, state, onSession, config.BootstrapConfig{
		PullTimeout:   time.Second,
		SafetyTimeout: 2 * time.Second,
	})

	stop := b.Start(context.Background())
	defer stop()

	waitResolvedWithin(t, state, time.Second)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) >= 1
	}, time.Second, 10*time.Millisecond)

	// A refreshed token is also a session signal.
	src.push <- auth.Change{Event: auth.EventTokenRefreshed, Session: sess}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) >= 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, got := range calls {
		assert.Equal(t, userID, got)
	}
}

func TestBootstrap_StopUnsubscribesAndStopsLoop(t *testing.T) {
	src := newFakeSource()
	src.pullHangs = true

	state := NewState()
	b := newBootstrap(t, src, state, nil, config.BootstrapConfig{
		PullTimeout:   time.Second,
		SafetyTimeout: 10 * time.Second,
	})

	stop := b.Start(context.Background())
	stop()

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.True(t, src.subscribeSeen)
	assert.True(t, src.unsubscribed)
}
