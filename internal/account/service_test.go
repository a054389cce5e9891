package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"usemy/internal/audit"
	"usemy/internal/auth"
	authmocks "usemy/internal/auth/mocks"
	"usemy/internal/platform/config"
	"usemy/internal/platform/metrics"
	"usemy/internal/profile"
	profilemocks "usemy/internal/profile/mocks"
	"usemy/internal/registry"
	id "usemy/pkg/domain"
	derrors "usemy/pkg/domain-errors"
	"usemy/pkg/platform/sentinel"
)

type fakeSink struct {
	mu     sync.Mutex
	set    int
	clears int
}

func (f *fakeSink) SetProfile(*profile.Profile) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set++
	return true
}

func (f *fakeSink) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
}

type fakeRegistry struct {
	company *registry.Company
	err     error
}

func (f *fakeRegistry) Lookup(context.Context, string) (*registry.Company, error) {
	return f.company, f.err
}

type harness struct {
	provider *authmocks.MockProvider
	store    *profilemocks.MockStore
	sink     *fakeSink
	audit    *audit.MemoryPublisher
	svc      *Service
}

func newHarness(t *testing.T, reg Registry) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	provider := authmocks.NewMockProvider(ctrl)
	store := profilemocks.NewMockStore(ctrl)
	sink := &fakeSink{}
	pub := audit.NewMemoryPublisher()
	m := metrics.New(prometheus.NewRegistry())
	log := zap.NewNop()

	guard := profile.NewGuard(store, sink, provider.SignOut, log, m, time.Second)
	svc := NewService(provider, store, guard, reg, pub, log, m, config.BootstrapConfig{
		ProfileWaitAttempts: 2,
		ProfileWaitInterval: time.Millisecond,
	})
	return &harness{provider: provider, store: store, sink: sink, audit: pub, svc: svc}
}

func signUpInput() SignUpInput {
	return SignUpInput{
		Email:    "jean@example.com",
		Password: "correct-horse",
		FullName: "Jean Dupont",
		UserType: profile.UserTypeIndividual,
	}
}

func sessionFor(userID id.UserID, email string) *auth.Session {
	return &auth.Session{
		AccessToken: "tok",
		UserID:      userID,
		Email:       email,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestSignUp_TriggerCreatesProfileDuringWindow(t *testing.T) {
	h := newHarness(t, nil)
	userID := id.NewUserID()
	in := signUpInput()

	h.provider.EXPECT().SignUp(gomock.Any(), in.Email, in.Password, auth.SignUpMetadata{
		FullName: in.FullName, UserType: "individual",
	}).Return(&auth.SignUpResult{
		User:    auth.User{ID: userID, Email: in.Email},
		Session: sessionFor(userID, in.Email),
	}, nil)

	gomock.InOrder(
		h.store.EXPECT().Exists(gomock.Any(), userID).Return(false, nil),
		h.store.EXPECT().Exists(gomock.Any(), userID).Return(true, nil),
	)

	out, err := h.svc.SignUp(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, out.Session)
	assert.Equal(t, userID, out.User.ID)
	assert.Len(t, h.audit.ByUser(userID), 1)
}

func TestSignUp_RepairsProfileWhenTriggerNeverFires(t *testing.T) {
	h := newHarness(t, nil)
	userID := id.NewUserID()
	in := signUpInput()

	h.provider.EXPECT().SignUp(gomock.Any(), in.Email, in.Password, gomock.Any()).Return(&auth.SignUpResult{
		User:    auth.User{ID: userID, Email: in.Email},
		Session: sessionFor(userID, in.Email),
	}, nil)

	h.store.EXPECT().Exists(gomock.Any(), userID).Return(false, nil).Times(2)
	h.store.EXPECT().Create(gomock.Any(), gomock.Cond(func(p *profile.Profile) bool {
		return p.ID == userID && p.UserType == profile.UserTypeIndividual && p.FullName == "Jean Dupont"
	})).Return(nil)

	out, err := h.svc.SignUp(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, out.Session)

	actions := make([]audit.Action, 0, 2)
	for _, ev := range h.audit.ByUser(userID) {
		actions = append(actions, ev.Action)
	}
	assert.Contains(t, actions, audit.ActionProfileRepaired)
	assert.Contains(t, actions, audit.ActionUserSignedUp)
}

func TestSignUp_FailedInsertRollsBackSession(t *testing.T) {
	h := newHarness(t, nil)
	userID := id.NewUserID()
	in := signUpInput()

	h.provider.EXPECT().SignUp(gomock.Any(), in.Email, in.Password, gomock.Any()).Return(&auth.SignUpResult{
		User:    auth.User{ID: userID, Email: in.Email},
		Session: sessionFor(userID, in.Email),
	}, nil)
	h.store.EXPECT().Exists(gomock.Any(), userID).Return(false, nil).Times(2)
	h.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	// The invariant's floor: no session may survive a failed profile insert.
	h.provider.EXPECT().SignOut(gomock.Any()).Return(nil)

	_, err := h.svc.SignUp(context.Background(), in)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeInternal))
	assert.Equal(t, 1, h.sink.clears)
}

func TestSignUp_ConflictMeansTriggerWonTheRace(t *testing.T) {
	h := newHarness(t, nil)
	userID := id.NewUserID()
	in := signUpInput()

	h.provider.EXPECT().SignUp(gomock.Any(), in.Email, in.Password, gomock.Any()).Return(&auth.SignUpResult{
		User:    auth.User{ID: userID, Email: in.Email},
		Session: sessionFor(userID, in.Email),
	}, nil)
	h.store.EXPECT().Exists(gomock.Any(), userID).Return(false, nil).Times(2)
	h.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

	out, err := h.svc.SignUp(context.Background(), in)
	require.NoError(t, err, "a conflict on repair means the row exists, which is what we wanted")
	require.NotNil(t, out.Session)
}

func TestSignUp_PendingEmailConfirmationSkipsProfileWork(t *testing.T) {
	h := newHarness(t, nil)
	userID := id.NewUserID()
	in := signUpInput()

	h.provider.EXPECT().SignUp(gomock.Any(), in.Email, in.Password, gomock.Any()).Return(&auth.SignUpResult{
		User: auth.User{ID: userID, Email: in.Email},
	}, nil)
	// No store expectations: no session, no profile work.

	out, err := h.svc.SignUp(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, out.Session)
	assert.Equal(t, userID, out.User.ID)
}

func TestSignUp_ProfessionalWithVerifiedCompany(t *testing.T) {
	lat := 45.75
	reg := &fakeRegistry{company: &registry.Company{
		SIRET:        "73282932000074",
		SIREN:        "732829320",
		Name:         "ATELIER LECLERC SARL",
		ActivityCode: "62.02A",
		Latitude:     &lat,
		Active:       true,
	}}
	h := newHarness(t, reg)
	userID := id.NewUserID()
	in := signUpInput()
	in.UserType = profile.UserTypeProfessional
	in.Company = &CompanyInput{CompanyName: "Atelier Leclerc", SIRET: "73282932000074"}

	h.provider.EXPECT().SignUp(gomock.Any(), in.Email, in.Password, auth.SignUpMetadata{
		FullName: in.FullName, UserType: "professional",
	}).Return(&auth.SignUpResult{
		User:    auth.User{ID: userID, Email: in.Email},
		Session: sessionFor(userID, in.Email),
	}, nil)
	h.store.EXPECT().Exists(gomock.Any(), userID).Return(true, nil)
	h.store.EXPECT().CreateProfessional(gomock.Any(), gomock.Cond(func(pro *profile.ProfessionalProfile) bool {
		return pro.UserID == userID && pro.Verified && pro.ActivityCode == "62.02A"
	})).Return(nil)

	_, err := h.svc.SignUp(context.Background(), in)
	require.NoError(t, err)
}

func TestSignUp_ProfessionalWithClosedEstablishmentRejected(t *testing.T) {
	reg := &fakeRegistry{company: &registry.Company{SIRET: "73282932000074", Active: false}}
	h := newHarness(t, reg)
	in := signUpInput()
	in.UserType = profile.UserTypeProfessional
	in.Company = &CompanyInput{CompanyName: "Fantôme SARL", SIRET: "73282932000074"}

	_, err := h.svc.SignUp(context.Background(), in)
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
}

func TestSignUp_RegistryOutageDegradesToUnverified(t *testing.T) {
	reg := &fakeRegistry{err: derrors.New(derrors.CodeUnavailable, "registry down")}
	h := newHarness(t, reg)
	userID := id.NewUserID()
	in := signUpInput()
	in.UserType = profile.UserTypeProfessional
	in.Company = &CompanyInput{CompanyName: "Atelier Leclerc", SIRET: "73282932000074"}

	h.provider.EXPECT().SignUp(gomock.Any(), in.Email, in.Password, gomock.Any()).Return(&auth.SignUpResult{
		User:    auth.User{ID: userID, Email: in.Email},
		Session: sessionFor(userID, in.Email),
	}, nil)
	h.store.EXPECT().Exists(gomock.Any(), userID).Return(true, nil)
	h.store.EXPECT().CreateProfessional(gomock.Any(), gomock.Cond(func(pro *profile.ProfessionalProfile) bool {
		return pro.UserID == userID && !pro.Verified
	})).Return(nil)

	_, err := h.svc.SignUp(context.Background(), in)
	require.NoError(t, err)
}

func TestSignUp_InvalidInputNeverReachesProvider(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		name   string
		mutate func(*SignUpInput)
	}{
		{"bad email", func(in *SignUpInput) { in.Email = "not-an-email" }},
		{"short password", func(in *SignUpInput) { in.Password = "short" }},
		{"missing name", func(in *SignUpInput) { in.FullName = "" }},
		{"bogus user type", func(in *SignUpInput) { in.UserType = "robot" }},
		{"professional without company", func(in *SignUpInput) { in.UserType = profile.UserTypeProfessional }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := signUpInput()
			tt.mutate(&in)
			_, err := h.svc.SignUp(context.Background(), in)
			require.Error(t, err)
			assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
		})
	}
}

func TestSignIn_HappyPath(t *testing.T) {
	h := newHarness(t, nil)
	userID := id.NewUserID()
	sess := sessionFor(userID, "jean@example.com")

	h.provider.EXPECT().SignInWithPassword(gomock.Any(), "jean@example.com", "correct-horse").Return(sess, nil)
	h.store.EXPECT().FindByID(gomock.Any(), userID).Return(&profile.Profile{
		ID: userID, UserType: profile.UserTypeIndividual, FullName: "Jean Dupont",
	}, nil)

	got, err := h.svc.SignIn(context.Background(), SignInInput{
		Email: "jean@example.com", Password: "correct-horse", Device: "Firefox on Linux",
	})
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, 1, h.sink.set)

	events := h.audit.ByUser(userID)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionUserSignedIn, events[0].Action)
	assert.Equal(t, "Firefox on Linux", events[0].Device)
}

func TestSignIn_MissingProfileForcesSignOut(t *testing.T) {
	h := newHarness(t, nil)
	userID := id.NewUserID()
	sess := sessionFor(userID, "jean@example.com")

	h.provider.EXPECT().SignInWithPassword(gomock.Any(), "jean@example.com", "correct-horse").Return(sess, nil)
	h.store.EXPECT().FindByID(gomock.Any(), userID).Return(nil, sentinel.ErrNotFound)
	h.provider.EXPECT().SignOut(gomock.Any()).Return(nil)

	_, err := h.svc.SignIn(context.Background(), SignInInput{
		Email: "jean@example.com", Password: "correct-horse",
	})
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeNotFound))
	assert.Equal(t, 1, h.sink.clears)

	actions := make([]audit.Action, 0, 1)
	for _, ev := range h.audit.ByUser(userID) {
		actions = append(actions, ev.Action)
	}
	assert.Contains(t, actions, audit.ActionProfileMissing)
}

func TestSignIn_BadCredentialsPassThrough(t *testing.T) {
	h := newHarness(t, nil)
	h.provider.EXPECT().SignInWithPassword(gomock.Any(), "jean@example.com", "wrong").
		Return(nil, derrors.New(derrors.CodeUnauthorized, "invalid credentials"))

	_, err := h.svc.SignIn(context.Background(), SignInInput{
		Email: "jean@example.com", Password: "wrong",
	})
	require.Error(t, err)
	assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
}

func TestSignOut_EmitsAuditEvent(t *testing.T) {
	h := newHarness(t, nil)
	userID := id.NewUserID()
	h.provider.EXPECT().SignOut(gomock.Any()).Return(nil)

	require.NoError(t, h.svc.SignOut(context.Background(), userID))
	events := h.audit.ByUser(userID)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionUserSignedOut, events[0].Action)
}
