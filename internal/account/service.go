// Package account owns the sign-up and sign-in contracts: the choreography
// between the auth provider, the profile store, the consistency guard and the
// company registry that ends every flow in a state satisfying "live session ⇒
// existing profile".
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"usemy/internal/audit"
	"usemy/internal/auth"
	"usemy/internal/platform/config"
	"usemy/internal/platform/metrics"
	"usemy/internal/profile"
	"usemy/internal/registry"
	id "usemy/pkg/domain"
	derrors "usemy/pkg/domain-errors"
	"usemy/pkg/email"
	"usemy/pkg/platform/sentinel"
	pstrings "usemy/pkg/platform/strings"
)

// Registry is the slice of the company registry the service needs.
type Registry interface {
	Lookup(ctx context.Context, siret string) (*registry.Company, error)
}

// Service implements the account lifecycle operations.
type Service struct {
	provider auth.Provider
	store    profile.Store
	guard    *profile.Guard
	registry Registry
	audit    audit.Publisher
	log      *zap.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate

	waitAttempts int
	waitInterval time.Duration
}

func NewService(provider auth.Provider, store profile.Store, guard *profile.Guard, reg Registry, pub audit.Publisher, log *zap.Logger, m *metrics.Metrics, cfg config.BootstrapConfig) *Service {
	attempts := cfg.ProfileWaitAttempts
	if attempts <= 0 {
		attempts = 5
	}
	interval := cfg.ProfileWaitInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if pub == nil {
		pub = audit.NopPublisher{}
	}
	return &Service{
		provider:     provider,
		store:        store,
		guard:        guard,
		registry:     reg,
		audit:        pub,
		log:          log,
		metrics:      m,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		waitAttempts: attempts,
		waitInterval: interval,
	}
}

// CompanyInput carries the professional sign-up extras.
type CompanyInput struct {
	CompanyName string `validate:"required"`
	SIRET       string `validate:"required"`
	Website     string `validate:"omitempty,url"`
	Category    string
	Tags        []string
}

// SignUpInput is the validated sign-up request.
type SignUpInput struct {
	Email    string           `validate:"required,email"`
	Password string           `validate:"required,min=8"`
	FullName string           `validate:"required"`
	UserType profile.UserType `validate:"required"`
	Company  *CompanyInput
}

// SignUpOutput reports how the sign-up ended. Session is nil when the backend
// requires email confirmation before issuing one; in that case no profile
// work happens here, the confirmation sign-in will run the guard instead.
type SignUpOutput struct {
	User    auth.User
	Session *auth.Session
}

// SignUp registers the account and guarantees a profile exists before
// returning with a live session.
//
// The backend normally creates the profile row via its own user-created
// trigger; we give it a bounded grace window and only synthesize the row
// client-side when the window closes empty. If even that insert fails, the
// session is torn down: returning a session without a profile would violate
// the core invariant.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*SignUpOutput, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInvalidInput, "invalid sign-up request")
	}
	if !in.UserType.Valid() {
		return nil, derrors.New(derrors.CodeInvalidInput, "user type must be individual or professional")
	}
	if in.UserType == profile.UserTypeProfessional && in.Company == nil {
		return nil, derrors.New(derrors.CodeInvalidInput, "professional sign-up requires company details")
	}

	var company *registry.Company
	if in.Company != nil {
		if err := s.validate.Struct(in.Company); err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInvalidInput, "invalid company details")
		}
		var err error
		company, err = s.verifyCompany(ctx, in.Company.SIRET)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.provider.SignUp(ctx, in.Email, in.Password, auth.SignUpMetadata{
		FullName: in.FullName,
		UserType: string(in.UserType),
	})
	if err != nil {
		return nil, err
	}

	if result.Session == nil {
		// Email confirmation pending. The profile trigger fires when the
		// user confirms; nothing to guard yet.
		s.log.Info("sign-up pending email confirmation",
			zap.String("user_id", result.User.ID.String()))
		return &SignUpOutput{User: result.User}, nil
	}

	userID := result.Session.UserID
	if err := s.ensureProfile(ctx, userID, in, company); err != nil {
		return nil, err
	}

	s.metrics.SignUps.Inc()
	s.emit(ctx, audit.Event{
		Action: audit.ActionUserSignedUp,
		UserID: userID,
		Email:  in.Email,
	})
	return &SignUpOutput{User: result.User, Session: result.Session}, nil
}

// ensureProfile waits out the backend trigger's grace window and repairs the
// row client-side when the trigger never produced one.
func (s *Service) ensureProfile(ctx context.Context, userID id.UserID, in SignUpInput, company *registry.Company) error {
	if s.guard.WaitForProfile(ctx, userID, s.waitAttempts, s.waitInterval) {
		// The trigger created the base profile; professionals still need
		// their company row.
		if in.UserType == profile.UserTypeProfessional {
			if err := s.store.CreateProfessional(ctx, s.buildProfessional(userID, in, company)); err != nil && !errors.Is(err, sentinel.ErrConflict) {
				return s.abortSignUp(ctx, userID, err)
			}
		}
		return nil
	}

	s.log.Warn("profile trigger window closed empty, repairing client-side",
		zap.String("user_id", userID.String()))
	s.metrics.ProfileRepairs.Inc()
	s.emit(ctx, audit.Event{
		Action: audit.ActionProfileRepaired,
		UserID: userID,
		Email:  in.Email,
	})

	p := s.buildProfile(userID, in)
	var err error
	if in.UserType == profile.UserTypeProfessional {
		err = s.store.CreateWithProfessional(ctx, p, s.buildProfessional(userID, in, company))
	} else {
		err = s.store.Create(ctx, p)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrConflict):
		// The trigger won the race after our last probe. The row exists,
		// which is all the invariant asks for.
		return nil
	default:
		return s.abortSignUp(ctx, userID, err)
	}
}

// abortSignUp tears the fresh session down. A sign-up that cannot produce a
// profile must not leave a live session behind.
func (s *Service) abortSignUp(ctx context.Context, userID id.UserID, cause error) error {
	s.log.Error("sign-up could not establish a profile, rolling back session",
		zap.String("user_id", userID.String()),
		zap.Error(cause))
	s.guard.ForceSignOut(ctx, userID, "sign-up profile creation failed")
	s.emit(ctx, audit.Event{
		Action: audit.ActionSessionInvalidated,
		UserID: userID,
		Reason: "sign-up profile creation failed",
	})
	return derrors.Wrap(cause, derrors.CodeInternal, "account was created but its profile could not be, please sign in again")
}

func (s *Service) buildProfile(userID id.UserID, in SignUpInput) *profile.Profile {
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		// Mirror of the backend trigger's fallback.
		fullName = email.DeriveFullName(in.Email)
	}
	return &profile.Profile{
		ID:       userID,
		UserType: in.UserType,
		FullName: fullName,
	}
}

func (s *Service) buildProfessional(userID id.UserID, in SignUpInput, company *registry.Company) *profile.ProfessionalProfile {
	pro := &profile.ProfessionalProfile{
		ID:          id.NewProfessionalProfileID(),
		UserID:      userID,
		CompanyName: in.Company.CompanyName,
		SIRET:       in.Company.SIRET,
		Website:     in.Company.Website,
		Category:    in.Company.Category,
		Tags:        pstrings.DedupeAndTrimLower(in.Company.Tags),
	}
	if company != nil {
		pro.SIRET = company.SIRET
		pro.ActivityCode = company.ActivityCode
		pro.Verified = true
		if pro.CompanyName == "" {
			pro.CompanyName = company.Name
		}
	}
	return pro
}

// verifyCompany checks the SIRET against the public registry. A number that
// provably matches no establishment rejects the sign-up; a registry outage
// degrades to an unverified professional profile rather than blocking the
// user.
func (s *Service) verifyCompany(ctx context.Context, siret string) (*registry.Company, error) {
	if s.registry == nil {
		return nil, nil
	}
	company, err := s.registry.Lookup(ctx, siret)
	switch {
	case err == nil:
		if !company.Active {
			return nil, derrors.New(derrors.CodeInvalidInput, "this establishment is administratively closed")
		}
		return company, nil
	case derrors.HasCode(err, derrors.CodeInvalidInput), errors.Is(err, sentinel.ErrNotFound):
		return nil, err
	default:
		s.log.Warn("registry unavailable, continuing with unverified company",
			zap.Error(err))
		return nil, nil
	}
}

// SignInInput is the validated sign-in request.
type SignInInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Device   string
}

// SignIn authenticates and enforces the profile invariant: an authenticated
// user whose profile is confirmed absent is signed back out, because a
// session without a profile is worse than no session.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*auth.Session, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInvalidInput, "invalid sign-in request")
	}

	sess, err := s.provider.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	found, err := s.guard.LoadProfile(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		s.emit(ctx, audit.Event{
			Action: audit.ActionProfileMissing,
			UserID: sess.UserID,
			Email:  in.Email,
			Device: in.Device,
		})
		s.guard.ForceSignOut(ctx, sess.UserID, "no profile found at sign-in")
		return nil, derrors.New(derrors.CodeNotFound, "no profile found for this account, please contact support")
	}

	s.metrics.SignIns.Inc()
	s.emit(ctx, audit.Event{
		Action: audit.ActionUserSignedIn,
		UserID: sess.UserID,
		Email:  in.Email,
		Device: in.Device,
	})
	return sess, nil
}

// SignOut ends the session. The provider's change stream propagates the
// sign-out to the bootstrap state.
func (s *Service) SignOut(ctx context.Context, userID id.UserID) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return err
	}
	s.emit(ctx, audit.Event{
		Action: audit.ActionUserSignedOut,
		UserID: userID,
	})
	return nil
}

// RefreshProfile re-runs the profile load for a live session, e.g. after the
// client suspects its copy is stale.
func (s *Service) RefreshProfile(ctx context.Context, userID id.UserID) (bool, error) {
	return s.guard.LoadProfile(ctx, userID)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.log.Warn("audit emit failed", zap.String("action", string(event.Action)), zap.Error(err))
	}
}

