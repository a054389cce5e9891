// Package auth wraps the hosted authentication capability behind a Provider
// interface: a pull query for the current session, a push stream of session
// changes, and the credential operations. Two implementations exist: an HTTP
// client for a hosted auth API and a local in-memory provider for development
// and tests.
package auth

import "context"

// SignUpMetadata travels with the sign-up call so the backend trigger can
// create the profile row server-side.
type SignUpMetadata struct {
	FullName string `json:"full_name"`
	UserType string `json:"user_type"`
}

// SignUpResult is what the provider returns from SignUp. Session is nil when
// the backend requires out-of-band email confirmation before issuing one.
type SignUpResult struct {
	User    User
	Session *Session
}

//go:generate mockgen -source=provider.go -destination=mocks/mocks.go -package=mocks

// Provider exposes the auth capabilities the core consumes. GetSession is the
// pull source (may be slow or hang network-side; callers bound it with a
// context deadline). Subscribe is the push source and fires once eagerly with
// the current state shortly after subscribing.
type Provider interface {
	GetSession(ctx context.Context) (*Session, error)
	Subscribe(ctx context.Context) (<-chan Change, func())
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*SignUpResult, error)
	SignOut(ctx context.Context) error
}
