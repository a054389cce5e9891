package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "usemy/pkg/domain"
	derrors "usemy/pkg/domain-errors"
)

// Session is the provider-issued proof of authentication for a subject. The
// token bundle is opaque to us beyond the subject id and expiry; the core
// observes sessions but never mutates them.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       id.UserID
	Email        string
	ExpiresAt    time.Time
}

// User is the identity carried by a live session.
type User struct {
	ID    id.UserID
	Email string
}

// User returns the identity bound to the session.
func (s *Session) User() User {
	return User{ID: s.UserID, Email: s.Email}
}

// Expired reports whether the session's access token has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// ChangeEvent names a transition on the auth-state change stream.
type ChangeEvent string

const (
	// EventInitial is emitted once, eagerly, shortly after subscribing, and
	// carries whatever session the provider currently holds (possibly nil).
	EventInitial        ChangeEvent = "INITIAL_SESSION"
	EventSignedIn       ChangeEvent = "SIGNED_IN"
	EventSignedOut      ChangeEvent = "SIGNED_OUT"
	EventTokenRefreshed ChangeEvent = "TOKEN_REFRESHED"
)

// Change is one message on the push stream. Session is nil for sign-out and
// for an initial emit with no live session.
type Change struct {
	Event   ChangeEvent
	Session *Session
}

// ParseAccessToken extracts subject, email and expiry claims from a JWT
// access token without verifying the signature. Verification is the issuing
// backend's job; we only need the claims to label the session locally.
func ParseAccessToken(token string) (id.UserID, string, time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return id.UserID{}, "", time.Time{}, derrors.Wrap(err, derrors.CodeUnauthorized, "malformed access token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return id.UserID{}, "", time.Time{}, derrors.New(derrors.CodeUnauthorized, "access token has no subject")
	}
	userID, err := id.ParseUserID(sub)
	if err != nil {
		return id.UserID{}, "", time.Time{}, derrors.Wrap(err, derrors.CodeUnauthorized, "access token subject is not a user id")
	}

	var email string
	if v, ok := claims["email"].(string); ok {
		email = v
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return userID, email, expiresAt, nil
}
