// Package domain holds typed identifiers shared across the application.
// Typed IDs make cross-type assignment a compile error: a UserID can never be
// handed to an API expecting a ProfessionalProfileID.
package domain

import (
	"strings"

	"github.com/google/uuid"

	derrors "usemy/pkg/domain-errors"
)

// UserID identifies an authenticated subject. Profile rows share this id
// (Profile.ID == UserID), which is what the profile-existence invariant is
// keyed on.
type UserID uuid.UUID

// ProfessionalProfileID identifies a professional profile record.
type ProfessionalProfileID uuid.UUID

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewProfessionalProfileID returns a fresh random ProfessionalProfileID.
func NewProfessionalProfileID() ProfessionalProfileID {
	return ProfessionalProfileID(uuid.New())
}

func (id UserID) String() string                { return uuid.UUID(id).String() }
func (id UserID) IsZero() bool                  { return uuid.UUID(id) == uuid.Nil }
func (id ProfessionalProfileID) String() string { return uuid.UUID(id).String() }

// ParseUserID validates an external identifier at a trust boundary.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseProfessionalProfileID validates an external professional profile id.
func ParseProfessionalProfileID(raw string) (ProfessionalProfileID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return ProfessionalProfileID{}, err
	}
	return ProfessionalProfileID(parsed), nil
}

func parseUUID(raw string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, "id is required")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, derrors.Wrap(err, derrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}
