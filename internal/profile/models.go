// Package profile owns the application-level user record and the consistency
// guard that keeps it in lockstep with the auth session: a live session must
// always be backed by exactly one profile row.
package profile

import (
	"time"

	id "usemy/pkg/domain"
)

// UserType distinguishes individuals from registered professionals.
type UserType string

const (
	UserTypeIndividual   UserType = "individual"
	UserTypeProfessional UserType = "professional"
)

// Valid reports whether the value is one of the known user types.
func (t UserType) Valid() bool {
	return t == UserTypeIndividual || t == UserTypeProfessional
}

// Profile identifies a user beyond bare authentication. Its ID equals the
// auth subject id; that equality is what the session⇒profile invariant is
// keyed on.
type Profile struct {
	ID         id.UserID
	UserType   UserType
	FullName   string
	AvatarURL  string
	Bio        string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Latitude   *float64
	Longitude  *float64
	Points     int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProfessionalProfile extends a professional's base profile with registry
// -verified company identity. 0..1 per profile.
type ProfessionalProfile struct {
	ID          id.ProfessionalProfileID
	UserID      id.UserID
	CompanyName string
	SIRET       string
	Website     string
	Category    string
	ActivityCode string
	Tags        []string
	Verified    bool
	CreatedAt   time.Time
}

// Patch carries the mutable profile fields for an update. Nil pointers mean
// "leave unchanged".
type Patch struct {
	FullName   *string
	AvatarURL  *string
	Bio        *string
	Phone      *string
	Address    *string
	City       *string
	PostalCode *string
	Latitude   *float64
	Longitude  *float64
}
