package profile

import (
	"context"

	id "usemy/pkg/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks

// Store persists profiles and professional profiles.
//
// Implementations return sentinel.ErrNotFound for missing rows,
// sentinel.ErrConflict for duplicate creates and sentinel.ErrUnauthorized
// when the backing store rejects our credentials (stale session token); the
// guard treats that last one as fatal to the session.
type Store interface {
	FindByID(ctx context.Context, userID id.UserID) (*Profile, error)
	// Exists is the lightweight existence probe used by the sign-up grace
	// window; it must not fetch the full record.
	Exists(ctx context.Context, userID id.UserID) (bool, error)
	Create(ctx context.Context, p *Profile) error
	// CreateWithProfessional creates the base profile and the professional
	// profile atomically: either both rows exist afterwards or neither does.
	CreateWithProfessional(ctx context.Context, p *Profile, pro *ProfessionalProfile) error
	CreateProfessional(ctx context.Context, pro *ProfessionalProfile) error
	Update(ctx context.Context, userID id.UserID, patch Patch) (*Profile, error)
	FindProfessionalByUserID(ctx context.Context, userID id.UserID) (*ProfessionalProfile, error)
}
