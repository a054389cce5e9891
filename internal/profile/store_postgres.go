package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "usemy/pkg/domain"
	"usemy/pkg/platform/sentinel"
)

// PostgresStore persists profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `id, user_type, full_name, avatar_url, bio, phone, address, city, postal_code, latitude, longitude, points, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		userID.String(),
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, translatePGError("find profile", err)
	}
	return p, nil
}

func (s *PostgresStore) Exists(ctx context.Context, userID id.UserID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)`,
		userID.String(),
	).Scan(&exists)
	if err != nil {
		return false, translatePGError("check profile existence", err)
	}
	return exists, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *Profile) error {
	return s.insertProfile(ctx, s.db, p)
}

func (s *PostgresStore) CreateWithProfessional(ctx context.Context, p *Profile, pro *ProfessionalProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertProfile(ctx, tx, p); err != nil {
		return err
	}
	if err := s.insertProfessional(ctx, tx, pro); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateProfessional(ctx context.Context, pro *ProfessionalProfile) error {
	return s.insertProfessional(ctx, s.db, pro)
}

func (s *PostgresStore) Update(ctx context.Context, userID id.UserID, patch Patch) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE profiles SET
			full_name   = COALESCE($2, full_name),
			avatar_url  = COALESCE($3, avatar_url),
			bio         = COALESCE($4, bio),
			phone       = COALESCE($5, phone),
			address     = COALESCE($6, address),
			city        = COALESCE($7, city),
			postal_code = COALESCE($8, postal_code),
			latitude    = COALESCE($9, latitude),
			longitude   = COALESCE($10, longitude),
			updated_at  = now()
		WHERE id = $1
		RETURNING `+profileColumns,
		userID.String(),
		patch.FullName, patch.AvatarURL, patch.Bio, patch.Phone,
		patch.Address, patch.City, patch.PostalCode,
		patch.Latitude, patch.Longitude,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, translatePGError("update profile", err)
	}
	return p, nil
}

func (s *PostgresStore) FindProfessionalByUserID(ctx context.Context, userID id.UserID) (*ProfessionalProfile, error) {
	var (
		pro    ProfessionalProfile
		rawID  string
		rawUID string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, company_name, siret, website, category, activity_code, tags, verified, created_at
		 FROM professional_profiles WHERE user_id = $1`,
		userID.String(),
	).Scan(&rawID, &rawUID, &pro.CompanyName, &pro.SIRET, &pro.Website, &pro.Category, &pro.ActivityCode, pq.Array(&pro.Tags), &pro.Verified, &pro.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, translatePGError("find professional profile", err)
	}
	proID, err := id.ParseProfessionalProfileID(rawID)
	if err != nil {
		return nil, fmt.Errorf("professional profile has malformed id: %w", err)
	}
	uid, err := id.ParseUserID(rawUID)
	if err != nil {
		return nil, fmt.Errorf("professional profile has malformed user id: %w", err)
	}
	pro.ID = proID
	pro.UserID = uid
	return &pro, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) insertProfile(ctx context.Context, db execer, p *Profile) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO profiles (id, user_type, full_name, avatar_url, bio, phone, address, city, postal_code, latitude, longitude, points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID.String(), string(p.UserType), p.FullName, p.AvatarURL, p.Bio, p.Phone,
		p.Address, p.City, p.PostalCode, p.Latitude, p.Longitude, p.Points,
	)
	if err != nil {
		return translatePGError("create profile", err)
	}
	return nil
}

func (s *PostgresStore) insertProfessional(ctx context.Context, db execer, pro *ProfessionalProfile) error {
	tags := pro.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO professional_profiles (id, user_id, company_name, siret, website, category, activity_code, tags, verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pro.ID.String(), pro.UserID.String(), pro.CompanyName, pro.SIRET, pro.Website,
		pro.Category, pro.ActivityCode, pq.Array(tags), pro.Verified,
	)
	if err != nil {
		return translatePGError("create professional profile", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p      Profile
		rawID  string
		rawTyp string
	)
	err := row.Scan(&rawID, &rawTyp, &p.FullName, &p.AvatarURL, &p.Bio, &p.Phone,
		&p.Address, &p.City, &p.PostalCode, &p.Latitude, &p.Longitude, &p.Points,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	uid, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("profile has malformed id: %w", err)
	}
	p.ID = uid
	p.UserType = UserType(rawTyp)
	return &p, nil
}

// translatePGError maps driver errors onto sentinel facts. Authentication
// failures from the database count as credential rejection so the guard can
// treat them as fatal to the session.
func translatePGError(op string, err error) error {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
		case "28000", "28P01": // invalid_authorization_specification, invalid_password
			return fmt.Errorf("%s: %w", op, sentinel.ErrUnauthorized)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
