package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ToonLance/freelancer-nest-profile/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const profileColumns = `uid, display_name, email, photo_url, username, bio, location, title, skills, created_at, updated_at`

// Repository stores profiles and username reservations in Postgres.
type Repository struct {
	db *db.DB
}

func NewRepository(db *db.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetProfile(ctx context.Context, uid string) (*Profile, error) {
	var p Profile
	err := r.db.GetContext(ctx, &p,
		`SELECT `+profileColumns+` FROM profiles WHERE uid = $1`, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("profile: get %s: %w", uid, err)
	}
	return &p, nil
}

// GetProfileByUsername follows the reservation to its owning profile.
// A missing reservation yields ErrUsernameNotFound, a reservation without
// a profile yields ErrNotFound.
func (r *Repository) GetProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	var uid string
	err := r.db.GetContext(ctx, &uid,
		`SELECT uid FROM usernames WHERE username = $1`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUsernameNotFound
		}
		return nil, fmt.Errorf("profile: lookup username %q: %w", username, err)
	}
	return r.GetProfile(ctx, uid)
}

func (r *Repository) CreateProfile(ctx context.Context, p *Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if p.Skills == nil {
		p.Skills = pq.StringArray{}
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (:uid, :display_name, :email, :photo_url, :username, :bio,
		        :location, :title, :skills, :created_at, :updated_at)
	`, p)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("profile: create %s: %w", p.UID, err)
	}
	return nil
}

func (r *Repository) UpdateProfile(ctx context.Context, uid string, u Update) (*Profile, error) {
	var skills pq.StringArray
	if u.Skills != nil {
		skills = pq.StringArray(u.Skills)
	}

	var p Profile
	err := r.db.GetContext(ctx, &p, `
		UPDATE profiles
		SET bio        = COALESCE($2, bio),
		    location   = COALESCE($3, location),
		    title      = COALESCE($4, title),
		    skills     = COALESCE($5::text[], skills),
		    updated_at = NOW()
		WHERE uid = $1
		RETURNING `+profileColumns,
		uid, u.Bio, u.Location, u.Title, skills)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("profile: update %s: %w", uid, err)
	}
	return &p, nil
}

// UsernameExists reports whether a reservation exists for username.
// Callers pass the lowercase form.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM usernames WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("profile: check username %q: %w", username, err)
	}
	return exists, nil
}

// ClaimUsername reserves username for uid and records it on the profile in
// a single transaction. The reservation insert is a compare-and-set: a
// concurrent claimant that inserted first makes this call fail with
// ErrUsernameTaken and nothing is written.
func (r *Repository) ClaimUsername(ctx context.Context, uid string, username string) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO usernames (username, uid)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, username, uid)
		if err != nil {
			return fmt.Errorf("profile: reserve %q: %w", username, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return r.claimConflict(ctx, tx, uid)
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE profiles
			SET username = $1, updated_at = NOW()
			WHERE uid = $2 AND username IS NULL
		`, username, uid)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("profile: set username %s: %w", uid, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			if _, err := r.getTx(ctx, tx, uid); err != nil {
				return err
			}
			return ErrUsernameAlreadySet
		}
		return nil
	})
}

// claimConflict tells apart "someone owns this name" from "this user
// already holds a reservation" after an insert that did nothing.
func (r *Repository) claimConflict(ctx context.Context, tx *sqlx.Tx, uid string) error {
	var held bool
	err := tx.GetContext(ctx, &held,
		`SELECT EXISTS (SELECT 1 FROM usernames WHERE uid = $1)`, uid)
	if err != nil {
		return fmt.Errorf("profile: check reservation %s: %w", uid, err)
	}
	if held {
		return ErrUsernameAlreadySet
	}
	return ErrUsernameTaken
}

func (r *Repository) getTx(ctx context.Context, tx *sqlx.Tx, uid string) (*Profile, error) {
	var p Profile
	err := tx.GetContext(ctx, &p,
		`SELECT `+profileColumns+` FROM profiles WHERE uid = $1`, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("profile: get %s: %w", uid, err)
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
