package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
	"github.com/ToonLance/freelancer-nest-profile/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrUnverifiedEmail is returned when a new provider identity carries the
// email of an existing user but the provider has not verified it.
var ErrUnverifiedEmail = errors.New("resolver: unverified email belongs to an existing user")

// DBResolver resolves identities using the users/identities tables.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (string, error) {

	if identity == nil {
		return "", errors.New("identity is nil")
	}

	var userID uuid.UUID

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// 1. Known identity (provider + provider_user_id)
		err := tx.GetContext(ctx, &userID, `
			SELECT user_id
			FROM identities
			WHERE provider = $1
			  AND provider_user_id = $2
		`, identity.Provider, identity.ProviderUserID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		// 2. Existing user by email, new provider. Only a verified email
		// may link to an account it did not create.
		err = tx.GetContext(ctx, &userID, `
			SELECT id
			FROM users
			WHERE LOWER(email) = LOWER($1)
		`, identity.Email)
		if err == nil && !identity.EmailVerified {
			return ErrUnverifiedEmail
		}

		if errors.Is(err, sql.ErrNoRows) {
			// 3. Brand new user
			userID = uuid.New()
			_, err = tx.ExecContext(ctx, `
				INSERT INTO users (id, email, email_verified)
				VALUES ($1, $2, $3)
			`, userID, identity.Email, identity.EmailVerified)
		}
		if err != nil {
			return err
		}

		// 4. Identity mapping
		_, err = tx.ExecContext(ctx, `
			INSERT INTO identities (user_id, provider, provider_user_id)
			VALUES ($1, $2, $3)
		`, userID, identity.Provider, identity.ProviderUserID)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("resolver: resolve %s identity: %w", identity.Provider, err)
	}

	return userID.String(), nil
}
