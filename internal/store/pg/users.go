package pg

import (
	"context"
	"strings"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
)

// Users devuelve el repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

type userRepo struct{ s *Store }

const userCols = `
	id, email, COALESCE(username, ''), email_verified, COALESCE(name, ''),
	created_at, disabled_at, password_hash, force_reset_password,
	webauthn_registration_completed, factors`

func scanUser(row interface{ Scan(...any) error }) (*repository.User, error) {
	var u repository.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.EmailVerified, &u.Name,
		&u.CreatedAt, &u.DisabledAt, &u.PasswordHash, &u.ForceResetPassword,
		&u.WebAuthnRegistrationCompleted, &u.Factors,
	); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *userRepo) Get(ctx context.Context, userID string) (*repository.User, error) {
	return scanUser(r.s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE id = $1`, userID))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return scanUser(r.s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email)))
}

func (r *userRepo) SetWebAuthnRegistrationCompleted(ctx context.Context, userID string) error {
	tag, err := r.s.pool.Exec(ctx,
		`UPDATE app_user SET webauthn_registration_completed = TRUE WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetPassword(ctx context.Context, userID, phc string) error {
	tag, err := r.s.pool.Exec(ctx, `
		UPDATE app_user
		SET password_hash = $2, force_reset_password = FALSE
		WHERE id = $1
	`, userID, phc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
