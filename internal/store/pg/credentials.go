package pg

import (
	"context"
	"errors"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Credentials devuelve el repositorio de credenciales WebAuthn.
func (s *Store) Credentials() repository.CredentialRepository { return &credentialRepo{s} }

type credentialRepo struct{ s *Store }

func (r *credentialRepo) Create(ctx context.Context, cred *repository.Credential) (*repository.Credential, error) {
	out := *cred
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	err := r.s.pool.QueryRow(ctx, `
		INSERT INTO webauthn_credential
			(id, user_id, credential_id, public_key, aaguid, format, sign_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, out.ID, out.UserID, out.CredentialID, out.PublicKey, out.AAGUID, out.Format, out.SignCount).
		Scan(&out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return &out, nil
}

func (r *credentialRepo) GetByCredentialID(ctx context.Context, credentialID []byte) (*repository.Credential, error) {
	row := r.s.pool.QueryRow(ctx, `
		SELECT id, user_id, credential_id, public_key, aaguid, format,
		       sign_count, created_at, last_used_at
		FROM webauthn_credential WHERE credential_id = $1
	`, credentialID)
	var c repository.Credential
	if err := row.Scan(
		&c.ID, &c.UserID, &c.CredentialID, &c.PublicKey, &c.AAGUID, &c.Format,
		&c.SignCount, &c.CreatedAt, &c.LastUsedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *credentialRepo) ListByUser(ctx context.Context, userID string) ([]repository.Credential, error) {
	rows, err := r.s.pool.Query(ctx, `
		SELECT id, user_id, credential_id, public_key, aaguid, format,
		       sign_count, created_at, last_used_at
		FROM webauthn_credential WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Credential
	for rows.Next() {
		var c repository.Credential
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.CredentialID, &c.PublicKey, &c.AAGUID, &c.Format,
			&c.SignCount, &c.CreatedAt, &c.LastUsedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *credentialRepo) UpdateSignCount(ctx context.Context, id string, signCount uint32) error {
	tag, err := r.s.pool.Exec(ctx, `
		UPDATE webauthn_credential
		SET sign_count = $2, last_used_at = now()
		WHERE id = $1
	`, id, signCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
