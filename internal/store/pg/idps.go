package pg

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
)

// IdentityProviders devuelve el repositorio de IdPs externos.
func (s *Store) IdentityProviders() repository.IdentityProviderRepository { return &idpRepo{s} }

type idpRepo struct{ s *Store }

func (r *idpRepo) Get(ctx context.Context, id string) (*repository.IdentityProvider, error) {
	row := r.s.pool.QueryRow(ctx, `
		SELECT id, type, name, enabled FROM identity_provider WHERE id = $1
	`, id)
	var p repository.IdentityProvider
	if err := row.Scan(&p.ID, &p.Type, &p.Name, &p.Enabled); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *idpRepo) ListByIDs(ctx context.Context, ids []string) ([]repository.IdentityProvider, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.s.pool.Query(ctx, `
		SELECT id, type, name, enabled FROM identity_provider WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.IdentityProvider
	for rows.Next() {
		var p repository.IdentityProvider
		if err := rows.Scan(&p.ID, &p.Type, &p.Name, &p.Enabled); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
