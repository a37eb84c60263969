package pg

import (
	"context"
	"time"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
)

// TrustedDevices devuelve el repositorio de dispositivos confiables.
func (s *Store) TrustedDevices() repository.MFARepository { return &trustedDeviceRepo{s} }

type trustedDeviceRepo struct{ s *Store }

func (r *trustedDeviceRepo) AddTrustedDevice(ctx context.Context, userID, deviceHash string, expiresAt time.Time) error {
	_, err := r.s.pool.Exec(ctx, `
		INSERT INTO trusted_device (user_id, device_hash, expires_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, device_hash)
		DO UPDATE SET expires_at = EXCLUDED.expires_at
	`, userID, deviceHash, expiresAt)
	return err
}

func (r *trustedDeviceRepo) IsTrustedDevice(ctx context.Context, userID, deviceHash string) (bool, error) {
	var ok bool
	err := r.s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM trusted_device
			WHERE user_id = $1 AND device_hash = $2 AND expires_at > now()
		)
	`, userID, deviceHash).Scan(&ok)
	return ok, err
}

func (r *trustedDeviceRepo) RemoveTrustedDevices(ctx context.Context, userID string) error {
	_, err := r.s.pool.Exec(ctx, `DELETE FROM trusted_device WHERE user_id = $1`, userID)
	return err
}
