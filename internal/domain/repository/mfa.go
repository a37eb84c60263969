package repository

import (
	"context"
	"time"
)

// MFARepository define operaciones sobre dispositivos confiables
// (skip de MFA para dispositivos recordados).
type MFARepository interface {
	// AddTrustedDevice añade un dispositivo confiable (skip MFA).
	// deviceHash es sha256(token) en base64url; el token plano va en la cookie.
	AddTrustedDevice(ctx context.Context, userID, deviceHash string, expiresAt time.Time) error

	// IsTrustedDevice verifica si un dispositivo es confiable y no expiró.
	IsTrustedDevice(ctx context.Context, userID, deviceHash string) (bool, error)

	// RemoveTrustedDevices elimina todos los dispositivos de un usuario.
	RemoveTrustedDevices(ctx context.Context, userID string) error
}
