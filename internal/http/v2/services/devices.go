package services

import (
	"context"
	"time"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/jwt"
	tokens "github.com/dropDatabas3/gatejohn/internal/security/token"
)

// DeviceService maneja el reconocimiento de dispositivos (cookie firmada +
// hash persistido). Implementa steps.DeviceRecognizer.
type DeviceService struct {
	Issuer  *jwt.Issuer
	Devices repository.MFARepository
}

// Remember registra el dispositivo actual y retorna el token para la cookie.
// En el repositorio solo se guarda sha256(token).
func (s *DeviceService) Remember(ctx context.Context, userID, deviceID string) (string, error) {
	tok, err := s.Issuer.SignDeviceToken(userID, deviceID)
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(s.Issuer.DeviceTTL)
	if err := s.Devices.AddTrustedDevice(ctx, userID, tokens.SHA256Base64URL(tok), expires); err != nil {
		return "", err
	}
	return tok, nil
}

// VerifyDevice valida la cookie de dispositivo: firma + hash persistido.
// Cualquier fallo de decode es un "no reconocido", nunca un error.
func (s *DeviceService) VerifyDevice(ctx context.Context, cookie string) (bool, error) {
	userID, _, err := s.Issuer.ParseDeviceToken(cookie)
	if err != nil {
		return false, nil
	}
	return s.Devices.IsTrustedDevice(ctx, userID, tokens.SHA256Base64URL(cookie))
}

// Forget elimina todos los dispositivos recordados del usuario.
func (s *DeviceService) Forget(ctx context.Context, userID string) error {
	return s.Devices.RemoveTrustedDevices(ctx, userID)
}
