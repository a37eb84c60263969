package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/dto"
	"github.com/dropDatabas3/gatejohn/internal/jwt"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
	"github.com/dropDatabas3/gatejohn/internal/security/password"
)

// Errores del servicio de reset.
var (
	ErrResetTokenInvalid = errors.New("invalid reset token")
	ErrWeakPassword      = errors.New("password does not meet policy")
)

// ResetService completa el sub-flujo de reset forzado de password.
type ResetService struct {
	Users     repository.UserRepository
	Issuer    *jwt.Issuer
	Policy    password.Policy
	Blacklist *password.Blacklist
}

// Complete consume el token de reset y fija el nuevo password.
func (s *ResetService) Complete(ctx context.Context, req dto.ResetPasswordRequest) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("reset"))

	userID, _, err := s.Issuer.ParseResetToken(req.Token)
	if err != nil {
		return ErrResetTokenInvalid
	}

	plain := strings.TrimSpace(req.NewPassword)
	if ok, reasons := s.Policy.Validate(plain); !ok {
		log.Debug("password rejected by policy", logger.String("reasons", strings.Join(reasons, ",")))
		return ErrWeakPassword
	}
	if s.Blacklist.Contains(plain) {
		return ErrWeakPassword
	}

	phc, err := password.Hash(password.Default, plain)
	if err != nil {
		return err
	}
	if err := s.Users.SetPassword(ctx, userID, phc); err != nil {
		return err
	}
	log.Info("password reset completed", logger.UserID(userID))
	return nil
}
