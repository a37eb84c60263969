package services

import (
	"context"
	"errors"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/dto"
	"github.com/dropDatabas3/gatejohn/internal/jwt"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
	"github.com/dropDatabas3/gatejohn/internal/security/password"
)

// Errores del servicio de login.
var (
	ErrBadCredentials = errors.New("invalid credentials")
	ErrUserDisabled   = errors.New("user disabled")
)

// LoginService autentica el formulario de login (primer factor).
type LoginService struct {
	Users  repository.UserRepository
	Issuer *jwt.Issuer
}

// LoginResult es el resultado de un login exitoso.
type LoginResult struct {
	User *repository.User

	// RememberMeToken va en la cookie remember-me; "" si no se pidió
	// o el client no lo permite.
	RememberMeToken string
}

// Login valida email+password. Los fallos de credenciales son
// indistinguibles entre usuario inexistente y password incorrecto.
func (s *LoginService) Login(ctx context.Context, client *repository.Client, req dto.LoginRequest) (*LoginResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("login"))

	u, err := s.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if u.Disabled() {
		return nil, ErrUserDisabled
	}
	if u.PasswordHash == nil || !password.Verify(req.Password, *u.PasswordHash) {
		log.Debug("password verification failed", logger.UserID(u.ID))
		return nil, ErrBadCredentials
	}

	out := &LoginResult{User: u}
	if req.RememberMe && client != nil && client.RememberMe {
		tok, err := s.Issuer.SignRememberMe(u.ID)
		if err != nil {
			return nil, err
		}
		out.RememberMeToken = tok
	}
	log.Info("user authenticated", logger.UserID(u.ID))
	return out, nil
}
