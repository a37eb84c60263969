package repository

import (
	"context"
	"time"
)

// User representa un usuario final.
// El core de autenticación solo lo lee; las mutaciones son de management.
type User struct {
	ID            string
	Email         string
	Username      string
	EmailVerified bool
	Name          string
	CreatedAt     time.Time
	DisabledAt    *time.Time

	// PasswordHash es el PHC string (argon2id); nil = sin password.
	PasswordHash *string

	// ForceResetPassword obliga un reset antes de continuar el flujo.
	ForceResetPassword bool

	// WebAuthnRegistrationCompleted indica que el usuario ya completó el
	// registro de una credencial passwordless.
	WebAuthnRegistrationCompleted bool

	// Factors son los IDs de factores MFA en los que el usuario está enrolado.
	Factors []string
}

// Disabled indica si el usuario está deshabilitado.
func (u *User) Disabled() bool {
	return u.DisabledAt != nil
}

// HasAnyFactor indica si el usuario está enrolado en alguno de los
// factores dados.
func (u *User) HasAnyFactor(ids []string) bool {
	for _, want := range ids {
		for _, f := range u.Factors {
			if f == want {
				return true
			}
		}
	}
	return false
}

// UserRepository define operaciones de lectura sobre usuarios.
type UserRepository interface {
	// Get obtiene un usuario por ID. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, userID string) (*User, error)

	// GetByEmail obtiene un usuario por email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetWebAuthnRegistrationCompleted marca el flag de registro completado.
	SetWebAuthnRegistrationCompleted(ctx context.Context, userID string) error

	// SetPassword actualiza el PHC hash y limpia ForceResetPassword.
	SetPassword(ctx context.Context, userID, phc string) error
}
