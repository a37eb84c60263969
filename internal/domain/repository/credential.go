package repository

import (
	"context"
	"time"
)

// Credential es una credencial WebAuthn persistida.
//
// Invariante: una Credential se crea si y solo si su attestation pasó la
// verificación del formato sin error.
type Credential struct {
	ID           string
	UserID       string
	CredentialID []byte // ID binario generado por el authenticator
	PublicKey    []byte // COSE key (CBOR crudo)
	AAGUID       string
	Format       string // formato de attestation verificado
	SignCount    uint32
	CreatedAt    time.Time
	LastUsedAt   *time.Time
}

// CredentialRepository define operaciones sobre credenciales WebAuthn.
type CredentialRepository interface {
	// Create persiste una credencial ya verificada.
	// Retorna ErrConflict si el credential_id ya existe.
	Create(ctx context.Context, cred *Credential) (*Credential, error)

	// GetByCredentialID obtiene una credencial por su ID binario.
	GetByCredentialID(ctx context.Context, credentialID []byte) (*Credential, error)

	// ListByUser lista las credenciales de un usuario.
	ListByUser(ctx context.Context, userID string) ([]Credential, error)

	// UpdateSignCount actualiza el contador de firmas tras un login.
	UpdateSignCount(ctx context.Context, id string, signCount uint32) error
}
