package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/gatejohn/internal/cache"
	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/dto"
	"github.com/dropDatabas3/gatejohn/internal/metrics"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
	tokens "github.com/dropDatabas3/gatejohn/internal/security/token"
	"github.com/dropDatabas3/gatejohn/internal/webauthn"
	"github.com/google/uuid"
)

const challengeKeyPrefix = "webauthn:chal:"

// Errores de las ceremonias WebAuthn.
var (
	ErrChallengeNotFound  = errors.New("challenge not found or expired")
	ErrClientDataMismatch = errors.New("client data verification failed")
	ErrUnknownCredential  = errors.New("unknown credential")
	ErrSignCountRegressed = errors.New("sign count regressed")
)

// WebAuthnService implementa las ceremonias de registro y login.
type WebAuthnService struct {
	RPID     string
	RPOrigin string

	Registry    *webauthn.Registry
	Users       repository.UserRepository
	Credentials repository.CredentialRepository
	Cache       cache.Client

	ChallengeTTL time.Duration
}

type challengeRecord struct {
	Kind      string `json:"kind"` // "register" | "login"
	UserID    string `json:"user_id"`
	Challenge string `json:"challenge"` // base64url
}

func (s *WebAuthnService) ttl() time.Duration {
	if s.ChallengeTTL > 0 {
		return s.ChallengeTTL
	}
	return 5 * time.Minute
}

func (s *WebAuthnService) newChallenge(ctx context.Context, kind, userID string) (id, challenge string, err error) {
	challenge, err = tokens.GenerateOpaqueToken(32)
	if err != nil {
		return "", "", err
	}
	id = uuid.NewString()
	rec := challengeRecord{Kind: kind, UserID: userID, Challenge: challenge}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", "", err
	}
	if err := s.Cache.Set(ctx, challengeKeyPrefix+id, string(b), s.ttl()); err != nil {
		return "", "", err
	}
	return id, challenge, nil
}

// consumeChallenge recupera y elimina el challenge: un solo intento por
// ceremonia.
func (s *WebAuthnService) consumeChallenge(ctx context.Context, id, kind, userID string) (string, error) {
	raw, err := s.Cache.Get(ctx, challengeKeyPrefix+id)
	if err != nil {
		return "", ErrChallengeNotFound
	}
	_ = s.Cache.Delete(ctx, challengeKeyPrefix+id)

	var rec challengeRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return "", ErrChallengeNotFound
	}
	if rec.Kind != kind || rec.UserID != userID {
		return "", ErrChallengeNotFound
	}
	return rec.Challenge, nil
}

// clientData es el collectedClientData de la ceremonia.
type clientData struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Origin    string `json:"origin"`
}

func (s *WebAuthnService) verifyClientData(cdjRaw []byte, wantType, wantChallenge string) error {
	var cd clientData
	if err := json.Unmarshal(cdjRaw, &cd); err != nil {
		return ErrClientDataMismatch
	}
	if cd.Type != wantType || cd.Challenge != wantChallenge {
		return ErrClientDataMismatch
	}
	if s.RPOrigin != "" && cd.Origin != s.RPOrigin {
		return ErrClientDataMismatch
	}
	return nil
}

// BeginRegistration emite las opciones de registro de credencial.
func (s *WebAuthnService) BeginRegistration(ctx context.Context, userID string) (*dto.RegisterOptionsResponse, error) {
	if _, err := s.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	id, challenge, err := s.newChallenge(ctx, "register", userID)
	if err != nil {
		return nil, err
	}
	return &dto.RegisterOptionsResponse{
		ChallengeID: id,
		Challenge:   challenge,
		RPID:        s.RPID,
		UserID:      userID,
		Timeout:     s.ttl().Milliseconds(),
	}, nil
}

// FinishRegistration verifica la attestation y persiste la credencial.
// La credencial se crea si y solo si la verificación pasó sin error.
func (s *WebAuthnService) FinishRegistration(ctx context.Context, req dto.RegisterFinishRequest) (*dto.RegisterFinishResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("webauthn"))

	challenge, err := s.consumeChallenge(ctx, req.ChallengeID, "register", req.UserID)
	if err != nil {
		return nil, err
	}
	cdjRaw, err := base64.RawURLEncoding.DecodeString(req.ClientDataJSON)
	if err != nil {
		return nil, ErrClientDataMismatch
	}
	attObj, err := base64.RawURLEncoding.DecodeString(req.AttestationObject)
	if err != nil {
		return nil, fmt.Errorf("attestation object: %w", err)
	}
	if err := s.verifyClientData(cdjRaw, "webauthn.create", challenge); err != nil {
		return nil, err
	}

	authData, err := s.Registry.Verify(s.RPID, cdjRaw, attObj)
	if err != nil {
		var attErr *webauthn.AttestationError
		if errors.As(err, &attErr) {
			metrics.AttestationVerdicts.WithLabelValues(attErr.Format, "rejected").Inc()
			log.Info("attestation rejected",
				logger.UserID(req.UserID),
				logger.Format(attErr.Format),
				logger.Err(err),
			)
		} else {
			metrics.AttestationVerdicts.WithLabelValues("unknown", "rejected").Inc()
		}
		return nil, err
	}

	obj, err := webauthn.ParseAttestationObject(attObj)
	if err != nil {
		return nil, err
	}
	metrics.AttestationVerdicts.WithLabelValues(obj.Fmt, "ok").Inc()

	cred, err := s.Credentials.Create(ctx, &repository.Credential{
		UserID:       req.UserID,
		CredentialID: authData.CredentialID,
		PublicKey:    authData.PublicKey.Raw,
		AAGUID:       authData.AAGUID.String(),
		Format:       obj.Fmt,
		SignCount:    authData.SignCount,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.SetWebAuthnRegistrationCompleted(ctx, req.UserID); err != nil {
		return nil, err
	}

	log.Info("credential registered",
		logger.UserID(req.UserID),
		logger.Format(obj.Fmt),
		logger.CredentialID(base64.RawURLEncoding.EncodeToString(cred.CredentialID)),
	)
	return &dto.RegisterFinishResponse{
		CredentialID: base64.RawURLEncoding.EncodeToString(cred.CredentialID),
		AAGUID:       cred.AAGUID,
		Format:       cred.Format,
	}, nil
}

// BeginLogin emite las opciones de aserción.
func (s *WebAuthnService) BeginLogin(ctx context.Context, userID string) (*dto.LoginOptionsResponse, error) {
	creds, err := s.Credentials.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, repository.ErrNotFound
	}
	id, challenge, err := s.newChallenge(ctx, "login", userID)
	if err != nil {
		return nil, err
	}
	allowed := make([]string, 0, len(creds))
	for _, c := range creds {
		allowed = append(allowed, base64.RawURLEncoding.EncodeToString(c.CredentialID))
	}
	return &dto.LoginOptionsResponse{
		ChallengeID: id,
		Challenge:   challenge,
		RPID:        s.RPID,
		AllowedIDs:  allowed,
		Timeout:     s.ttl().Milliseconds(),
	}, nil
}

// FinishLogin verifica la aserción contra la credencial persistida.
func (s *WebAuthnService) FinishLogin(ctx context.Context, req dto.LoginFinishRequest) (*dto.LoginFinishResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("webauthn"))

	challenge, err := s.consumeChallenge(ctx, req.ChallengeID, "login", req.UserID)
	if err != nil {
		return nil, err
	}
	cdjRaw, err := base64.RawURLEncoding.DecodeString(req.ClientDataJSON)
	if err != nil {
		return nil, ErrClientDataMismatch
	}
	if err := s.verifyClientData(cdjRaw, "webauthn.get", challenge); err != nil {
		return nil, err
	}
	credID, err := base64.RawURLEncoding.DecodeString(req.CredentialID)
	if err != nil {
		return nil, ErrUnknownCredential
	}
	authDataRaw, err := base64.RawURLEncoding.DecodeString(req.AuthenticatorData)
	if err != nil {
		return nil, ErrClientDataMismatch
	}
	sig, err := base64.RawURLEncoding.DecodeString(req.Signature)
	if err != nil {
		return nil, ErrClientDataMismatch
	}

	cred, err := s.Credentials.GetByCredentialID(ctx, credID)
	if err != nil || cred.UserID != req.UserID {
		return nil, ErrUnknownCredential
	}

	authData, err := webauthn.ParseAuthenticatorData(s.RPID, authDataRaw)
	if err != nil {
		return nil, err
	}
	if !authData.Flags.UserPresent() {
		return nil, ErrClientDataMismatch
	}

	pub, err := webauthn.ParsePublicKey(cred.PublicKey)
	if err != nil {
		return nil, err
	}
	cdjHash := sha256.Sum256(cdjRaw)
	signed := append(append([]byte{}, authDataRaw...), cdjHash[:]...)
	if err := webauthn.VerifySignature(pub.Key, pub.Algorithm, signed, sig); err != nil {
		log.Info("assertion signature rejected", logger.UserID(req.UserID), logger.Err(err))
		return nil, ErrClientDataMismatch
	}

	// Regresión del contador = posible clon del authenticator.
	if authData.SignCount != 0 && authData.SignCount <= cred.SignCount {
		return nil, ErrSignCountRegressed
	}
	if err := s.Credentials.UpdateSignCount(ctx, cred.ID, authData.SignCount); err != nil {
		return nil, err
	}

	log.Info("passwordless login verified", logger.UserID(req.UserID))
	return &dto.LoginFinishResponse{UserID: req.UserID, SignCount: authData.SignCount}, nil
}
