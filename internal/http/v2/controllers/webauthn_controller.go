package controllers

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/dto"
	httperrors "github.com/dropDatabas3/gatejohn/internal/http/v2/errors"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/gatejohn/internal/http/v2/services"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
	"github.com/dropDatabas3/gatejohn/internal/webauthn"
)

// WebAuthnController maneja las ceremonias de registro y login.
type WebAuthnController struct {
	Service *svc.WebAuthnService
	Devices *svc.DeviceService

	DeviceCookie string
	CookieDomain string
	CookieSecure bool
}

// HandleRegisterOptions: POST /v2/webauthn/register/options.
func (c *WebAuthnController) HandleRegisterOptions(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterOptionsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("user_id"))
		return
	}
	resp, err := c.Service.BeginRegistration(r.Context(), req.UserID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// HandleRegisterFinish: POST /v2/webauthn/register.
func (c *WebAuthnController) HandleRegisterFinish(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterFinishRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.ChallengeID == "" || req.UserID == "" || req.AttestationObject == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("challenge_id, user_id, attestation_object"))
		return
	}
	resp, err := c.Service.FinishRegistration(r.Context(), req)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, resp)
}

// HandleLoginOptions: POST /v2/webauthn/login/options.
func (c *WebAuthnController) HandleLoginOptions(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginOptionsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("user_id"))
		return
	}
	resp, err := c.Service.BeginLogin(r.Context(), req.UserID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// HandleLoginFinish: POST /v2/webauthn/login.
// Un login passwordless exitoso además recuerda el dispositivo (cookie).
func (c *WebAuthnController) HandleLoginFinish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("WebAuthnController.HandleLoginFinish"))

	var req dto.LoginFinishRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.ChallengeID == "" || req.UserID == "" || req.Signature == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("challenge_id, user_id, signature"))
		return
	}
	resp, err := c.Service.FinishLogin(ctx, req)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	if c.Devices != nil {
		tok, err := c.Devices.Remember(ctx, req.UserID, req.CredentialID)
		if err != nil {
			log.Warn("device remember failed", logger.Err(err))
		} else {
			http.SetCookie(w, &http.Cookie{
				Name:     c.DeviceCookie,
				Value:    tok,
				Path:     "/",
				Domain:   c.CookieDomain,
				MaxAge:   int(c.Devices.Issuer.DeviceTTL.Seconds()),
				HttpOnly: true,
				Secure:   c.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

func (c *WebAuthnController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Component("webauthn"))

	var attErr *webauthn.AttestationError
	switch {
	case errors.As(err, &attErr):
		httperrors.WriteError(w, httperrors.ErrAttestationRejected.WithDetail(attErr.Format))
	case errors.Is(err, svc.ErrChallengeNotFound):
		httperrors.WriteError(w, httperrors.ErrChallengeExpired)
	case errors.Is(err, svc.ErrClientDataMismatch),
		errors.Is(err, svc.ErrSignCountRegressed),
		errors.Is(err, svc.ErrUnknownCredential):
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
	case errors.Is(err, repository.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	case errors.Is(err, repository.ErrConflict):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("credential already registered"))
	default:
		log.Error("webauthn ceremony failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
