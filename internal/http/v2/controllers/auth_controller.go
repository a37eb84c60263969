// Package controllers expone los handlers HTTP de la API v2.
package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/dto"
	httperrors "github.com/dropDatabas3/gatejohn/internal/http/v2/errors"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/gatejohn/internal/http/v2/services"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
)

// AuthController maneja el flujo de autenticación del navegador.
type AuthController struct {
	Authorize *svc.AuthorizeService
	Login     *svc.LoginService
	Reset     *svc.ResetService

	SessionCookie    string
	RememberMeCookie string
	CookieDomain     string
	CookieSecure     bool
}

func (c *AuthController) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.CookieDomain,
		HttpOnly: true,
		Secure:   c.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		ck.MaxAge = -1
	} else if maxAge > 0 {
		ck.MaxAge = int(maxAge.Seconds())
	}
	return ck
}

// HandleAuthorize corre la cadena de autenticación: POST /v2/auth/authorize.
func (c *AuthController) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.HandleAuthorize"))

	result, err := c.Authorize.Authorize(ctx, r)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrInvalidClientID):
			httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("client_id"))
		case errors.Is(err, svc.ErrUnknownClient):
			httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("client"))
		default:
			log.Error("authorize failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	for _, name := range result.ClearCookies {
		http.SetCookie(w, c.cookie(name, "", 0))
	}
	if result.NewSessionID != "" {
		http.SetCookie(w, c.cookie(c.SessionCookie, result.NewSessionID, 0))
	}
	helpers.WriteJSON(w, http.StatusOK, result.Response)
}

// HandleLogin procesa el formulario de login: POST /v2/auth/login.
func (c *AuthController) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.HandleLogin"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email, password"))
		return
	}

	// client_id en query identifica al client del flujo (toggles).
	client := c.clientFromRequest(r)

	result, err := c.Login.Login(ctx, client, req)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrBadCredentials), errors.Is(err, svc.ErrUserDisabled):
			// No distinguir usuario deshabilitado de credenciales malas.
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		default:
			log.Error("login failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	if result.RememberMeToken != "" {
		http.SetCookie(w, c.cookie(c.RememberMeCookie, result.RememberMeToken, c.Login.Issuer.RememberMeTTL))
	}
	helpers.WriteJSON(w, http.StatusOK, dto.LoginResponse{
		UserID:    result.User.ID,
		ReturnURL: req.ReturnURL,
	})
}

// clientFromRequest resuelve el client del query param; nil si no viene.
func (c *AuthController) clientFromRequest(r *http.Request) *repository.Client {
	id := r.URL.Query().Get("client_id")
	if id == "" {
		return nil
	}
	cl, err := c.Authorize.Clients.Get(r.Context(), id)
	if err != nil {
		return nil
	}
	return cl
}

// HandleResetPassword completa el reset forzado: POST /v2/auth/reset.
func (c *AuthController) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.HandleResetPassword"))

	var req dto.ResetPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("token, new_password"))
		return
	}

	if err := c.Reset.Complete(ctx, req); err != nil {
		switch {
		case errors.Is(err, svc.ErrResetTokenInvalid):
			httperrors.WriteError(w, httperrors.ErrTokenExpired)
		case errors.Is(err, svc.ErrWeakPassword):
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("password does not meet policy"))
		default:
			log.Error("reset failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
