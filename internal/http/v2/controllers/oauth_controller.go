package controllers

import (
	"net/http"

	"github.com/dropDatabas3/gatejohn/internal/http/v2/dto"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/gatejohn/internal/http/v2/services"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
)

// OAuthController maneja el token endpoint.
type OAuthController struct {
	Tokens *svc.TokenService
}

// HandleToken procesa POST /v2/oauth/token.
//
// Los fallos de autenticación del client siempre responden el mismo
// invalid_client 401 con challenge Basic, sin revelar qué check falló.
func (c *OAuthController) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("OAuthController.HandleToken"))

	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}

	resp, err := c.Tokens.Token(ctx, r)
	if err != nil {
		if svc.IsAuthError(err) {
			w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
			writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
			return
		}
		log.Error("token endpoint failed", logger.Err(err))
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	helpers.WriteJSON(w, http.StatusOK, resp)
}

func writeOAuthError(w http.ResponseWriter, status int, code, desc string) {
	helpers.WriteJSON(w, status, dto.OAuthError{Error: code, ErrorDescription: desc})
}
