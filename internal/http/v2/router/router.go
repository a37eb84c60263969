// Package router registra las rutas de la API v2.
package router

import (
	"net/http"

	"github.com/dropDatabas3/gatejohn/internal/http/v2/controllers"
	mw "github.com/dropDatabas3/gatejohn/internal/http/v2/middlewares"
	"github.com/dropDatabas3/gatejohn/internal/rate"
	"github.com/go-chi/chi/v5"
)

// Deps contiene las dependencias del router v2.
type Deps struct {
	Auth     *controllers.AuthController
	OAuth    *controllers.OAuthController
	WebAuthn *controllers.WebAuthnController

	// Limiters por endpoint; nil deshabilita el rate limit del grupo.
	TokenLimiter     rate.Limiter
	AuthorizeLimiter rate.Limiter
	WebAuthnLimiter  rate.Limiter
}

// New arma el router con middlewares globales y rutas v2.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestContext())
	r.Use(mw.WithRecover())
	r.Use(mw.WithSecurityHeaders())

	r.Route("/v2", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mw.WithRateLimit(deps.AuthorizeLimiter))
			r.Post("/auth/authorize", deps.Auth.HandleAuthorize)
			r.Post("/auth/login", deps.Auth.HandleLogin)
			r.Post("/auth/reset", deps.Auth.HandleResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.WithRateLimit(deps.TokenLimiter))
			r.Post("/oauth/token", deps.OAuth.HandleToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.WithRateLimit(deps.WebAuthnLimiter))
			r.Post("/webauthn/register/options", deps.WebAuthn.HandleRegisterOptions)
			r.Post("/webauthn/register", deps.WebAuthn.HandleRegisterFinish)
			r.Post("/webauthn/login/options", deps.WebAuthn.HandleLoginOptions)
			r.Post("/webauthn/login", deps.WebAuthn.HandleLoginFinish)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
