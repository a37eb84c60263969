package flow

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
)

// ExecutionContext es el contexto mutable de request/sesión que ven los
// pasos. Es request-local: las mutaciones (flags, cookies) las aplica la
// capa HTTP al terminar la cadena.
type ExecutionContext struct {
	Request *http.Request
	Client  *repository.Client

	// User es el usuario autenticado; nil = sin autenticar.
	// RememberMe puede setearlo al resolver una cookie válida.
	User *repository.User

	// Session es el estado de la sesión de navegador.
	Session *SessionState

	// ResetToken lo deja ForceResetPassword para el sub-flujo de reset.
	ResetToken string

	// clearCookies son cookies a limpiar al responder (decode fallido).
	clearCookies []string
}

// NewExecutionContext crea el contexto para un request.
func NewExecutionContext(r *http.Request, client *repository.Client, user *repository.User, session *SessionState) *ExecutionContext {
	if session == nil {
		session = &SessionState{}
	}
	return &ExecutionContext{
		Request: r,
		Client:  client,
		User:    user,
		Session: session,
	}
}

// Authenticated indica si hay un usuario autenticado en el contexto.
func (ec *ExecutionContext) Authenticated() bool {
	return ec.User != nil
}

// Param retorna un parámetro del request (query o form), trimmed.
func (ec *ExecutionContext) Param(name string) string {
	if ec.Request == nil {
		return ""
	}
	return strings.TrimSpace(ec.Request.FormValue(name))
}

// Cookie retorna el valor de una cookie; "" si no existe.
func (ec *ExecutionContext) Cookie(name string) string {
	if ec.Request == nil {
		return ""
	}
	c, err := ec.Request.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequestURL es la URL completa del request actual.
func (ec *ExecutionContext) RequestURL() string {
	if ec.Request == nil {
		return ""
	}
	return ec.Request.URL.String()
}

// ClearCookie marca una cookie para limpiar al responder.
func (ec *ExecutionContext) ClearCookie(name string) {
	ec.clearCookies = append(ec.clearCookies, name)
}

// ClearedCookies retorna las cookies marcadas para limpiar.
func (ec *ExecutionContext) ClearedCookies() []string {
	return ec.clearCookies
}
