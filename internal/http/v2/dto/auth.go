// Package dto define los requests/responses JSON de la API v2.
package dto

// LoginRequest es el POST del formulario de login.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me,omitempty"`
	ReturnURL  string `json:"return_url,omitempty"`
}

// LoginResponse devuelve el resultado del login de formulario.
type LoginResponse struct {
	UserID    string `json:"user_id"`
	ReturnURL string `json:"return_url,omitempty"`
}

// AuthorizeResponse describe la acción que decidió la cadena de
// autenticación para el request.
type AuthorizeResponse struct {
	// Status: "authenticated" | "redirect"
	Status string `json:"status"`

	// ExitedAt es el paso que cortó la cadena ("" si ninguno).
	ExitedAt string `json:"exited_at,omitempty"`

	// RedirectURL es el destino cuando status == "redirect".
	RedirectURL string `json:"redirect_url,omitempty"`
}

// ResetPasswordRequest completa el sub-flujo de reset forzado.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
