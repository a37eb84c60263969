package dto

// RegisterOptionsRequest pide un challenge de registro.
type RegisterOptionsRequest struct {
	UserID string `json:"user_id"`
}

// RegisterOptionsResponse son las opciones para navigator.credentials.create.
type RegisterOptionsResponse struct {
	ChallengeID string `json:"challenge_id"`
	Challenge   string `json:"challenge"` // base64url
	RPID        string `json:"rp_id"`
	UserID      string `json:"user_id"`
	Timeout     int64  `json:"timeout_ms"`
}

// RegisterFinishRequest es la respuesta del authenticator al registro.
type RegisterFinishRequest struct {
	ChallengeID       string `json:"challenge_id"`
	UserID            string `json:"user_id"`
	ClientDataJSON    string `json:"client_data_json"`    // base64url
	AttestationObject string `json:"attestation_object"`  // base64url (CBOR)
}

// RegisterFinishResponse confirma la credencial creada.
type RegisterFinishResponse struct {
	CredentialID string `json:"credential_id"` // base64url
	AAGUID       string `json:"aaguid"`
	Format       string `json:"format"`
}

// LoginOptionsRequest pide un challenge de login.
type LoginOptionsRequest struct {
	UserID string `json:"user_id"`
}

// LoginOptionsResponse son las opciones para navigator.credentials.get.
type LoginOptionsResponse struct {
	ChallengeID string   `json:"challenge_id"`
	Challenge   string   `json:"challenge"`
	RPID        string   `json:"rp_id"`
	AllowedIDs  []string `json:"allowed_credential_ids"` // base64url
	Timeout     int64    `json:"timeout_ms"`
}

// LoginFinishRequest es la aserción del authenticator.
type LoginFinishRequest struct {
	ChallengeID       string `json:"challenge_id"`
	UserID            string `json:"user_id"`
	CredentialID      string `json:"credential_id"`      // base64url
	ClientDataJSON    string `json:"client_data_json"`   // base64url
	AuthenticatorData string `json:"authenticator_data"` // base64url
	Signature         string `json:"signature"`          // base64url
}

// LoginFinishResponse confirma el login passwordless.
type LoginFinishResponse struct {
	UserID    string `json:"user_id"`
	SignCount uint32 `json:"sign_count"`
}
