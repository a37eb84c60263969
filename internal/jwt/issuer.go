package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purposes de los tokens internos del gateway. Van en el claim "purpose"
// y se validan al parsear: un token de un sub-flujo no sirve en otro.
const (
	PurposeReset      = "reset_password"
	PurposeRememberMe = "remember_me"
	PurposeDevice     = "device"
	PurposeMFA        = "mfa_challenge"
)

var (
	ErrInvalidToken  = errors.New("invalid_jwt")
	ErrWrongPurpose  = errors.New("wrong_purpose")
	ErrInvalidIssuer = errors.New("invalid_issuer")
)

// Issuer firma los tokens internos (reset, remember-me, device, mfa)
// con la clave EdDSA activa.
type Issuer struct {
	Iss  string
	Keys *KeySet

	ResetTTL      time.Duration
	RememberMeTTL time.Duration
	DeviceTTL     time.Duration
	MFATTL        time.Duration
}

func NewIssuer(iss string, ks *KeySet) *Issuer {
	return &Issuer{
		Iss:           iss,
		Keys:          ks,
		ResetTTL:      10 * time.Minute,
		RememberMeTTL: 30 * 24 * time.Hour,
		DeviceTTL:     90 * 24 * time.Hour,
		MFATTL:        5 * time.Minute,
	}
}

// Keyfunc devuelve un jwt.Keyfunc que valida el 'kid' contra la clave activa.
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid != "" && kid != i.Keys.KID {
			return nil, errors.New("kid_unknown")
		}
		return i.Keys.Pub, nil
	}
}

func (i *Issuer) signRaw(claims jwtv5.MapClaims) (string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"
	return tk.SignedString(i.Keys.Priv)
}

func (i *Issuer) sign(purpose, sub string, ttl time.Duration, extra map[string]any) (string, error) {
	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"iss":     i.Iss,
		"sub":     sub,
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
		"purpose": purpose,
	}
	for k, v := range extra {
		claims[k] = v
	}
	return i.signRaw(claims)
}

// parse valida firma, iss, exp/nbf y purpose. Devuelve las claims.
func (i *Issuer) parse(token, purpose string) (jwtv5.MapClaims, error) {
	tok, err := jwtv5.Parse(token, i.Keyfunc(),
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if iss, _ := claims["iss"].(string); iss != i.Iss {
		return nil, ErrInvalidIssuer
	}
	if p, _ := claims["purpose"].(string); p != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

// SignResetToken firma el token corto que lleva al sub-flujo de reset.
func (i *Issuer) SignResetToken(userID, clientID, requestURI string) (string, error) {
	return i.sign(PurposeReset, userID, i.ResetTTL, map[string]any{
		"aud": clientID,
		"req": requestURI,
	})
}

// ParseResetToken valida un token de reset y devuelve userID y clientID.
func (i *Issuer) ParseResetToken(token string) (userID, clientID string, err error) {
	claims, err := i.parse(token, PurposeReset)
	if err != nil {
		return "", "", err
	}
	userID, _ = claims["sub"].(string)
	clientID, _ = claims["aud"].(string)
	return userID, clientID, nil
}

// SignRememberMe firma el token de la cookie remember-me.
func (i *Issuer) SignRememberMe(userID string) (string, error) {
	return i.sign(PurposeRememberMe, userID, i.RememberMeTTL, nil)
}

// ParseRememberMe decodifica y verifica la cookie remember-me.
func (i *Issuer) ParseRememberMe(token string) (string, error) {
	claims, err := i.parse(token, PurposeRememberMe)
	if err != nil {
		return "", err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// SignDeviceToken firma la cookie de dispositivo reconocido.
func (i *Issuer) SignDeviceToken(userID, deviceID string) (string, error) {
	return i.sign(PurposeDevice, userID, i.DeviceTTL, map[string]any{
		"device_id": deviceID,
	})
}

// ParseDeviceToken valida la cookie de dispositivo y devuelve user y device.
func (i *Issuer) ParseDeviceToken(token string) (userID, deviceID string, err error) {
	claims, err := i.parse(token, PurposeDevice)
	if err != nil {
		return "", "", err
	}
	userID, _ = claims["sub"].(string)
	deviceID, _ = claims["device_id"].(string)
	if userID == "" || deviceID == "" {
		return "", "", ErrInvalidToken
	}
	return userID, deviceID, nil
}

// SignMFAChallenge firma el token corto del desafío MFA pendiente.
func (i *Issuer) SignMFAChallenge(userID, factor string) (string, error) {
	return i.sign(PurposeMFA, userID, i.MFATTL, map[string]any{
		"factor": factor,
	})
}

// ParseMFAChallenge valida el token de desafío MFA.
func (i *Issuer) ParseMFAChallenge(token string) (userID, factor string, err error) {
	claims, err := i.parse(token, PurposeMFA)
	if err != nil {
		return "", "", err
	}
	userID, _ = claims["sub"].(string)
	factor, _ = claims["factor"].(string)
	return userID, factor, nil
}
