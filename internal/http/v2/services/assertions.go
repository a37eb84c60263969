package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/gatejohn/internal/clientauth"
	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

const assertionTypeJWTBearer = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

var hmacAlgs = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// AssertionService valida client assertions JWT (private_key_jwt /
// client_secret_jwt). Implementa clientauth.AssertionVerifier.
type AssertionService struct {
	Clients repository.ClientRepository
}

// Verify valida la assertion y devuelve el client_id del emisor.
// Todo fallo criptográfico o de claims colapsa en ErrInvalidClient.
func (s *AssertionService) Verify(ctx context.Context, assertionType, assertion, basePath string) (string, error) {
	if assertionType != assertionTypeJWTBearer {
		return "", clientauth.ErrUnsupportedMethod
	}

	// Primer pase sin verificar: necesitamos iss para resolver el client
	// y elegir la clave.
	parser := jwtv5.NewParser()
	unverified, _, err := parser.ParseUnverified(assertion, jwtv5.MapClaims{})
	if err != nil {
		return "", clientauth.ErrInvalidClient
	}
	claims := unverified.Claims.(jwtv5.MapClaims)
	iss, _ := claims["iss"].(string)
	sub, _ := claims["sub"].(string)
	if iss == "" || iss != sub {
		return "", clientauth.ErrInvalidClient
	}

	client, err := s.Clients.Get(ctx, iss)
	if err != nil {
		return "", clientauth.ErrInvalidClient
	}

	alg, _ := unverified.Header["alg"].(string)
	isHMAC := hmacAlgs[alg]

	// Consistencia con el método declarado del client.
	switch client.TokenEndpointAuthMethod {
	case repository.AuthMethodPrivateKeyJWT:
		if isHMAC {
			return "", clientauth.ErrInvalidClient
		}
	case repository.AuthMethodSecretJWT:
		if !isHMAC {
			return "", clientauth.ErrInvalidClient
		}
	}

	keyfunc := func(t *jwtv5.Token) (any, error) {
		if isHMAC {
			secret, err := s.Clients.DecryptSecret(ctx, client)
			if err != nil {
				return nil, err
			}
			return []byte(secret), nil
		}
		return s.publicKeyFor(client, t)
	}

	tok, err := jwtv5.Parse(assertion, keyfunc,
		jwtv5.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512", "PS256", "EdDSA", "HS256", "HS384", "HS512"}),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		logger.From(ctx).Debug("client assertion rejected", logger.ClientID(iss), logger.Err(err))
		return "", clientauth.ErrInvalidClient
	}

	if !audienceMatches(claims, basePath) {
		return "", clientauth.ErrInvalidClient
	}
	return client.ClientID, nil
}

// publicKeyFor busca la clave de verificación en el JWKS registrado.
func (s *AssertionService) publicKeyFor(client *repository.Client, t *jwtv5.Token) (any, error) {
	if len(client.JWKS) == 0 {
		return nil, fmt.Errorf("client has no jwks")
	}
	set, err := jwk.Parse(client.JWKS)
	if err != nil {
		return nil, err
	}
	kid, _ := t.Header["kid"].(string)
	if kid != "" {
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("kid %q not in jwks", kid)
		}
		var raw any
		if err := jwk.Export(key, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
	// Sin kid: única clave del set.
	if set.Len() != 1 {
		return nil, fmt.Errorf("kid required with %d keys", set.Len())
	}
	key, ok := set.Key(0)
	if !ok {
		return nil, fmt.Errorf("empty jwks")
	}
	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// audienceMatches acepta el token endpoint completo o el base path del
// issuer como audience.
func audienceMatches(claims jwtv5.MapClaims, basePath string) bool {
	want := strings.TrimSuffix(basePath, "/")
	auds, err := claims.GetAudience()
	if err != nil {
		return false
	}
	for _, aud := range auds {
		a := strings.TrimSuffix(aud, "/")
		if a == want || a == want+"/v2/oauth/token" {
			return true
		}
	}
	return false
}
