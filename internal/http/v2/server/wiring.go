// Package server arma el handler HTTP v2 con todas sus dependencias.
package server

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/dropDatabas3/gatejohn/internal/cache"
	"github.com/dropDatabas3/gatejohn/internal/clientauth"
	"github.com/dropDatabas3/gatejohn/internal/config"
	"github.com/dropDatabas3/gatejohn/internal/flow/steps"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/controllers"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/router"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/services"
	jwtx "github.com/dropDatabas3/gatejohn/internal/jwt"
	"github.com/dropDatabas3/gatejohn/internal/metrics"
	"github.com/dropDatabas3/gatejohn/internal/rate"
	"github.com/dropDatabas3/gatejohn/internal/security/password"
	"github.com/dropDatabas3/gatejohn/internal/store/pg"
	"github.com/dropDatabas3/gatejohn/internal/webauthn"
	rdb "github.com/redis/go-redis/v9"
)

// sessionCookie es la cookie con el session ID del flujo de navegador.
const sessionCookie = "gj_flow"

// Build construye el handler v2 completo. El cleanup cierra pool y cache.
func Build(ctx context.Context, cfg *config.Config) (http.Handler, func() error, error) {
	// 1. Store
	store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("store: %w", err)
	}

	// 2. Cache
	host, port := splitAddr(cfg.Cache.Redis.Addr)
	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Kind,
		Host:     host,
		Port:     port,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	cleanup := func() error {
		store.Close()
		return cacheClient.Close()
	}

	// 3. Issuer de tokens internos
	keys, err := jwtx.LoadOrCreate(cfg.JWT.KeyPath, cfg.JWT.KID)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("jwt keys: %w", err)
	}
	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, keys)
	issuer.ResetTTL = config.Dur(cfg.JWT.ResetTTL, issuer.ResetTTL)
	issuer.RememberMeTTL = config.Dur(cfg.JWT.RememberMeTTL, issuer.RememberMeTTL)
	issuer.DeviceTTL = config.Dur(cfg.JWT.DeviceTTL, issuer.DeviceTTL)
	issuer.MFATTL = config.Dur(cfg.JWT.MFATTL, issuer.MFATTL)

	// 4. Verificadores de attestation
	verifyOpts, err := loadTrustRoots(cfg)
	if err != nil {
		_ = cleanup()
		return nil, nil, err
	}
	registry := webauthn.NewRegistry(verifyOpts)

	// 5. Repos
	clients := store.Clients()
	users := store.Users()
	credentials := store.Credentials()
	idps := store.IdentityProviders()
	trustedDevices := store.TrustedDevices()

	// 6. Servicios
	devices := &services.DeviceService{Issuer: issuer, Devices: trustedDevices}

	chain := steps.DefaultChain(steps.Deps{
		Pages: steps.Pages{
			Login:            cfg.Pages.Login,
			LoginIdentifier:  cfg.Pages.LoginIdentifier,
			LoginCallback:    cfg.Pages.LoginCallback,
			ResetPassword:    cfg.Pages.ResetPassword,
			SPNEGO:           cfg.Pages.SPNEGO,
			WebAuthnLogin:    cfg.Pages.WebAuthnLogin,
			WebAuthnRegister: cfg.Pages.WebAuthnRegister,
			MFAEnroll:        cfg.Pages.MFAEnroll,
			MFAChallenge:     cfg.Pages.MFAChallenge,
		},
		Users:            users,
		IdPs:             idps,
		Reset:            issuer,
		Session:          issuer,
		Devices:          devices,
		RememberMeCookie: cfg.Auth.RememberMeCookie,
		DeviceCookie:     cfg.Auth.DeviceCookie,
	})

	sessions := &services.SessionStore{Cache: cacheClient}
	authorizeSvc := &services.AuthorizeService{
		Clients:       clients,
		Users:         users,
		Chain:         chain,
		Sessions:      sessions,
		SessionCookie: sessionCookie,
	}
	loginSvc := &services.LoginService{Users: users, Issuer: issuer}

	blacklist, err := password.LoadBlacklist(cfg.Auth.PasswordBlacklist)
	if err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("password blacklist: %w", err)
	}
	resetSvc := &services.ResetService{
		Users:  users,
		Issuer: issuer,
		Policy: password.Policy{
			MinLength:    cfg.Auth.PasswordMinLength,
			RequireUpper: true,
			RequireLower: true,
			RequireDigit: true,
		},
		Blacklist: blacklist,
	}

	auth := clientauth.New(clientauth.Deps{
		Secrets:          &services.RepoSecretSource{Clients: clients},
		Assertions:       &services.AssertionService{Clients: clients},
		ForwardedCertHdr: cfg.Auth.ForwardedCertHdr,
	})
	tokenSvc := &services.TokenService{Clients: clients, Auth: auth, Cache: cacheClient}

	webauthnSvc := &services.WebAuthnService{
		RPID:         cfg.WebAuthn.RPID,
		RPOrigin:     cfg.WebAuthn.RPOrigin,
		Registry:     registry,
		Users:        users,
		Credentials:  credentials,
		Cache:        cacheClient,
		ChallengeTTL: config.Dur(cfg.WebAuthn.ChallengeTTL, 5*time.Minute),
	}

	// 7. Métricas
	if err := metrics.RegisterAuth(nil); err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}

	// 8. Controllers + router
	deps := router.Deps{
		Auth: &controllers.AuthController{
			Authorize:        authorizeSvc,
			Login:            loginSvc,
			Reset:            resetSvc,
			SessionCookie:    sessionCookie,
			RememberMeCookie: cfg.Auth.RememberMeCookie,
			CookieDomain:     cfg.Auth.CookieDomain,
			CookieSecure:     cfg.Auth.CookieSecure,
		},
		OAuth: &controllers.OAuthController{Tokens: tokenSvc},
		WebAuthn: &controllers.WebAuthnController{
			Service:      webauthnSvc,
			Devices:      devices,
			DeviceCookie: cfg.Auth.DeviceCookie,
			CookieDomain: cfg.Auth.CookieDomain,
			CookieSecure: cfg.Auth.CookieSecure,
		},
	}
	if cfg.Rate.Enabled {
		// Un solo cliente Redis compartido por los tres limiters.
		var rc *rdb.Client
		if cfg.Cache.Kind == "redis" {
			rc = rdb.NewClient(&rdb.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
		}
		deps.TokenLimiter = buildLimiter(rc, cfg.Rate.Token.Limit, cfg.Rate.Token.Window, "rl:token:")
		deps.AuthorizeLimiter = buildLimiter(rc, cfg.Rate.Authorize.Limit, cfg.Rate.Authorize.Window, "rl:authz:")
		deps.WebAuthnLimiter = buildLimiter(rc, cfg.Rate.WebAuthn.Limit, cfg.Rate.WebAuthn.Window, "rl:wa:")
	}

	return router.New(deps), cleanup, nil
}

// buildLimiter usa Redis cuando hay cliente; si no, fixed-window local.
func buildLimiter(rc *rdb.Client, limit int, window, prefix string) rate.Limiter {
	w := config.Dur(window, time.Minute)
	if rc != nil {
		return rate.NewRedisLimiter(rc, prefix, limit, w)
	}
	return rate.NewMemoryLimiter(limit, w)
}

// splitAddr descompone "host:puerto"; sin puerto retorna 0 (default del cache).
func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return addr, 0
	}
	return host, port
}

// loadTrustRoots carga los anchors de attestation configurados.
func loadTrustRoots(cfg *config.Config) (*webauthn.VerifyOptions, error) {
	opts := &webauthn.VerifyOptions{}

	var err error
	if opts.SafetyNetRoots, err = loadPool(cfg.WebAuthn.SafetyNetRoots); err != nil {
		return nil, fmt.Errorf("safetynet roots: %w", err)
	}
	if opts.U2FRoots, err = loadPool(cfg.WebAuthn.U2FRoots); err != nil {
		return nil, fmt.Errorf("u2f roots: %w", err)
	}
	if opts.PackedRoots, err = loadPool(cfg.WebAuthn.PackedRoots); err != nil {
		return nil, fmt.Errorf("packed roots: %w", err)
	}
	if cfg.WebAuthn.AppleRoot != "" {
		cert, err := loadCert(cfg.WebAuthn.AppleRoot)
		if err != nil {
			return nil, fmt.Errorf("apple root: %w", err)
		}
		opts.AppleRoot = cert
	}
	return opts, nil
}

func loadPool(path string) (*x509.CertPool, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(b) {
		return nil, fmt.Errorf("no certificates in %s", path)
	}
	return pool, nil
}

func loadCert(path string) (*x509.Certificate, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	return x509.ParseCertificate(block.Bytes)
}
