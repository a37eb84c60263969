package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		MetricsAddr        string   `yaml:"metrics_addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Issuer        string `yaml:"issuer"`
		KeyPath       string `yaml:"key_path"` // seed Ed25519; vacío = efímera
		KID           string `yaml:"kid"`
		ResetTTL      string `yaml:"reset_ttl"`
		RememberMeTTL string `yaml:"remember_me_ttl"`
		DeviceTTL     string `yaml:"device_ttl"`
		MFATTL        string `yaml:"mfa_ttl"`
	} `yaml:"jwt"`

	WebAuthn struct {
		RPID           string `yaml:"rp_id"`
		RPOrigin       string `yaml:"rp_origin"`
		ChallengeTTL   string `yaml:"challenge_ttl"`
		SafetyNetRoots string `yaml:"safetynet_roots"` // PEM bundle
		AppleRoot      string `yaml:"apple_root"`
		U2FRoots       string `yaml:"u2f_roots"`
		PackedRoots    string `yaml:"packed_roots"`
	} `yaml:"webauthn"`

	Auth struct {
		RememberMeCookie  string `yaml:"remember_me_cookie"`
		DeviceCookie      string `yaml:"device_cookie"`
		ForwardedCertHdr  string `yaml:"forwarded_cert_header"`
		CookieDomain      string `yaml:"cookie_domain"`
		CookieSecure      bool   `yaml:"cookie_secure"`
		PasswordMinLength int    `yaml:"password_min_length"`
		PasswordBlacklist string `yaml:"password_blacklist"` // path, opcional
	} `yaml:"auth"`

	Pages struct {
		Login            string `yaml:"login"`
		LoginIdentifier  string `yaml:"login_identifier"`
		LoginCallback    string `yaml:"login_callback"`
		ResetPassword    string `yaml:"reset_password"`
		SPNEGO           string `yaml:"spnego"`
		WebAuthnLogin    string `yaml:"webauthn_login"`
		WebAuthnRegister string `yaml:"webauthn_register"`
		MFAEnroll        string `yaml:"mfa_enroll"`
		MFAChallenge     string `yaml:"mfa_challenge"`
	} `yaml:"pages"`

	Rate struct {
		Enabled bool `yaml:"enabled"`

		Token struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"token"`

		Authorize struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"authorize"`

		WebAuthn struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"webauthn"`
	} `yaml:"rate"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9090"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.JWT.KID == "" {
		c.JWT.KID = "gatejohn-1"
	}
	if c.JWT.ResetTTL == "" {
		c.JWT.ResetTTL = "10m"
	}
	if c.JWT.RememberMeTTL == "" {
		c.JWT.RememberMeTTL = "720h" // 30d
	}
	if c.JWT.DeviceTTL == "" {
		c.JWT.DeviceTTL = "2160h" // 90d
	}
	if c.JWT.MFATTL == "" {
		c.JWT.MFATTL = "5m"
	}
	if c.WebAuthn.ChallengeTTL == "" {
		c.WebAuthn.ChallengeTTL = "5m"
	}
	if c.Auth.RememberMeCookie == "" {
		c.Auth.RememberMeCookie = "gj_remember"
	}
	if c.Auth.DeviceCookie == "" {
		c.Auth.DeviceCookie = "gj_device"
	}
	if c.Auth.PasswordMinLength == 0 {
		c.Auth.PasswordMinLength = 8
	}
	if c.Pages.Login == "" {
		c.Pages.Login = "/login"
	}
	if c.Pages.LoginIdentifier == "" {
		c.Pages.LoginIdentifier = "/login/identifier"
	}
	if c.Pages.LoginCallback == "" {
		c.Pages.LoginCallback = "/login/callback"
	}
	if c.Pages.ResetPassword == "" {
		c.Pages.ResetPassword = "/reset-password"
	}
	if c.Pages.SPNEGO == "" {
		c.Pages.SPNEGO = "/login/negotiate"
	}
	if c.Pages.WebAuthnLogin == "" {
		c.Pages.WebAuthnLogin = "/login/webauthn"
	}
	if c.Pages.WebAuthnRegister == "" {
		c.Pages.WebAuthnRegister = "/webauthn/register"
	}
	if c.Pages.MFAEnroll == "" {
		c.Pages.MFAEnroll = "/mfa/enroll"
	}
	if c.Pages.MFAChallenge == "" {
		c.Pages.MFAChallenge = "/mfa/challenge"
	}
	// Endpoint-specific rate limit defaults
	if c.Rate.Token.Limit == 0 {
		c.Rate.Token.Limit = 30
	}
	if c.Rate.Token.Window == "" {
		c.Rate.Token.Window = "1m"
	}
	if c.Rate.Authorize.Limit == 0 {
		c.Rate.Authorize.Limit = 60
	}
	if c.Rate.Authorize.Window == "" {
		c.Rate.Authorize.Window = "1m"
	}
	if c.Rate.WebAuthn.Limit == 0 {
		c.Rate.WebAuthn.Limit = 10
	}
	if c.Rate.WebAuthn.Window == "" {
		c.Rate.WebAuthn.Window = "1m"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_METRICS_ADDR"); ok {
		c.Server.MetricsAddr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_PG_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("CACHE_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("CACHE_REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("CACHE_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_KEY_PATH"); ok {
		c.JWT.KeyPath = v
	}

	// WEBAUTHN
	if v, ok := getEnvStr("WEBAUTHN_RP_ID"); ok {
		c.WebAuthn.RPID = v
	}
	if v, ok := getEnvStr("WEBAUTHN_RP_ORIGIN"); ok {
		c.WebAuthn.RPOrigin = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_FORWARDED_CERT_HEADER"); ok {
		c.Auth.ForwardedCertHdr = v
	}
	if v, ok := getEnvBool("AUTH_COOKIE_SECURE"); ok {
		c.Auth.CookieSecure = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
}

func (c *Config) Validate() error {
	if c.WebAuthn.RPID == "" {
		return fmt.Errorf("config: webauthn.rp_id requerido")
	}
	if c.JWT.Issuer == "" {
		return fmt.Errorf("config: jwt.issuer requerido")
	}
	if c.Cache.Kind == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: cache.redis.addr requerido con kind=redis")
	}
	return nil
}

// Dur parsea d; si es inválida o vacía devuelve def.
func Dur(d string, def time.Duration) time.Duration {
	if d == "" {
		return def
	}
	v, err := time.ParseDuration(d)
	if err != nil {
		return def
	}
	return v
}
