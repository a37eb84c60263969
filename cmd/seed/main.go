package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/gatejohn/internal/config"
	"github.com/dropDatabas3/gatejohn/internal/security/password"
	"github.com/dropDatabas3/gatejohn/internal/security/secretbox"
)

func strEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Seed de desarrollo: un usuario demo, un client confidential y un IdP.
// Idempotente vía ON CONFLICT.
func main() {
	_ = godotenv.Load()

	cfgPath := strEnv("CONFIG_PATH", "config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		email        = strEnv("SEED_EMAIL", "demo@example.com")
		plain        = strEnv("SEED_PASSWORD", "Demo12345!")
		clientID     = strEnv("SEED_CLIENT_ID", "demo-web")
		clientSecret = strEnv("SEED_CLIENT_SECRET", "demo-secret")
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	phc, err := password.Hash(password.Default, plain)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}
	userID := uuid.NewString()
	_, err = pool.Exec(ctx, `
		INSERT INTO app_user (id, email, email_verified, name, password_hash)
		VALUES ($1, $2, TRUE, 'Demo User', $3)
		ON CONFLICT (id) DO NOTHING
	`, userID, email, phc)
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}

	secretEnc, err := secretbox.Encrypt(clientSecret)
	if err != nil {
		log.Fatalf("encrypt secret (¿SECRETBOX_MASTER_KEY?): %v", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO oidc_client
			(id, client_id, name, type, redirect_uris, scopes, secret_enc,
			 token_endpoint_auth_method, remember_me, remember_device)
		VALUES ($1, $2, 'Demo Web', 'confidential',
		        ARRAY['http://localhost:3000/callback'], ARRAY['openid','profile'],
		        $3, 'client_secret_basic', TRUE, TRUE)
		ON CONFLICT (client_id) DO UPDATE SET secret_enc = EXCLUDED.secret_enc
	`, uuid.NewString(), clientID, secretEnc)
	if err != nil {
		log.Fatalf("seed client: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO identity_provider (id, type, name, enabled)
		VALUES ('kerberos-corp', 'kerberos', 'Corp Kerberos', TRUE)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		log.Fatalf("seed idp: %v", err)
	}

	log.Printf("seed listo. email=%s client_id=%s", email, clientID)
}
