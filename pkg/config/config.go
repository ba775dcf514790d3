// pkg/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string // admin-gateway bind address

	// Identity backend the SDK talks to
	BackendURL string
	ProjectID  string
	TenantID   string // optional; empty means project-level operations

	// Credential attached as a bearer token on outbound calls. Minting and
	// refresh live outside this repo; a static value is enough for the
	// gateway and for dev.
	AccessToken string

	// Shared secret required on inbound gateway requests
	AdminAPIKey string

	HTTPTimeout time.Duration

	// Issuer accepted when verifying session artifacts. Empty means derive
	// from BackendURL + project path.
	TokenIssuer string
	JWKSURL     string

	// Optional YAML overlay extending the backend error-code table
	ErrorTablePath string

	RedisURL string
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:            env("IDADMIN_ENV", "dev"),
		HTTPAddr:       env("IDADMIN_HTTP_ADDR", ":8084"),
		BackendURL:     env("IDADMIN_BACKEND_URL", "http://localhost:9099"),
		ProjectID:      env("IDADMIN_PROJECT_ID", ""),
		TenantID:       env("IDADMIN_TENANT_ID", ""),
		AccessToken:    env("IDADMIN_ACCESS_TOKEN", ""),
		AdminAPIKey:    env("IDADMIN_API_KEY", ""),
		HTTPTimeout:    envDur("IDADMIN_HTTP_TIMEOUT_SEC", 30) * time.Second,
		TokenIssuer:    env("IDADMIN_TOKEN_ISSUER", ""),
		JWKSURL:        env("IDADMIN_JWKS_URL", ""),
		ErrorTablePath: env("IDADMIN_ERROR_TABLE", ""),
		RedisURL:       env("REDIS_URL", ""),
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
