package main

import (
	"net/http"
	"time"

	"idadmin/internal/gateway"
	"idadmin/pkg/cache"
	"idadmin/pkg/config"
	"idadmin/pkg/identity"
	"idadmin/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	translator := identity.NewTranslator()
	if cfg.ErrorTablePath != "" {
		if err := translator.LoadOverlay(cfg.ErrorTablePath); err != nil {
			log.Fatalf("error table: %v", err)
		}
	}

	opts := []identity.Option{
		identity.WithLogger(log),
		identity.WithTranslator(translator),
		identity.WithTimeout(cfg.HTTPTimeout),
	}
	if cfg.AccessToken != "" {
		opts = append(opts, identity.WithCredential(identity.StaticCredential(cfg.AccessToken)))
	}
	if cfg.TenantID != "" {
		opts = append(opts, identity.WithTenant(cfg.TenantID))
	}
	if cfg.JWKSURL != "" {
		opts = append(opts, identity.WithJWKS(cfg.JWKSURL))
	}
	if cfg.TokenIssuer != "" {
		opts = append(opts, identity.WithIssuer(cfg.TokenIssuer))
	}
	sdk, err := identity.New(cfg.BackendURL, cfg.ProjectID, opts...)
	if err != nil {
		log.Fatalf("sdk: %v", err)
	}

	cutoffs := cache.NewCutoffCache(cache.MustRedis(cfg, log), 30*time.Second)
	app := gateway.New(log, sdk, cutoffs, gateway.Config{
		HTTPAddr:    cfg.HTTPAddr,
		AdminAPIKey: cfg.AdminAPIKey,
		CutoffTTL:   30 * time.Second,
	})

	log.Infof("admin-gateway listening at %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, app.Handler()); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
