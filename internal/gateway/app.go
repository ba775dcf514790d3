package gateway

import (
	"time"

	"go.uber.org/zap"

	"idadmin/pkg/cache"
	"idadmin/pkg/identity"
)

// Config holds gateway-specific configuration.
type Config struct {
	HTTPAddr    string
	AdminAPIKey string
	// How long fetched revocation cutoffs may be reused by the verify
	// endpoint. Zero disables caching even when redis is configured.
	CutoffTTL time.Duration
}

// App is the admin-gateway application container: a thin REST facade over the
// identity SDK. Keep it lean: shared deps and config only, request-scoped
// work goes through context.
type App struct {
	log     *zap.SugaredLogger
	sdk     *identity.Client
	cutoffs *cache.CutoffCache
	cfg     Config
}

func New(log *zap.SugaredLogger, sdk *identity.Client, cutoffs *cache.CutoffCache, cfg Config) *App {
	return &App{log: log, sdk: sdk, cutoffs: cutoffs, cfg: cfg}
}
