package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idadmin/pkg/middleware"
)

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(a.log))
	r.Use(middleware.Tracing())
	r.Use(middleware.AdminKey(a.cfg.AdminAPIKey))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(vr chi.Router) {
		vr.Get("/users", a.listUsers)
		vr.Post("/users", a.createUser)
		vr.Post("/users:import", a.importUsers)
		vr.Get("/users/{uid}", a.getUser)
		vr.Patch("/users/{uid}", a.updateUser)
		vr.Delete("/users/{uid}", a.deleteUser)
		vr.Post("/users/{uid}:revoke", a.revokeUser)

		vr.Get("/providers/oidc", a.listOIDCConfigs)
		vr.Post("/providers/oidc", a.createOIDCConfig)
		vr.Get("/providers/oidc/{id}", a.getOIDCConfig)
		vr.Patch("/providers/oidc/{id}", a.updateOIDCConfig)
		vr.Delete("/providers/oidc/{id}", a.deleteOIDCConfig)

		vr.Get("/providers/saml", a.listSAMLConfigs)
		vr.Post("/providers/saml", a.createSAMLConfig)
		vr.Get("/providers/saml/{id}", a.getSAMLConfig)
		vr.Patch("/providers/saml/{id}", a.updateSAMLConfig)
		vr.Delete("/providers/saml/{id}", a.deleteSAMLConfig)

		vr.Post("/sessions", a.createSessionCookie)
		vr.Post("/sessions:verify", a.verifySession)
		vr.Post("/links", a.emailActionLink)
	})
	return r
}
