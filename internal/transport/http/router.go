// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services and encode; no business logic lives here.
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"usemy/internal/account"
	"usemy/internal/profile"
	"usemy/internal/registry"
	"usemy/internal/session"
)

// RegistryLookup is the slice of the company registry the transport needs.
type RegistryLookup interface {
	Lookup(ctx context.Context, siret string) (*registry.Company, error)
}

// Handler bundles the services the routes delegate to.
type Handler struct {
	accounts *account.Service
	state    *session.State
	store    profile.Store
	registry RegistryLookup
	log      *zap.Logger
}

func NewHandler(accounts *account.Service, state *session.State, store profile.Store, reg RegistryLookup, log *zap.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		state:    state,
		store:    store,
		registry: reg,
		log:      log,
	}
}

// NewRouter wires all endpoints. gatherer feeds /metrics; pass the registry
// the application metrics were registered on.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(deviceMiddleware)

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.handleSignUp)
			r.Post("/signin", h.handleSignIn)
			r.Post("/signout", h.handleSignOut)
			r.Get("/session", h.handleSession)
		})
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/me", h.handleGetProfile)
			r.Patch("/me", h.handlePatchProfile)
		})
		r.Get("/registry/siret/{siret}", h.handleRegistryLookup)
	})

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
