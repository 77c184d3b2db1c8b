// Package httpapi exposes the admin and rendering HTTP API over the
// content, catalog, and tenant services.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/canopysites/canopy/access"
	"github.com/canopysites/canopy/audit"
	"github.com/canopysites/canopy/catalog"
	"github.com/canopysites/canopy/content"
	"github.com/canopysites/canopy/tenant"
)

// Server is the HTTP server that wires all application routes and
// middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server

	tenants  *tenant.Provisioner
	pages    *content.Router
	products *catalog.Service
	verifier *access.Verifier
	audit    audit.Publisher
	metrics  *Metrics
}

// Deps bundles the services the server exposes.
type Deps struct {
	Tenants  *tenant.Provisioner
	Pages    *content.Router
	Products *catalog.Service
	Verifier *access.Verifier
	Audit    audit.Publisher
	Registry *prometheus.Registry
}

// New creates a Server with all routes wired.
func New(addr string, deps Deps) *Server {
	if deps.Audit == nil {
		deps.Audit = audit.NopPublisher{}
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	router := chi.NewRouter()
	s := &Server{
		router:   router,
		tenants:  deps.Tenants,
		pages:    deps.Pages,
		products: deps.Products,
		verifier: deps.Verifier,
		audit:    deps.Audit,
		metrics:  NewMetrics(registry),
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
	s.httpServer.Handler = router

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(requestLogger)
	router.Use(chimw.Recoverer)
	router.Use(instrument(s.metrics))
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	// Admin API: every route resolves the bearer token; per-handler checks
	// enforce role and tenant scope.
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate(s.verifier))

		r.Post("/tenants", s.handleProvisionTenant)
		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Get("/", s.handleGetTenant)
			r.Patch("/", s.handleUpdateTenant)

			r.Route("/pages", func(r chi.Router) {
				r.Post("/", s.handleCreatePage)
				r.Get("/{nodeID}", s.handleGetPage)
				r.Patch("/{nodeID}", s.handleUpdatePage)
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", s.handleCreateProduct)
				r.Get("/{productID}", s.handleGetProduct)
				r.Patch("/{productID}", s.handleUpdateProduct)
				r.Delete("/{productID}", s.handleDeleteProduct)
			})

			r.Get("/categories/{categoryID}/products", s.handleListCategory)
		})
	})

	// Public rendering endpoint (published content only).
	router.Get("/r/{tenantID}/*", s.handleRender)

	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return s
}

// Handler returns the underlying router. Used by tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpapi: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	return nil
}

// authorize checks the request's principal against the required roles for
// the target tenant.
func (s *Server) authorize(r *http.Request, required []access.Role, targetTenant string) (*access.Principal, error) {
	p := principalFrom(r.Context())
	if p == nil {
		return nil, access.ErrUnauthenticated
	}
	if err := access.Authorize(p, required, targetTenant); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Server) publishAudit(ctx context.Context, p *access.Principal, tenantID, action string, detail map[string]any) {
	s.audit.Publish(ctx, audit.Event{
		TenantID: tenantID,
		Actor:    p.Subject,
		Action:   action,
		Detail:   detail,
	})
}

var (
	rolesRead  = []access.Role{access.RoleAdmin, access.RoleEditor, access.RoleViewer}
	rolesWrite = []access.Role{access.RoleAdmin, access.RoleEditor}
	rolesAdmin = []access.Role{access.RoleAdmin}
)
