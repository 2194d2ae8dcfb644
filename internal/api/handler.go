package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"shelfkeeper/m/domain"
	"shelfkeeper/m/internal/service"
)

// CORSOptions configures cross-origin access for browser clients.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	identity    *service.IdentityService
	catalog     *service.CatalogService
	circulation *service.CirculationService
	log         *logrus.Logger
	cors        CORSOptions
}

// New constructs a Handler.
func New(identity *service.IdentityService, catalog *service.CatalogService, circulation *service.CirculationService, log *logrus.Logger, corsOpts CORSOptions) *Handler {
	return &Handler{
		identity:    identity,
		catalog:     catalog,
		circulation: circulation,
		log:         log,
		cors:        corsOpts,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cors.AllowedOrigins,
		AllowedMethods:   h.cors.AllowedMethods,
		AllowedHeaders:   h.cors.AllowedHeaders,
		AllowCredentials: h.cors.AllowCredentials,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.Post("/token/refresh", h.refreshToken)
		r.Post("/logout", h.logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(h.authMiddleware)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireRole(domain.RoleAdmin))
			r.Get("/books", h.adminListBooks)
			r.Post("/books", h.createBooks)
			r.Get("/books/{id}", h.getBook)
			r.Put("/books/{id}", h.updateBook)
			r.Patch("/books/{id}", h.updateBook)
			r.Delete("/books/{id}", h.deleteBook)
			r.Get("/borrowed-books", h.activeBorrows)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", h.listBooks)
			r.Get("/history", h.history)
			r.Post("/{id}/borrow", h.borrow)
			r.Post("/{id}/return", h.returnBook)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
