package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/innovacall/review-portal/internal/config"
	"github.com/innovacall/review-portal/internal/events"
	"github.com/innovacall/review-portal/internal/health"
	"github.com/innovacall/review-portal/internal/models"
	"github.com/innovacall/review-portal/internal/review"
	"github.com/innovacall/review-portal/internal/rubric"
	"github.com/innovacall/review-portal/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	reviews        *review.Service
	rubricLoader   *rubric.Loader
	healthRegistry *health.Registry
	bus            events.Bus
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	reviews *review.Service,
	loader *rubric.Loader,
	healthRegistry *health.Registry,
	bus events.Bus,
	repo storage.Repository,
) *Server {
	s := &Server{
		config:         cfg,
		reviews:        reviews,
		rubricLoader:   loader,
		healthRegistry: healthRegistry,
		bus:            bus,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	staffOnly := s.authMiddleware.RequireRole(models.RoleAdmin, models.RoleCoordinator)
	adminOnly := s.authMiddleware.RequireRole(models.RoleAdmin)

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		// Projects
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Post("/submit", s.handleSubmitProject)
				r.With(staffOnly).Post("/reviewers", s.handleAssignReviewers)
				r.Post("/reviews", s.handleSubmitReview)
				r.Get("/reviews", s.handleGetProjectReviews)
				r.Get("/quorum", s.handleGetQuorum)
				r.Post("/precorrection", s.handlePrecorrectionDecision)
				r.Post("/correction/start", s.handleStartCorrection)
				r.Post("/correction", s.handleResubmitCorrection)
				r.With(adminOnly).Post("/decision", s.handleFinalDecision)
				r.Get("/events", s.handleStatusEventsWS)
			})
		})

		// Reviews
		r.With(staffOnly).Delete("/reviews/{id}", s.handleDeleteReview)

		// Rubric catalog
		r.Route("/rubrics", func(r chi.Router) {
			r.Get("/", s.handleListRubrics)
			r.Get("/{category}", s.handleGetRubric)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
