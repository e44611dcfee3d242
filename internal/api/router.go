package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/hollis/causeconnect/internal/api/handlers"
	"github.com/hollis/causeconnect/internal/api/middleware"
	"github.com/hollis/causeconnect/internal/auth"
	"github.com/hollis/causeconnect/internal/authz"
	"github.com/hollis/causeconnect/internal/database/models"
	"github.com/hollis/causeconnect/pkg/config"
	"github.com/hollis/causeconnect/pkg/crypto"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	Gate           *authz.Gate
	Encryptor      *crypto.Encryptor
	AsynqClient    *asynq.Client
	Uploads        config.UploadConfig
	BaseURL        string
	Production     bool
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.AsynqClient, cfg.Logger, cfg.BaseURL, cfg.Production)
	userHandler := handlers.NewUserHandler(cfg.DB, cfg.AuthService, cfg.Gate, cfg.Logger)
	personHandler := handlers.NewPersonHandler(cfg.DB)
	companyHandler := handlers.NewCompanyHandler(cfg.DB)
	schoolHandler := handlers.NewSchoolHandler(cfg.DB)
	donationHandler := handlers.NewDonationHandler(cfg.DB, cfg.AsynqClient, cfg.Logger)
	certificationHandler := handlers.NewCertificationHandler(cfg.DB)
	noteHandler := handlers.NewNoteHandler(cfg.DB)
	attachmentHandler := handlers.NewAttachmentHandler(cfg.DB, cfg.Encryptor, cfg.Gate, cfg.Uploads, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/auth/reset-password", authHandler.ResetPassword)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				identity := middleware.GetIdentity(r.Context())
				user, err := cfg.AuthService.GetUserByID(r.Context(), identity.UserID)
				if err != nil {
					http.Error(w, "User not found", http.StatusNotFound)
					return
				}
				writeJSON(w, http.StatusOK, user)
			})

			// Contact entities, each gated by the permission matrix for
			// its own entity type.
			entityRoutes(r, "/people", cfg.Gate, models.EntityPerson, crudHandlers{
				List: personHandler.List, Get: personHandler.Get,
				Create: personHandler.Create, Update: personHandler.Update,
				Delete: personHandler.Delete,
			})
			entityRoutes(r, "/companies", cfg.Gate, models.EntityCompany, crudHandlers{
				List: companyHandler.List, Get: companyHandler.Get,
				Create: companyHandler.Create, Update: companyHandler.Update,
				Delete: companyHandler.Delete,
			})
			entityRoutes(r, "/schools", cfg.Gate, models.EntitySchool, crudHandlers{
				List: schoolHandler.List, Get: schoolHandler.Get,
				Create: schoolHandler.Create, Update: schoolHandler.Update,
				Delete: schoolHandler.Delete,
			})
			entityRoutes(r, "/donations", cfg.Gate, models.EntityDonation, crudHandlers{
				List: donationHandler.List, Get: donationHandler.Get,
				Create: donationHandler.Create, Update: donationHandler.Update,
				Delete: donationHandler.Delete,
			})
			entityRoutes(r, "/certifications", cfg.Gate, models.EntityCertification, crudHandlers{
				List: certificationHandler.List, Get: certificationHandler.Get,
				Create: certificationHandler.Create, Update: certificationHandler.Update,
				Delete: certificationHandler.Delete,
			})
			entityRoutes(r, "/notes", cfg.Gate, models.EntityNote, crudHandlers{
				List: noteHandler.List, Get: noteHandler.Get,
				Create: noteHandler.Create, Update: noteHandler.Update,
				Delete: noteHandler.Delete,
			})

			// Attachments check permissions against the entity they are
			// pinned to, inside the handler.
			r.Route("/attachments", func(r chi.Router) {
				r.Get("/", attachmentHandler.List)
				r.Post("/", attachmentHandler.Upload)
				r.Get("/{id}", attachmentHandler.Get)
				r.Get("/{id}/download", attachmentHandler.Download)
				r.Delete("/{id}", attachmentHandler.Delete)
			})

			// Admin-only account management
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", userHandler.List)
				r.Post("/{id}/activate", userHandler.Activate)
				r.Post("/{id}/reset-password", userHandler.ResetPassword)
				r.Get("/{id}/permissions", userHandler.GetPermissions)
				r.Put("/{id}/permissions", userHandler.UpdatePermissions)
			})
		})
	})

	return &Router{r}
}

type crudHandlers struct {
	List   http.HandlerFunc
	Get    http.HandlerFunc
	Create http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
}

func entityRoutes(r chi.Router, pattern string, gate *authz.Gate, entityType string, h crudHandlers) {
	r.Route(pattern, func(r chi.Router) {
		r.Use(middleware.RequirePermission(gate, entityType))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
