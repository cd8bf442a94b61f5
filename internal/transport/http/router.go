package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/stayhub/stayhub-api/internal/application/recovery"
	"github.com/stayhub/stayhub-api/internal/application/session"
	"github.com/stayhub/stayhub-api/internal/application/user"
	"github.com/stayhub/stayhub-api/internal/config"
	"github.com/stayhub/stayhub-api/internal/domain"
	"github.com/stayhub/stayhub-api/internal/transport/http/handler"
	appmiddleware "github.com/stayhub/stayhub-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to the credential and
	// recovery endpoints, which are open to guessing.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	userSvc := user.NewService(deps.UserRepo)
	sessionSvc := session.NewService(deps.UserRepo, deps.JWTProvider)
	recoverySvc := recovery.NewService(recovery.ServiceDeps{
		Codes:       deps.Codes,
		Users:       deps.UserRepo,
		Mailer:      deps.Mailer,
		CodeTTL:     cfg.CodeTTL,
		ResetWindow: cfg.ResetWindow,
	})

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(userSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	recoveryH := handler.NewPasswordRecoveryHandler(recoverySvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/users/register", userH.Register)
		r.Route("/password-recovery", func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/send-code", recoveryH.SendCode)
			r.Post("/verify-code", recoveryH.VerifyCode)
			r.Post("/reset", recoveryH.Reset)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/users/info", userH.GetInfo)
			r.Post("/users/logout", sessionH.Logout)

			// Admin console
			r.With(appmiddleware.RequireRole(domain.RoleAdmin)).Get("/users/{id}", userH.Get)
		})
	})

	return r
}
