package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/config"
	jwtinfra "github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/infrastructure/jwt"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/transport/http/handler"
	appmiddleware "github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limit := func(next http.Handler) http.Handler { return next }
	if deps.RateLimiter != nil {
		limit = deps.RateLimiter.Limit
	}

	healthH := handler.NewHealthHandler()
	verifyH := handler.NewVerificationHandler(deps.Verification)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.Use(limit)
			r.Post("/request-otp", verifyH.RequestOTP)
			r.Post("/verify-otp", verifyH.VerifyOTP)
			r.Post("/signup", verifyH.Signup)
			r.Post("/reset-password", verifyH.ResetPassword)
		})

		if deps.JWTProvider != nil && deps.Retention != nil {
			adminH := handler.NewAdminHandler(deps.Retention)
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.Auth(deps.JWTProvider))
				r.Use(appmiddleware.RequireRole(jwtinfra.RoleAdmin))
				r.Post("/admin/retention/run", adminH.RunRetention)
			})
		}
	})

	return r
}
