package http

import (
	"context"
	"net/http"

	"github.com/campus-auth/internal/config"
	"github.com/campus-auth/internal/transport/http/handler"
	appmiddleware "github.com/campus-auth/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps, svcs *Services) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Applied to every endpoint that issues or checks a secret.
	// Prefixes are checked by Config.Validate at startup.
	proxies, _ := cfg.ProxyPrefixes()
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, proxies...)
	authMw := appmiddleware.Auth(deps.JWTProvider)

	healthH := handler.NewHealthHandler(deps.Health)
	authH := handler.NewAuthHandler(svcs.Auth)
	profileH := handler.NewProfileHandler(svcs.Profiles)
	meH := handler.NewMeHandler(svcs.Accounts)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Health)
		r.Get("/unsupported", authH.Unsupported)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/supported-universities", authH.SupportedUniversities)
			r.With(sensitiveRL.Limit).Post("/validate-email", authH.ValidateEmail)
			r.With(sensitiveRL.Limit).Post("/verify-code", authH.VerifyCode)
			r.With(sensitiveRL.Limit).Post("/verify-trusted-token", authH.VerifyTrustedToken)
			r.With(sensitiveRL.Limit).Post("/trusted-token/status", authH.TrustedTokenStatus)
			r.With(authMw).Post("/profile-setup", profileH.Setup)

			r.With(authMw).Get("/me", meH.Get)
		})
	})

	return r
}
