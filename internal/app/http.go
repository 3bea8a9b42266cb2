package app

import (
	"context"
	"net/http"

	authhandler "github.com/ToonLance/freelancer-nest-profile/internal/auth/handler"
	"github.com/ToonLance/freelancer-nest-profile/internal/auth/provider"
	"github.com/ToonLance/freelancer-nest-profile/internal/auth/provider/google"
	"github.com/ToonLance/freelancer-nest-profile/internal/auth/provider/keycloak"
	"github.com/ToonLance/freelancer-nest-profile/internal/auth/resolver"
	"github.com/ToonLance/freelancer-nest-profile/internal/config"
	"github.com/ToonLance/freelancer-nest-profile/internal/guard"
	"github.com/ToonLance/freelancer-nest-profile/internal/logger"
	"github.com/ToonLance/freelancer-nest-profile/internal/middleware"
	"github.com/ToonLance/freelancer-nest-profile/internal/profile"
	profilehandler "github.com/ToonLance/freelancer-nest-profile/internal/profile/handler"
	"github.com/ToonLance/freelancer-nest-profile/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func setupHTTP(ctx context.Context, cfg config.Config) (http.Handler, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	identityResolver := resolver.NewDBResolver(infra.DB)
	profiles := profile.NewRepository(infra.DB)

	registry, err := setupProviders(ctx, cfg)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	routeGuard := guard.New(guard.DefaultDestinations, cfg.GuardWaitTimeout)

	sessionMiddleware := middleware.NewSessionMiddleware(
		sessionStore,
		profiles,
		session.Lifetime{
			Absolute: cfg.SessionTTL,
			Idle:     cfg.SessionIdleTimeout,
		},
		session.DefaultCookieOptions(cfg.CookieSecure),
	)

	authHandler := authhandler.NewHandler(
		registry,
		identityResolver,
		routeGuard,
		guard.DefaultDestinations,
		cfg.CookieSecure,
	)

	profileHandler := profilehandler.NewHandler(
		profiles,
		routeGuard,
		cfg.CookieSecure,
	)

	// ----------------------------
	// Router
	// ----------------------------

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	router.GET("/health", healthHandler(infra))

	// ----------------------------
	// Session-aware routes
	// ----------------------------

	web := router.Group("/")
	web.Use(middleware.GinSession(sessionMiddleware))

	authHandler.RegisterRoutes(web)
	profileHandler.RegisterRoutes(web)

	for _, route := range router.Routes() {
		logger.Debug("route registered", map[string]any{
			"method": route.Method,
			"path":   route.Path,
		})
	}

	// ----------------------------
	// CORS
	// ----------------------------

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(router)

	// ----------------------------
	// Cleanup
	// ----------------------------

	return handler, infra.Close, nil
}

// setupProviders registers Google and, when configured, Keycloak.
func setupProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	googleProvider, err := google.New(
		ctx,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
	)
	if err != nil {
		return nil, err
	}

	providers := []provider.OAuthProvider{googleProvider}

	if cfg.KeycloakEnabled() {
		keycloakProvider, err := keycloak.New(
			ctx,
			cfg.KeycloakIssuer,
			cfg.KeycloakClientID,
			cfg.KeycloakRedirectURL,
			cfg.KeycloakPublicBaseURL,
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, keycloakProvider)
	}

	return provider.NewRegistry(providers...), nil
}

// healthHandler answers 200 while Postgres and Redis respond, 503 otherwise.
func healthHandler(infra *Infra) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := infra.Check(c.Request.Context()); err != nil {
			logger.Warn("health check failed", map[string]any{
				"error": err.Error(),
			})
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
