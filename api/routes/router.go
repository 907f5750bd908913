// api/routes/router.go
package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"packly/internal/auth"
	"packly/internal/bags"
	"packly/internal/shared/config"
	"packly/internal/shared/database"
	"packly/pkg/ability"
	"packly/pkg/cache"
	"packly/pkg/csrf"
	"packly/pkg/token"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier auth.Notifier

	codec    *token.Codec
	guard    *csrf.Guard
	resolver ability.Resolver
	authRepo auth.Repository
}

// NewRouter creates a new router instance. The notifier may be nil when the
// notification pipeline is disabled; auth degrades to not sending email.
func NewRouter(cfg *config.Config, db *database.DB, notifier auth.Notifier) *Router {
	codec := token.NewCodec(token.Config{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		RememberMeTTL: cfg.JWT.RememberMeTTL,
	})

	guard := &csrf.Guard{
		CookieName:   cfg.CSRF.CookieName,
		HeaderName:   cfg.CSRF.HeaderName,
		CookieMaxAge: cfg.CSRF.CookieMaxAge,
		Secure:       cfg.Cookie.Secure,
	}

	authRepo := auth.NewRepository(db.GetPostgreSQL())

	return &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
		codec:    codec,
		guard:    guard,
		resolver: buildResolver(cfg, authRepo),
		authRepo: authRepo,
	}
}

// buildResolver selects the permission source. "db" loads role_permissions
// rows at boot; anything else falls back to the static role map.
func buildResolver(cfg *config.Config, repo auth.Repository) ability.Resolver {
	if cfg.Ability.Source == "db" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rows, err := repo.GetPermissionRows(ctx)
		if err != nil {
			slog.Error("failed to load role permissions, falling back to static rules", slog.Any("error", err))
			return ability.NewStaticResolver()
		}
		slog.Info("role permissions loaded from database", slog.Int("rows", len(rows)))
		return ability.NewRowResolver(rows)
	}
	return ability.NewStaticResolver()
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)
		r.setupBagRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "packly-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "packly-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authService := auth.NewService(r.authRepo, r.codec, r.resolver, r.notifier, r.config)
	authController := auth.NewController(authService, r.config)
	authRouter := auth.NewRouter(authController, r.config, r.codec, r.authRepo, r.guard)

	authRouter.SetupRoutes(rg)
}

// setupBagRoutes configures bag and item routes
func (r *Router) setupBagRoutes(rg *gin.RouterGroup) {
	bagRepo := bags.NewRepository(r.db.GetPostgreSQL())

	var cacheSvc cache.Service
	if r.db.GetRedis() != nil {
		cacheSvc = cache.NewService(r.db.GetRedis())
	}

	bagService := bags.NewService(bagRepo, r.resolver, cacheSvc, r.config.Redis.CacheTTL)
	bagController := bags.NewController(bagService)

	bags.SetupRoutes(rg, bagController, r.config, r.codec, r.authRepo, r.resolver)
}
