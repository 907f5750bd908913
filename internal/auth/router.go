package auth

import (
	"packly/internal/shared/config"
	"packly/internal/shared/middleware"
	"packly/pkg/csrf"
	"packly/pkg/token"

	"github.com/gin-gonic/gin"
)

// Router handles auth-related routes
type Router struct {
	controller *Controller
	config     *config.Config
	codec      *token.Codec
	repo       Repository
	guard      *csrf.Guard
}

// NewRouter creates a new auth router
func NewRouter(controller *Controller, cfg *config.Config, codec *token.Codec, repo Repository, guard *csrf.Guard) *Router {
	return &Router{
		controller: controller,
		config:     cfg,
		codec:      codec,
		repo:       repo,
		guard:      guard,
	}
}

// SetupRoutes registers all auth routes
func (authRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.GET("/csrf-token", csrf.IssueHandler(authRouter.guard))

		if authRouter.config.CSRF.Enabled {
			auth.Use(csrf.Middleware(authRouter.guard))
		}

		// Public routes (no authentication required)
		auth.POST("/signup", authRouter.controller.Signup)
		auth.POST("/login", authRouter.controller.Login)
		auth.DELETE("/logout", authRouter.controller.Logout)
		auth.POST("/forgot-password", authRouter.controller.ForgotPassword)
		auth.POST("/reset-password", authRouter.controller.ResetPassword)

		// Refresh runs behind the refresh-token middleware only; the access
		// middleware never accepts a refresh token.
		auth.POST("/refresh-token",
			middleware.RefreshAuth(authRouter.config, authRouter.codec, authRouter.repo),
			authRouter.controller.Refresh)

		// Protected routes (access token required)
		protected := auth.Group("")
		protected.Use(middleware.SessionAuth(authRouter.config, authRouter.codec, authRouter.repo))
		{
			protected.GET("/me", authRouter.controller.Me)
			protected.PUT("/change-password", authRouter.controller.ChangePassword)
		}
	}
}
