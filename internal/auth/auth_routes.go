package auth

import (
	"callsync/internal/auth/token"
	"callsync/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes mounts sign-in endpoints under r (the /api group).
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, verifier token.Issuer, logger *zap.Logger) {
	auth := r.Group("/auth")
	auth.Use(middleware.ContextLogger(logger))
	{
		auth.POST("/login", middleware.RateLimitByIP(0.1, 5), handler.EmployeeLogin)
		auth.POST("/logout", handler.Logout)
		auth.GET("/me",
			middleware.Authenticate(verifier),
			middleware.RateLimitByPrincipal(2, 5),
			handler.Me,
		)
	}

	admin := r.Group("/admin/auth")
	admin.Use(middleware.ContextLogger(logger))
	{
		admin.POST("/login", middleware.RateLimitByIP(0.05, 3), handler.AdminLogin)
	}
}
