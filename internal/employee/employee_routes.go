package employee

import (
	"callsync/internal/auth/token"
	"callsync/internal/middleware"
	"callsync/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes mounts the admin employee endpoints under r (the /api/admin group).
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	verifier token.Issuer,
	logger *zap.Logger,
) {
	admin := r.Group("")
	admin.Use(middleware.Authenticate(verifier))
	admin.Use(middleware.RequireRole(contextutil.RoleAdmin))
	admin.Use(middleware.ContextLogger(logger))
	{
		admin.GET("/stats",
			middleware.RateLimitByPrincipal(5, 20),
			handler.Stats,
		)

		employees := admin.Group("/employees")
		employees.GET("",
			middleware.RateLimitByPrincipal(5, 20),
			handler.GetAll,
		)

		employees.GET("/:id",
			middleware.RateLimitByPrincipal(5, 20),
			handler.GetByID,
		)

		employees.POST("",
			middleware.RateLimitByPrincipal(1, 5),
			handler.Create,
		)

		employees.DELETE("/:id",
			middleware.RateLimitByPrincipal(0.5, 2),
			handler.Delete,
		)
	}
}
