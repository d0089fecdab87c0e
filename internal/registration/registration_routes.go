package registration

import (
	"callsync/internal/auth/token"
	"callsync/internal/middleware"
	"callsync/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes mounts the lifecycle endpoints under r (the /api group).
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	verifier token.Issuer,
	logger *zap.Logger,
) {
	admin := r.Group("/admin/employees")
	admin.Use(middleware.Authenticate(verifier))
	admin.Use(middleware.RequireRole(contextutil.RoleAdmin))
	admin.Use(middleware.ContextLogger(logger))
	{
		admin.PATCH("/:id/activate",
			middleware.RateLimitByPrincipal(1, 5),
			handler.Activate,
		)

		admin.PATCH("/:id/complete-registration",
			middleware.RateLimitByPrincipal(1, 5),
			handler.CompleteRegistration,
		)

		// Two documents plus multipart overhead.
		admin.POST("/:id/documents",
			middleware.RateLimitByPrincipal(0.5, 3),
			middleware.MaxBodyBytes(2*handler.maxDocumentBytes+(1<<20)),
			handler.UploadDocuments,
		)
	}

	public := r.Group("")
	public.Use(middleware.ContextLogger(logger))
	{
		public.POST("/auth/register",
			middleware.RateLimitByIP(0.2, 5),
			handler.Register,
		)

		public.POST("/validate-code",
			middleware.RateLimitByIP(0.1, 5),
			handler.ValidateCode,
		)
	}

	authed := r.Group("/auth")
	authed.Use(middleware.Authenticate(verifier))
	authed.Use(middleware.ContextLogger(logger))
	{
		authed.POST("/send-code",
			middleware.RateLimitByPrincipal(0.1, 3),
			handler.SendCode,
		)
	}
}
