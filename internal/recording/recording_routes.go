package recording

import (
	"time"

	"callsync/internal/access"
	"callsync/internal/auth/token"
	"callsync/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const uploadIdempotencyTTL = 24 * time.Hour

// RegisterRoutes mounts /api/upload, /api/recordings, /api/admin/recordings
// and the /files stream endpoint on r.
func RegisterRoutes(
	r gin.IRouter,
	handler *Handler,
	verifier token.Issuer,
	guard access.Guard,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	api := r.Group("/api")
	api.Use(middleware.Authenticate(verifier))
	api.Use(middleware.ContextLogger(logger))
	{
		// Multipart overhead on top of the payload limit.
		api.POST("/upload",
			middleware.RateLimitByPrincipal(2, 10),
			middleware.MaxBodyBytes(handler.maxUploadBytes+(1<<20)),
			middleware.Idempotency(rdb, uploadIdempotencyTTL, logger),
			handler.Upload,
		)

		api.GET("/recordings",
			middleware.RateLimitByPrincipal(5, 20),
			handler.List,
		)

		api.DELETE("/admin/recordings/:id",
			access.Require(guard, access.KindRecording, access.ActionPurge, ""),
			middleware.RateLimitByPrincipal(0.5, 2),
			handler.Purge,
		)
	}

	files := r.Group("/files")
	files.Use(middleware.Authenticate(verifier))
	files.Use(middleware.ContextLogger(logger))
	{
		files.GET("/:id",
			middleware.RateLimitByPrincipal(5, 30),
			handler.Stream,
		)
	}
}
