package app

import (
	"net/http"
	"time"

	"callsync/internal/access"
	"callsync/internal/auth"
	"callsync/internal/auth/token"
	"callsync/internal/employee"
	"callsync/internal/messaging/kafka"
	"callsync/internal/notification"
	"callsync/internal/recording"
	"callsync/internal/registration"
	"callsync/internal/shared/audit"
	"callsync/internal/shared/response"
	"callsync/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Modules exposes the services the entrypoints need beyond HTTP routing.
type Modules struct {
	Auth       auth.Service
	Recordings recording.Service
}

func newGuard() (access.Guard, error) {
	return access.NewGuard(access.DefaultPolicy)
}

func newRecordingService(infra *Infra, guard access.Guard, auditLogger audit.Logger) (recording.Service, error) {
	store, err := storage.New(infra.Config.Storage, infra.Mongo, infra.Config.Storage.RecordingsBucket)
	if err != nil {
		return nil, err
	}
	return recording.NewService(
		infra.SQLDB,
		recording.NewRepository(infra.GormDB),
		employee.NewRepository(infra.GormDB),
		store,
		guard,
		infra.Redis,
		auditLogger,
		infra.Logger,
	), nil
}

// newNotifier prefers the async Kafka path, then SMTP, and always ends with
// the log notifier.
func newNotifier(infra *Infra) notification.Notifier {
	var async notification.Notifier
	if infra.Kafka != nil {
		async = notification.NewKafkaNotifier(infra.Kafka, infra.Config.Kafka.NotificationTopic)
	}
	return notification.Chain(
		async,
		notification.NewSMTPNotifier(infra.Config.Notification),
		notification.NewLogNotifier(infra.Logger),
	)
}

func registerModules(router *gin.Engine, infra *Infra, auditLogger audit.Logger) (*Modules, error) {
	cfg := infra.Config
	logger := infra.Logger

	guard, err := newGuard()
	if err != nil {
		return nil, err
	}
	issuer := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	docs, err := storage.New(cfg.Storage, infra.Mongo, cfg.Storage.DocumentsBucket)
	if err != nil {
		return nil, err
	}

	// --- Repositories ---
	employeeRepo := employee.NewRepository(infra.GormDB)
	authRepo := auth.NewRepository(infra.GormDB)

	var outboxRepo kafka.OutboxRepository
	if cfg.Kafka.Broker != "" {
		outboxRepo = kafka.NewOutboxRepository(infra.SQLDB)
	}

	// --- Services ---
	employeeService := employee.NewService(infra.SQLDB, employeeRepo, outboxRepo, infra.Redis, employee.Options{
		PhoneRegion:    cfg.Phone.DefaultRegion,
		LifecycleTopic: cfg.Kafka.EmployeeLifecycleTopic,
	}, logger)
	authService := auth.NewService(authRepo, employeeRepo, issuer, auditLogger, logger)
	registrationService := registration.NewService(
		employeeRepo, docs, issuer, guard, newNotifier(infra), infra.Redis, auditLogger,
		registration.Options{
			PhoneRegion: cfg.Phone.DefaultRegion,
			TempCodeTTL: cfg.Auth.TempCodeTTL,
		},
		logger,
	)
	recordingService, err := newRecordingService(infra, guard, auditLogger)
	if err != nil {
		return nil, err
	}

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction(), logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	registrationHandler := registration.NewHandler(registrationService, cfg.Storage.MaxDocumentBytes, logger)
	recordingHandler := recording.NewHandler(recordingService, cfg.Storage.MaxUploadBytes, logger)

	// --- Routes ---
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "ok", gin.H{"time": time.Now().UTC()}, nil)
	})

	api := router.Group("/api")
	{
		auth.RegisterRoutes(api, authHandler, issuer, logger)
		employee.RegisterRoutes(api.Group("/admin"), employeeHandler, issuer, logger)
		registration.RegisterRoutes(api, registrationHandler, issuer, logger)
	}
	recording.RegisterRoutes(router, recordingHandler, issuer, guard, infra.Redis, logger)

	logger.Info("modules registered",
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Bool("kafka", infra.Kafka != nil),
		zap.Bool("redis", infra.Redis != nil),
		zap.String("lifecycle_topic", cfg.Kafka.EmployeeLifecycleTopic),
	)

	return &Modules{Auth: authService, Recordings: recordingService}, nil
}
