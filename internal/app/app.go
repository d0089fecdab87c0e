package app

import (
	"context"
	"database/sql"

	"callsync/internal/config"
	"callsync/internal/middleware"
	"callsync/internal/shared/audit"
	"callsync/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the long-lived connections shared by every process.
type Infra struct {
	Config *config.Config
	Logger *zap.Logger
	GormDB *gorm.DB
	SQLDB  *sql.DB
	Redis  *redis.Client
	Mongo  *mongo.Client
	Kafka  *kafkago.Writer
}

// Connect opens the database and every optional backend the config names.
// Redis, Mongo and Kafka stay nil when not configured.
func Connect(cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	infra := &Infra{Config: cfg, Logger: logger}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	infra.GormDB = gormDB

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	infra.SQLDB = sqlDB

	if cfg.Redis.Addr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.Database.MaxRetries, logger)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Redis = rdb
	}

	if cfg.Storage.Driver == config.StorageDriverGridFS {
		client, err := connection.ConnectMongoWithRetry(cfg.Storage.MongoURI, cfg.Database.MaxRetries, logger)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Mongo = client
	}

	if cfg.Kafka.Broker != "" {
		writer, err := connection.ConnectKafkaWithRetry(cfg.Kafka.Broker, cfg.Database.MaxRetries, logger)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Kafka = writer
	}

	return infra, nil
}

func (i *Infra) Close() {
	if i.Kafka != nil {
		if err := i.Kafka.Close(); err != nil {
			i.Logger.Warn("close kafka writer failed", zap.Error(err))
		}
	}
	if i.Mongo != nil {
		if err := i.Mongo.Disconnect(context.Background()); err != nil {
			i.Logger.Warn("disconnect mongo failed", zap.Error(err))
		}
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.SQLDB != nil {
		_ = i.SQLDB.Close()
	}
}

// BuildApp wires every module onto router.
func BuildApp(router *gin.Engine, infra *Infra, auditLogger audit.Logger) (*Modules, error) {
	router.Use(middleware.RequestID())

	modules, err := registerModules(router, infra, auditLogger)
	if err != nil {
		return nil, err
	}

	cfg := infra.Config.Auth
	if err := modules.Auth.SeedAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		return nil, err
	}

	return modules, nil
}
