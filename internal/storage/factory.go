package storage

import (
	"errors"
	"fmt"

	"callsync/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
)

// New builds the store for one namespace ("recordings", "employee_docs").
// client may be nil when the disk driver is configured.
func New(cfg config.StorageConfig, client *mongo.Client, namespace string) (ObjectStore, error) {
	switch cfg.Driver {
	case config.StorageDriverGridFS:
		if client == nil {
			return nil, errors.New("storage: gridfs driver needs a mongo client")
		}
		return NewGridFSStore(client.Database(cfg.MongoDatabase), namespace)
	case config.StorageDriverDisk, "":
		return NewDiskStore(cfg.DiskRoot, namespace)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
