package database

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-site/core/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Indexer is implemented by stores that own Mongo indexes.
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// DB bundles the Mongo client and the application database.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
	timeout  time.Duration
}

// Connect dials Mongo and pings the primary within cfg.Timeout.
func Connect(ctx context.Context, cfg config.MongoConfig) (*DB, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().
		ApplyURI(cfg.URIValue()).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo %s: %w", config.Redact(cfg.URIValue()), err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo %s: %w", config.Redact(cfg.URIValue()), err)
	}

	return &DB{Client: client, Database: client.Database(cfg.Database), timeout: timeout}, nil
}

// Ping checks the primary is reachable.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// EnsureIndexes creates indexes for every store. A failure is logged and
// the remaining stores are still processed; the first error is returned.
func EnsureIndexes(ctx context.Context, logger *zap.Logger, stores map[string]Indexer) error {
	var first error
	for name, store := range stores {
		if store == nil {
			continue
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			logger.Error("ensure indexes failed", zap.String("store", name), zap.Error(err))
			if first == nil {
				first = fmt.Errorf("%s indexes: %w", name, err)
			}
			continue
		}
		logger.Debug("indexes ensured", zap.String("store", name))
	}
	return first
}
