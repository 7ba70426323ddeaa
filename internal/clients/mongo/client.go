package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"payments-portal/internal/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrNotInitialized is returned by Shutdown and Ping before a successful Init.
var ErrNotInitialized = errors.New("mongo client not initialized")

// ErrShutdown is returned by Shutdown once the client has already been shut down.
var ErrShutdown = errors.New("mongo client already shut down")

var (
	drv driver = mongoDriver{}

	client *mongo.Client
	db     *mongo.Database
	closed bool
	mu     sync.Mutex
)

// Init initializes the MongoDB connection (first successful call wins, thread-safe).
// A failed attempt leaves nothing cached, so the next call retries.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	mu.Lock()
	defer mu.Unlock()

	if client != nil && db != nil {
		return client, db, nil
	}

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(10 * time.Second).
		SetAppName("payments-portal")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cli, err := drv.Connect(ctx, opts)
	if err != nil {
		log.Error("failed to connect to mongo", "err", err)
		return nil, nil, err
	}

	if err := drv.Ping(ctx, cli); err != nil {
		log.Error("failed to ping mongo", "err", err)
		_ = drv.Disconnect(ctx, cli)
		return nil, nil, err
	}

	client = cli
	db = cli.Database(cfg.MongoDBName)
	closed = false

	log.Info("successfully connected to mongo", "db", cfg.MongoDBName)

	return client, db, nil
}

// Client returns the singleton MongoDB client instance.
func Client() *mongo.Client {
	mu.Lock()
	defer mu.Unlock()
	return client
}

// DB returns the singleton MongoDB database instance.
func DB() *mongo.Database {
	mu.Lock()
	defer mu.Unlock()
	return db
}

// Ping checks that the primary is reachable.
func Ping(ctx context.Context) error {
	mu.Lock()
	cli := client
	mu.Unlock()

	if cli == nil {
		return ErrNotInitialized
	}
	return drv.Ping(ctx, cli)
}

// Shutdown gracefully shuts down the MongoDB connection.
// Safe to call more than once; later calls report ErrShutdown.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if client == nil {
		if closed {
			return ErrShutdown
		}
		closed = true
		return ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := drv.Disconnect(ctx, client)

	client = nil
	db = nil
	closed = true

	return err
}
