package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/campus-site/core/internal/config"
	"github.com/campus-site/core/internal/database"
	"github.com/campus-site/core/internal/middleware"
	"github.com/campus-site/core/internal/modules/content"
	"github.com/campus-site/core/internal/modules/content/attachment"
	"github.com/campus-site/core/internal/modules/storage/file"
	"github.com/campus-site/core/internal/pkg/blobstore"
	pkgcron "github.com/campus-site/core/internal/pkg/cron"
	pkgredis "github.com/campus-site/core/internal/pkg/redis"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1"

// App holds all application dependencies.
type App struct {
	cfg       *config.AppConfig
	router    *gin.Engine
	db        *database.DB
	redis     *pkgredis.Client
	logger    *zap.Logger
	cancel    context.CancelFunc
	sched     *pkgcron.Scheduler
	files     *file.Service
	content   *content.Service
	startedAt time.Time
}

// New wires config → Mongo → Redis → stores → services → routes. The
// memory storage driver runs without Mongo.
func New(ctx context.Context, logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, startedAt: time.Now()}

	if cfg.Storage.Driver != "memory" {
		db, err := database.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.db = db
		logger.Info("mongo connected",
			zap.String("uri", config.Redact(cfg.Mongo.URIValue())),
			zap.String("database", cfg.Mongo.Database))
	}

	if cfg.Redis.Enabled() {
		rc, err := pkgredis.Connect(ctx, cfg.Redis.URLValue())
		if err != nil {
			a.closeStores()
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rc
	} else {
		logger.Warn("redis is not configured, rate limiting and idempotence are disabled")
	}

	store, indexers, err := a.buildStores()
	if err != nil {
		a.closeStores()
		return nil, err
	}
	if err := database.EnsureIndexes(ctx, logger, indexers); err != nil {
		a.closeStores()
		return nil, err
	}

	a.files = file.NewService(store.blobs, logger.Named("FileService"),
		file.WithLimits(cfg.MaxFileBytes(), cfg.Storage.MaxFiles))
	resolver := attachment.NewResolver(store.blobs, logger.Named("AttachmentResolver"))
	a.content = content.NewService(store.contents, resolver, logger.Named("ContentService"))

	a.router = a.newRouter()

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.sched = pkgcron.New(pkgcron.WithLogger(logger.Named("CronService")))
	registerCronJobs(a.sched, a.content, logger)
	a.sched.Start(runCtx)

	a.registerRoutes()
	return a, nil
}

type stores struct {
	blobs    blobstore.Store
	contents content.Repository
}

func (a *App) buildStores() (stores, map[string]database.Indexer, error) {
	cfg := a.cfg.Storage
	indexers := map[string]database.Indexer{}

	var s stores
	if a.db == nil {
		s.contents = content.NewMemoryRepository()
	} else {
		repo := content.NewMongoRepository(a.db.Database)
		indexers["contents"] = repo
		s.contents = repo
	}

	switch cfg.Driver {
	case "memory":
		s.blobs = blobstore.NewMemory()
	case "s3":
		client, err := blobstore.NewS3Client(blobstore.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return s, nil, fmt.Errorf("blobstore: %w", err)
		}
		s.blobs = blobstore.NewS3(client, cfg.S3.Bucket, cfg.S3.Prefix)
	default:
		gfs := blobstore.NewGridFS(a.db.Database, blobstore.GridFSOptions{
			Bucket:         cfg.Bucket,
			ChunkSizeBytes: a.cfg.ChunkSizeBytes(),
		})
		indexers["blobs"] = gfs
		s.blobs = gfs
	}
	a.logger.Info("blob store ready", zap.String("driver", cfg.Driver))
	return s, indexers, nil
}

func (a *App) newRouter() *gin.Engine {
	if a.cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(a.logger.Named("HTTP")))
	router.Use(middleware.Metrics())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-idempotence"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
	}
	if len(a.cfg.AllowedOrigins) > 0 && !a.cfg.IsDev() {
		corsConfig.AllowOriginFunc = newOriginAllowList(a.cfg.AllowedOrigins).allows
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	// Downloads stream stored bytes as-is; most are already compressed media.
	router.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{apiPrefix + "/files/download"})))
	return router
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops the scheduler and closes backing connections.
func (a *App) Shutdown(ctx context.Context) {
	a.cancel()
	a.sched.Wait()
	a.closeStoresCtx(ctx)
}

func (a *App) closeStores() { a.closeStoresCtx(context.Background()) }

func (a *App) closeStoresCtx(ctx context.Context) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(ctx); err != nil {
			a.logger.Warn("close mongo", zap.Error(err))
		}
	}
}
