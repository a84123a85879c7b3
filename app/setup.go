package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/campus-timeline/api"
	"github.com/sahilchouksey/campus-timeline/config"
	"github.com/sahilchouksey/campus-timeline/database"
	"github.com/sahilchouksey/campus-timeline/router"
	"github.com/sahilchouksey/campus-timeline/services/cron"
	"github.com/sahilchouksey/campus-timeline/services/storage"
	"github.com/sahilchouksey/campus-timeline/services/timeline"
	"github.com/sahilchouksey/campus-timeline/utils/auth"
	"github.com/sahilchouksey/campus-timeline/utils/cache"
	"github.com/sahilchouksey/campus-timeline/utils/logger"
)

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	log, err := logger.New(getEnv.LOG_MODE)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	if getEnv.JWT_SECRET == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	// Initialize GORM document store
	gormStore, err := database.StartGORM(getEnv, log)
	if err != nil {
		log.Error("check whether postgres is running", "host", getEnv.DB_HOST, "port", getEnv.DB_PORT)
		return err
	}
	defer gormStore.Close()

	if err := gormStore.Init(); err != nil {
		log.Error("failed to initialize document table", "error", err)
		return err
	}

	// Redis read-through cache is optional
	var store database.DocumentStore = gormStore
	if getEnv.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			log.Warn("redis unavailable, reading the store directly", "error", err)
		} else {
			defer redisCache.Close()
			store = database.NewCachedStore(gormStore, redisCache, getEnv.CACHE_TTL, log)
		}
	}

	engine := timeline.NewService(store, log, timeline.Options{
		FanOutLimit: getEnv.FANOUT_LIMIT,
		DemoMode:    getEnv.DEMO_MODE,
		Location:    getEnv.Location(),
	})

	// Object storage is optional; without it only absolute file URLs resolve
	var spaces *storage.SpacesClient
	if getEnv.SpacesEnabled() {
		spaces, err = storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: getEnv.DO_SPACES_KEY,
			SecretKey: getEnv.DO_SPACES_SECRET,
			Bucket:    getEnv.DO_SPACES_BUCKET,
			Region:    getEnv.DO_SPACES_REGION,
			Endpoint:  getEnv.DO_SPACES_ENDPOINT,
			CDNURL:    getEnv.DO_SPACES_CDN_URL,
		})
		if err != nil {
			log.Warn("object storage disabled", "error", err)
			spaces = nil
		}
	}

	// Cron jobs (enabled by default)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(engine, log)
		if err := cronManager.Start(); err != nil {
			log.Warn("failed to start cron jobs", "error", err)
			cronManager = nil
		}
	}
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), log)

	router.SetupRoutes(server.GetEngine(), router.Dependencies{
		Store:    store,
		Timeline: engine,
		JWTManager: auth.NewJWTManager(auth.JWTConfig{
			Secret: getEnv.JWT_SECRET,
			Issuer: getEnv.JWT_ISSUER,
		}),
		Linker:            spaces,
		DownloadTTL:       getEnv.DOWNLOAD_URL_TTL,
		AllowedOrigins:    getEnv.ALLOWED_ORIGINS,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.RunUntil(ctx)
}
