package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sahilchouksey/campus-timeline/config"
	"github.com/sahilchouksey/campus-timeline/database"
	"github.com/sahilchouksey/campus-timeline/utils/cache"
	"github.com/sahilchouksey/campus-timeline/utils/logger"
)

func main() {
	file := flag.String("file", "fixtures/campus.json", "JSON fixture: {collection: {id: document}}")
	flag.Parse()

	envErr := config.LoadENV()
	env, err := config.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(env.LOG_MODE)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if envErr != nil {
		log.Warn(".env file not loaded, using system environment variables", "error", envErr)
	}

	store, err := database.StartGORM(env, log)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("failed to migrate document table", "error", err)
	}

	// Seeding through the cache drops entries the server may still hold
	var target database.Putter = store
	if env.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			log.Warn("redis unavailable, cached entries expire on their own", "error", err)
		} else {
			defer redisCache.Close()
			target = database.NewCachedStore(store, redisCache, env.CACHE_TTL, log)
		}
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal("failed to open fixture", "file", *file, "error", err)
	}
	defer f.Close()

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("Campus Timeline - Document Seeding")
	fmt.Println(separator)

	written, err := database.NewSeeder(target, log).Load(context.Background(), f)
	if err != nil {
		log.Fatal("seeding failed", "written", written, "error", err)
	}

	fmt.Println(separator)
	fmt.Printf("Seeded %d documents from %s\n", written, *file)
	fmt.Println(separator)
}
