package main

import (
	"log"
	"os"
	"time"

	"sagechat/internal/api"
	"sagechat/internal/assistant"
	"sagechat/internal/config"
	"sagechat/internal/intent"
	"sagechat/internal/memory"
	"sagechat/internal/provider"
	"sagechat/internal/redis"
	"sagechat/internal/resolver"
	"sagechat/internal/storage"
	"sagechat/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("SAGECHAT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	providerName := cfg.BasicConfig.DefaultProvider
	completion, err := provider.NewCompletion(providerName, cfg.Providers[providerName])
	if err != nil {
		log.Fatalf("init %s provider: %v", providerName, err)
	}

	var cache *redis.Client
	if cfg.Redis.Host != "" {
		cache, err = redis.NewRedisClient(cfg)
		if err != nil {
			log.Printf("redis unavailable, caching disabled: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// Persistence is optional; without a configured database turns live
	// only in memory.
	var archive *storage.Archive
	dbType := os.Getenv("SAGECHAT_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	if len(cfg.Databases) > 0 {
		db, err := storage.Open(dbType, cfg)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()
		if err := storage.Migrate(db, dbType); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
		archive = storage.NewArchive(db, dbType)
	}

	pool := worker.NewPool(2, 8, 64, time.Minute)
	defer pool.Stop()

	store := memory.NewStore(memory.Config{
		MaxMessages:       cfg.Memory.MaxMessages,
		SummarizeInterval: cfg.Memory.SummarizeInterval,
		TTL:               time.Duration(cfg.Memory.SessionTTLSeconds) * time.Second,
		Summarizer:        completion,
		Submit:            pool.Submit,
	})

	classifier := intent.NewClassifier(store, completion)
	answerer := resolver.New(resolver.Options{
		Sessions: store,
		Model:    completion,
		Web:      provider.NewWebSearch(),
		Wiki:     provider.NewWikipedia(),
		Weather:  provider.NewWeather(cfg.Weather.APIKey, cache),
		News:     provider.NewNews(cache),
		Country:  provider.NewCountries(cache),
	})

	var archiver assistant.Archiver
	if archive != nil {
		archiver = archive
	}
	service := assistant.NewService(store, classifier, answerer, archiver, pool.Submit)

	router := gin.Default()
	api.NewHandler(service).RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
