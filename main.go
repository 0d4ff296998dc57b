package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/address-cleaner/app/config"
	"github.com/address-cleaner/app/controllers"
	"github.com/address-cleaner/app/services"
	"github.com/address-cleaner/internal/cleaner"
	"github.com/address-cleaner/internal/external"
	"github.com/address-cleaner/internal/search"
	"github.com/address-cleaner/routes"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

func main() {
	loadConfig()

	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting Address Cleaner Service")

	if err := config.Load(viper.GetString("cleaner.config")); err != nil {
		logger.Fatal("Failed to load cleaner config", zap.Error(err))
	}
	rules, err := config.C.Rules()
	if err != nil {
		logger.Fatal("Failed to load rules", zap.Error(err))
	}
	addressCleaner := cleaner.NewCleaner(rules, config.C.Thresholds, logger)

	// MongoDB, Redis and Meilisearch are optional.
	mongoDB := initMongoDB(logger)
	if mongoDB != nil {
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}()
	}

	cacheService, mongoCache := initCache(mongoDB, logger)
	defer cacheService.Close()

	addressService := services.NewAddressService(addressCleaner, cacheService, config.C.Workers, logger)
	if config.C.UseLibpostal {
		if external.Available() {
			addressService.SetReferenceParser(external.Reference)
		} else {
			logger.Warn("USE_LIBPOSTAL set but binary built without cgo")
		}
	}

	reviewService := services.NewReviewService(mongoDB, initReviewIndex(logger), logger)
	addressService.SetReviewSink(reviewService)

	rulesService := services.NewRulesService(mongoDB, addressService, cacheService, config.C.RulesFile, logger)
	restoreRules(rulesService, addressService, cacheService, logger)

	if mongoCache != nil {
		_, version := addressService.Cleaner()
		if err := mongoCache.WarmUp(context.Background(), version, viper.GetInt("cache.l1_size")/2); err != nil {
			logger.Warn("Failed to warm up cache", zap.Error(err))
		}
	}

	adminService := services.NewAdminService(mongoDB, cacheService, addressService, logger)

	ctl := routes.Controllers{
		Address: controllers.NewAddressController(addressService, logger),
		Rules:   controllers.NewRulesController(rulesService, logger),
		Review:  controllers.NewReviewController(reviewService, logger),
		Admin:   controllers.NewAdminController(adminService, reviewService, viper.GetString("app.env"), logger),
	}

	if viper.GetString("app.env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, ctl)

	port := viper.GetString("app.port")
	logger.Info("Address Cleaner Service starting", zap.String("port", port))

	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("cleaner.config", "config/cleaner.yaml")
	viper.SetDefault("mongo.url", "")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("meilisearch.url", "")
	viper.SetDefault("meilisearch.master_key", "")
	viper.SetDefault("cache.l1_size", 10000)
	viper.SetDefault("cache.ttl", "24h")

	bindEnv := map[string]string{
		"app.port":               "APP_PORT",
		"app.env":                "APP_ENV",
		"mongo.url":              "MONGO_URL",
		"redis.url":              "REDIS_URL",
		"meilisearch.url":        "MEILI_URL",
		"meilisearch.master_key": "MEILI_KEY",
		"cache.l1_size":          "L1_CACHE_SIZE",
	}
	for key, env := range bindEnv {
		_ = viper.BindEnv(key, env)
	}
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}
}

func initLogger() *zap.Logger {
	var zapConfig zap.Config
	if viper.GetString("app.env") == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	return logger
}

// initMongoDB returns nil when no URL is configured.
func initMongoDB(logger *zap.Logger) *mongo.Database {
	mongoURL := viper.GetString("mongo.url")
	if mongoURL == "" {
		logger.Info("MONGO_URL not set, running without MongoDB")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	dbName := "address_cleaner"
	if cs, err := connstring.ParseAndValidate(mongoURL); err == nil && cs.Database != "" {
		dbName = cs.Database
	}

	logger.Info("Connected to MongoDB", zap.String("database", dbName))
	return client.Database(dbName)
}

// initCache layers Redis over MongoDB when both are configured and falls
// back to memory for whichever level is missing.
func initCache(mongoDB *mongo.Database, logger *zap.Logger) (services.ICacheService, *services.MongoCacheService) {
	ttl := viper.GetDuration("cache.ttl")

	var l1 services.ICacheService
	if redisURL := viper.GetString("redis.url"); redisURL != "" {
		redisCache, err := services.NewRedisCacheService(redisURL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
		}
		redisCache.SetTTL(ttl)
		l1 = redisCache
	} else {
		memCache := services.NewCacheService(ttl)
		memCache.StartCleanupWorker(context.Background(), 10*time.Minute)
		l1 = memCache
	}

	if mongoDB == nil {
		return l1, nil
	}

	l1Size := viper.GetInt("cache.l1_size")
	mongoCache, err := services.NewMongoCacheService(mongoDB, l1Size, logger)
	if err != nil {
		logger.Fatal("Failed to initialize MongoDB cache", zap.Error(err))
	}
	return services.NewHybridCacheService(l1, mongoCache, logger), mongoCache
}

// initReviewIndex returns nil when Meilisearch is not configured or down.
func initReviewIndex(logger *zap.Logger) *search.ReviewIndex {
	host := viper.GetString("meilisearch.url")
	if host == "" {
		return nil
	}
	index, err := search.NewReviewIndex(search.SearchConfig{
		Host:      host,
		APIKey:    viper.GetString("meilisearch.master_key"),
		IndexName: search.DefaultReviewIndex,
		BatchSize: config.C.ReviewBatchSize,
	}, logger)
	if err != nil {
		logger.Warn("Review search disabled", zap.Error(err))
		return nil
	}
	if err := index.BuildIndex(); err != nil {
		logger.Warn("Failed to build review index", zap.Error(err))
	}
	return index
}

// restoreRules switches to the last rule set saved in MongoDB, if any.
func restoreRules(rulesService *services.RulesService, addressService *services.AddressService, cache services.ICacheService, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	saved, err := rulesService.Load(ctx)
	if errors.Is(err, services.ErrNoSavedRules) {
		return
	}
	if err != nil {
		logger.Warn("Failed to load saved rules", zap.Error(err))
		return
	}

	c, _ := addressService.Cleaner()
	version := addressService.SetCleaner(c.WithRules(saved))
	if err := cache.InvalidateByRulesVersion(ctx, version); err != nil {
		logger.Warn("Failed to invalidate cache", zap.Error(err))
	}
	logger.Info("Restored saved rules", zap.String("version", version))
}
