package main

import (
	"context"
	"time"

	"agora/internal/engine"
	"agora/internal/handlers"
	"agora/internal/metrics"
	"agora/pkg/cache"
	"agora/pkg/config"
	"agora/pkg/database"
	"agora/pkg/logging"
	"agora/pkg/monitoring"
	"agora/pkg/redis"
	"agora/pkg/server"
	"agora/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("tally")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Tally (Engagement & Ranking API)")

	dbURL := config.RequireEnv("DATABASE_URL")
	redisAddr := config.GetEnv("REDIS_ADDR", "")

	// PostgreSQL holds the post counters and the reaction log
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()

	if config.GetEnvBool("RUN_MIGRATIONS", false) {
		if err := database.ApplySchema(context.Background(), db, logger); err != nil {
			logger.WithError(err).Fatal("Failed to apply database schema")
		}
	}

	// Redis is optional: without it popular pages are recomputed per request
	var snapshots *redis.SnapshotCache
	if redisAddr != "" {
		client, err := redis.NewClient(context.Background(), redis.Config{
			Addr:     redisAddr,
			Password: config.GetEnv("REDIS_PASSWORD", ""),
			DB:       config.GetEnvInt("REDIS_DB", 0),
		})
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, popular page caching disabled")
		} else {
			defer func() { _ = client.Close() }()
			snapshots = redis.NewSnapshotCache(client, config.GetEnvDuration("POPULAR_CACHE_TTL", 30*time.Second))
		}
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("tally", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("tally", version.Version, version.GitCommit)

	// Add health checks
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	if redisAddr != "" {
		if snapshots != nil {
			healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(redis.HealthPinger{Client: snapshots.Client()}))
		} else {
			healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(nil))
		}
	}
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbURL,
	}))

	// Create engagement metrics
	serviceMetrics := &metrics.Metrics{
		Reactions:        metricsCollector.NewCounter("reactions_total", "Reaction requests processed", []string{"type", "outcome"}),
		ReactionDuration: metricsCollector.NewHistogram("reaction_duration_seconds", "Reaction request duration", []string{"type"}, nil),
		RankingQueries:   metricsCollector.NewCounter("ranking_queries_total", "Ranking queries executed", []string{"algorithm", "status"}),
		RankingDuration:  metricsCollector.NewHistogram("ranking_query_duration_seconds", "Ranking query duration", []string{"algorithm"}, nil),
		CacheRequests:    metricsCollector.NewCounter("cache_requests_total", "Cache lookups by outcome", []string{"cache", "outcome"}),
	}

	// In-process cache collapses concurrent trending recomputes per board
	trendingCache := cache.New(cache.Options{
		TTL:         config.GetEnvDuration("TRENDING_CACHE_TTL", 15*time.Second),
		NegativeTTL: config.GetEnvDuration("TRENDING_CACHE_NEGATIVE_TTL", 5*time.Second),
		MaxEntries:  config.GetEnvInt("TRENDING_CACHE_MAX_ENTRIES", 1024),
	}, cache.MetricsHooks{
		OnHit:  func(string) { serviceMetrics.CacheRequests.WithLabelValues("trending", "hit").Inc() },
		OnMiss: func(string) { serviceMetrics.CacheRequests.WithLabelValues("trending", "miss").Inc() },
		OnError: func(string) {
			serviceMetrics.CacheRequests.WithLabelValues("trending", "error").Inc()
		},
	})

	tracker := engine.NewReactionTracker(db, logger)
	ranking := engine.NewRankingEngine(db, logger, trendingCache)
	handlers.Init(tracker, ranking, snapshots, logger, serviceMetrics)

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "tally", healthChecker, metricsCollector)

	router.POST("/posts/:postID/view", handlers.RecordView)
	router.POST("/posts/:postID/like", handlers.ToggleLike)
	router.POST("/posts/:postID/dislike", handlers.ToggleDislike)
	router.GET("/posts/:postID/reaction", handlers.GetReactionState)
	router.GET("/boards/:boardID/rankings/trending", handlers.GetBoardTrending)
	router.GET("/boards/:boardID/rankings/views", handlers.GetBoardViews)
	router.GET("/boards/:boardID/rankings/popular", handlers.GetBoardPopular)
	router.GET("/rankings/popular", handlers.GetPopular)

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("tally", "18030")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
