package main

import (
	"database/sql"
	"net/http"
	"os"

	_ "github.com/lib/pq"

	"eventcatalog/config"
	"eventcatalog/internal/adapters/cache"
	"eventcatalog/internal/adapters/categories"
	"eventcatalog/internal/adapters/stats"
	"eventcatalog/internal/adapters/users"
	deliveryhttp "eventcatalog/internal/delivery/http"
	"eventcatalog/internal/delivery/http/controllers"
	"eventcatalog/internal/delivery/http/middleware"
	"eventcatalog/internal/repository/postgres"
	"eventcatalog/internal/services"
)

// @title Event Catalog API
// @version 1.0
// @description Event discovery and ranking aggregator over the identity directory, the category catalog and the interaction engine.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "err", err)
		os.Exit(1)
	}
	if err := postgres.RunMigrations(logger, cfg.DBUrl, cfg.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	compilationRepo := postgres.NewCompilationRepository(db)

	userDirectory := users.NewClient(cfg.UserServiceURL, cfg.UpstreamTimeout)
	categoryCatalog := categories.NewClient(cfg.CategoryServiceURL, cfg.UpstreamTimeout)
	interactionStats := stats.NewClient(cfg.StatsServiceURL, cfg.UpstreamTimeout, logger)

	if cfg.RedisAddr != "" {
		store, err := cache.NewRedisStore(cfg.RedisAddr, "eventcatalog", cfg.UpstreamTimeout)
		if err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}
		userDirectory = cache.NewUserDirectory(userDirectory, store, cfg.ResolverCacheTTL, logger)
		categoryCatalog = cache.NewCategoryCatalog(categoryCatalog, store, cfg.ResolverCacheTTL, logger)
		logger.Info("resolver cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ResolverCacheTTL)
	}

	eventService := services.NewEventService(eventRepo, userDirectory, categoryCatalog, interactionStats, logger, cfg.ServiceTimeout)
	compilationService := services.NewCompilationService(compilationRepo, eventRepo, userDirectory, categoryCatalog, interactionStats, logger, cfg.ServiceTimeout)

	router := deliveryhttp.NewRouter(
		controllers.NewEventController(logger, eventService),
		controllers.NewCompilationController(logger, compilationService),
	)

	var handler http.Handler = router
	handler = middleware.CORS(cfg.CORSOrigins, handler)
	handler = middleware.Logging(logger, handler)

	logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
