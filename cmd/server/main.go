package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"propnest/internal/auth"
	"propnest/internal/cache"
	"propnest/internal/catalog"
	"propnest/internal/config"
	"propnest/internal/filter"
	"propnest/internal/handler"
	"propnest/internal/logger"
	"propnest/internal/model"
	"propnest/internal/preference"
	"propnest/internal/repository"
	"propnest/internal/seo"
	"propnest/internal/service"
	"propnest/internal/shortlist"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("PropNest API",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()
	zlog.Info("connected to PostgreSQL")

	if cfg.PostgreSQL.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := repo.Migrate(ctx)
		cancel()
		if err != nil {
			zlog.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		zlog.Fatal("failed to load catalog", zap.String("path", cfg.Catalog.Path), zap.Error(err))
	}

	// Redis is optional: without it every read goes to Postgres and the
	// maps-key function is not throttled
	var (
		buildingCache  service.BuildingCache
		shortlistCache shortlist.Cache
		limiter        handler.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		rc, err := cache.New(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}, zlog)
		if err != nil {
			zlog.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			defer rc.Close()
			buildingCache, shortlistCache, limiter = rc, rc, rc
		}
	} else {
		zlog.Info("REDIS_ADDR not set, running without cache")
	}

	var verifier *auth.Verifier
	if cfg.Auth.JWTSecret != "" {
		verifier, err = auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			zlog.Fatal("failed to init token verifier", zap.Error(err))
		}
	} else {
		zlog.Warn("AUTH_JWT_SECRET not set, every request is anonymous")
	}
	if cfg.Auth.AdminToken == "" {
		zlog.Info("ADMIN_API_TOKEN not set, embedding uploads are disabled")
	}

	// Initialize services
	evalOpts := []filter.Option{filter.WithBrackets(cat.Brackets())}
	if cfg.Filter.PermissiveUnknownTypes {
		evalOpts = append(evalOpts, filter.WithPermissiveUnknownTypes())
	}
	evaluator := filter.NewEvaluator(evalOpts...)

	controller := shortlist.NewController(repo, shortlistCache, shortlist.NotifierFunc(
		func(_ context.Context, userID uuid.UUID, n model.Notification) {
			zlog.Debug("notification",
				zap.String("user_id", userID.String()),
				zap.String("kind", n.Kind),
				zap.String("title", n.Title),
			)
		}), zlog)

	svcOpts := []service.Option{
		service.WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
		service.WithShortlists(controller),
	}
	if buildingCache != nil {
		svcOpts = append(svcOpts, service.WithCache(buildingCache))
	}
	buildingService := service.NewBuildingService(repo, evaluator, preference.NewMapper(cat), zlog, svcOpts...)

	// Initialize handlers
	buildingHandler := handler.NewBuildingHandler(buildingService)
	preferenceHandler := handler.NewPreferenceHandler(buildingService)
	shortlistHandler := handler.NewShortlistHandler(controller)
	embeddingHandler := handler.NewEmbeddingHandler(buildingService)
	catalogHandler := handler.NewCatalogHandler(cat)
	mapsKeyHandler := handler.NewMapsKeyHandler(cfg.Maps.APIKey, limiter, cfg.Maps.RateLimitPerIP)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(zlog))

	// CORS configuration; the maps-key function sets its own headers
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", handler.TraceHeader, handler.AdminTokenHeader}
	apiCORS := cors.New(corsConfig)
	router.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/functions/") {
			c.Next()
			return
		}
		apiCORS(c)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := repo.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "propnest-api",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1", handler.Session(verifier))
	{
		apiV1.GET("/catalog", catalogHandler.Get)

		apiV1.POST("/buildings/search", buildingHandler.Search)
		apiV1.GET("/buildings/map", buildingHandler.Map)
		apiV1.GET("/buildings/:id", buildingHandler.Get)
		apiV1.GET("/buildings/:id/similar", buildingHandler.Similar)

		apiV1.POST("/preferences/filters", preferenceHandler.Filters)
		apiV1.POST("/preferences/results", preferenceHandler.Results)

		apiV1.GET("/shortlist", shortlistHandler.List)
		apiV1.POST("/shortlist/:buildingId/toggle", shortlistHandler.Toggle)

		apiV1.POST("/embeddings/batch", handler.AdminOnly(cfg.Auth.AdminToken), embeddingHandler.BatchUpdate)
	}

	// gin.Any covers the standard methods; the rest reach the functions
	// table through NoRoute
	functions := map[string]gin.HandlerFunc{
		handler.MapsKeyPath: mapsKeyHandler.Serve,
	}
	for path, fn := range functions {
		router.Any(path, fn)
	}

	// Serve the frontend (embed.go in production builds, static_dev.go otherwise)
	distFS, err := frontendFS(cfg.Site.DistDir, zlog)
	if err != nil {
		zlog.Fatal("failed to open frontend assets", zap.Error(err))
	}
	pages := seo.NewPages(cat, cfg.Site.BaseURL, repo)
	renderer := seo.NewRenderer(cat.Site.Name, cfg.Site.BaseURL, cat.Site.DefaultImage)
	setupStaticFiles(router, distFS, functions, pages, renderer, zlog)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("forced shutdown", zap.Error(err))
	}
	zlog.Info("server stopped")
}
