package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/qualcoder/pkg/validator"

	"github.com/johnquangdev/qualcoder/internal/adapter/handler"
	"github.com/johnquangdev/qualcoder/internal/adapter/repository"
	"github.com/johnquangdev/qualcoder/internal/infrastructure/cache"
	"github.com/johnquangdev/qualcoder/internal/infrastructure/database"
	"github.com/johnquangdev/qualcoder/internal/infrastructure/storage"
	"github.com/johnquangdev/qualcoder/internal/usecase/analysis"
	"github.com/johnquangdev/qualcoder/internal/usecase/coding"
	"github.com/johnquangdev/qualcoder/internal/usecase/domainclass"
	pkgai "github.com/johnquangdev/qualcoder/pkg/ai"
	"github.com/johnquangdev/qualcoder/pkg/config"
	"github.com/johnquangdev/qualcoder/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run migrations only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Applying migrations (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize verdict cache. Redis is preferred; an in-memory cache
	// keeps single-instance deployments working without it.
	log.Println("📦 Connecting to Redis...")
	var verdictCache analysis.VerdictCache
	redisCache, err := cache.NewRedisVerdictCache(cfg)
	if err != nil {
		log.Printf("⚠️  Redis unavailable, using in-memory verdict cache: %v", err)
		verdictCache = cache.NewMemoryVerdictCache(cfg.Engine.VerdictCacheTTL)
	} else {
		defer redisCache.Close()
		verdictCache = redisCache
	}

	// Initialize object storage for raw report archives (optional).
	log.Println("📦 Connecting to object storage...")
	var artifacts analysis.ArtifactStore
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Printf("⚠️  Object storage unavailable, run reports will not be archived: %v", err)
	} else {
		artifacts = minioClient
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	transcriptRepo := repository.NewTranscriptRepository(db)
	runRepo := repository.NewAnalysisRepository(db)

	// Initialize the rater panel. Every configured provider becomes one
	// independent rater; consensus needs at least two for disagreement
	// analysis to be meaningful.
	log.Println("🤖 Initializing rater panel...")
	var raters []coding.Rater
	var mapper coding.CodeMapper
	if cfg.Raters.GroqAPIKey != "" {
		groqRater := pkgai.NewGroqRater(&cfg.Raters, logger)
		raters = append(raters, groqRater)
		mapper = groqRater
	}
	if cfg.Raters.AnthropicAPIKey != "" {
		anthropicRater := pkgai.NewAnthropicRater(&cfg.Raters, logger)
		raters = append(raters, anthropicRater)
		if mapper == nil {
			mapper = anthropicRater
		}
	}
	if len(raters) == 0 {
		log.Fatalf("No rater API keys configured. Set GROQ_API_KEY and/or ANTHROPIC_API_KEY.")
	}
	if len(raters) < 2 {
		log.Println("⚠️  Single rater configured; reliability will be undefined")
	}

	// Initialize domain classifier
	log.Println("🧭 Initializing domain classifier...")
	profiles := domainclass.DefaultProfiles()
	if cfg.Engine.ProfilesPath != "" {
		loaded, err := domainclass.LoadProfiles(cfg.Engine.ProfilesPath)
		if err != nil {
			log.Fatalf("Failed to load domain profiles: %v", err)
		}
		profiles = loaded
	}
	classifier, err := domainclass.NewClassifier(profiles, cfg.Engine.MinDomainConfidence, logger)
	if err != nil {
		log.Fatalf("Failed to initialize domain classifier: %v", err)
	}

	// Initialize analysis service
	log.Println("✨ Initializing analysis service...")
	codebooks := coding.NewCodebookStore(cfg.Engine.CodebookDir, logger)
	analysisService := analysis.NewAnalysisService(
		transcriptRepo,
		runRepo,
		classifier,
		codebooks,
		raters,
		mapper,
		verdictCache,
		artifacts,
		cfg,
		logger,
	)

	// Start the worker pool that processes queued runs.
	log.Println("👷 Starting analysis worker pool...")
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if err := analysisService.StartWorkerPool(workerCtx, cfg.Engine.WorkerCount); err != nil {
		log.Fatalf("Failed to start worker pool: %v", err)
	}

	// Initialize JWT manager for protected routes
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	analysisHandler := handler.NewAnalysis(analysisService, logger)
	router := handler.NewRouter(cfg, analysisHandler, jwtManager)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	if err := analysisService.StopWorkerPool(); err != nil {
		log.Printf("⚠️  Worker pool shutdown: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
