package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/smartflow/voice-core/internal/api/handlers"
	cache "github.com/smartflow/voice-core/internal/cache/redis"
	"github.com/smartflow/voice-core/internal/guardrail"
	"github.com/smartflow/voice-core/internal/inference"
	"github.com/smartflow/voice-core/internal/ingestion"
	"github.com/smartflow/voice-core/internal/intent"
	"github.com/smartflow/voice-core/internal/llm"
	"github.com/smartflow/voice-core/internal/metrics"
	"github.com/smartflow/voice-core/internal/middleware/ratelimit"
	"github.com/smartflow/voice-core/internal/middleware/security"
	"github.com/smartflow/voice-core/internal/middleware/validation"
	"github.com/smartflow/voice-core/internal/pipeline"
	"github.com/smartflow/voice-core/internal/semantic"
	"github.com/smartflow/voice-core/internal/session"
	"github.com/smartflow/voice-core/internal/storage/sqlite"
	"github.com/smartflow/voice-core/internal/tenant"
	"github.com/smartflow/voice-core/pkg/config"
	appLogger "github.com/smartflow/voice-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting SmartFlow voice core")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	tenants, err := tenant.NewStore(cfg.Tenants.Path)
	if err != nil {
		appLogger.Fatal("Failed to load tenant profiles", zap.Error(err))
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	var embedder semantic.Embedder = llmClient
	var cacheClient *cache.Client
	if cfg.Redis.Enabled {
		cacheClient, err = cache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.CacheTTL,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, embedding cache disabled", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
			embedder = llm.NewCachedEmbedder(llmClient, cacheClient)
		}
	}

	chunker := semantic.NewChunker(cfg.Semantic.ChunkSize, cfg.Semantic.ChunkSlack)

	var store semantic.Store
	switch cfg.Semantic.Backend {
	case "milvus":
		milvusStore, err := semantic.NewMilvusStore(
			cfg.Milvus.Endpoint,
			cfg.Milvus.CollectionName,
			cfg.LLM.EmbeddingDim,
			chunker,
			embedder,
		)
		if err != nil {
			appLogger.Fatal("Failed to connect to Milvus", zap.Error(err))
		}
		defer milvusStore.Close()

		if err := milvusStore.EnsureCollection(context.Background()); err != nil {
			appLogger.Fatal("Failed to ensure collection", zap.Error(err))
		}
		store = milvusStore
	default:
		store = semantic.NewMemoryStore(chunker, embedder)
	}

	checker := inference.NewHTTPChecker(cfg.Inference.HealthURL, cfg.Inference.HealthTimeout)

	var waker inference.WakeStrategy
	switch cfg.Wake.Strategy {
	case "job":
		waker = inference.NewJobWaker(cfg.Wake.JobURL, checker, cfg.Wake.JobTimeout, cfg.Wake.MaxAttempts, cfg.Wake.PollInterval)
	default:
		waker = inference.NewPollWaker(checker, cfg.Wake.MaxAttempts, cfg.Wake.PollInterval)
	}

	lifecycle := inference.NewManager(checker, waker, cfg.Inference.CacheTTL)

	sessions := session.NewManager(cfg.Session.MaxSessions, cfg.Session.IdleTimeout)
	defer sessions.Shutdown()

	processor := ingestion.NewProcessor(sqliteClient, store)

	engine := pipeline.NewEngine(pipeline.Config{
		Tenants:    tenants,
		Classifier: intent.NewClassifier(),
		Store:      store,
		Generator:  llmClient,
		Validator:  guardrail.NewValidator(cfg.Guardrail.GroundingThreshold),
		Lifecycle:  lifecycle,
		DB:         sqliteClient,
		TopK:       cfg.Semantic.TopK,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		Window:      cfg.RateLimit.Window,
		MaxRequests: cfg.RateLimit.MaxRequests,
		Logger:      appLogger.GetLogger(),
	})
	defer limiter.Close()

	// Tighter window on the turn endpoint; a single caller speaking at
	// machine speed is abuse, not conversation.
	burstLimiter := ratelimit.New(ratelimit.Config{
		Window:      cfg.RateLimit.BurstWindow,
		MaxRequests: cfg.RateLimit.BurstMax,
		Logger:      appLogger.GetLogger(),
	})
	defer burstLimiter.Close()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Tenant-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{Logger: appLogger.GetLogger()}))

	respondHandler := handlers.NewRespondHandler(engine)
	documentHandler := handlers.NewDocumentHandler(processor, sqliteClient)
	statusHandler := handlers.NewStatusHandler(lifecycle, sessions)
	sessionHandler := handlers.NewSessionHandler(engine, sessions, tenants, cfg.Inference.RequestTimeout)
	analyticsHandler := handlers.NewAnalyticsHandler(sqliteClient, cacheClient)

	api := app.Group("/api/v1")

	api.Post("/respond", burstLimiter.Middleware(), respondHandler.HandleRespond)

	api.Post("/documents", documentHandler.HandleUpload)
	api.Get("/documents", documentHandler.HandleList)
	api.Delete("/documents/:id", documentHandler.HandleDelete)

	api.Get("/inference/status", statusHandler.HandleStatus)
	api.Post("/inference/wake", statusHandler.HandleWake)

	api.Get("/sessions", sessionHandler.HandleList)
	api.Get("/sessions/:id", sessionHandler.HandleGet)
	api.Delete("/sessions/:id", sessionHandler.HandleEnd)

	api.Get("/turns", analyticsHandler.HandleRecentTurns)
	api.Get("/violations", analyticsHandler.HandleViolationStats)
	api.Post("/cache/flush", analyticsHandler.HandleFlushCache)

	app.Use("/ws", sessionHandler.Upgrade)
	app.Get("/ws", websocket.New(sessionHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
