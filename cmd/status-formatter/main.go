package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/dago-adapters/pkg/llm"
	"github.com/aescanero/dago-status-formatter/internal/category"
	"github.com/aescanero/dago-status-formatter/internal/classifier"
	"github.com/aescanero/dago-status-formatter/internal/config"
	"github.com/aescanero/dago-status-formatter/internal/eval/cel"
	"github.com/aescanero/dago-status-formatter/internal/events"
	"github.com/aescanero/dago-status-formatter/internal/server"
	"github.com/aescanero/dago-status-formatter/internal/validate"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting status formatter",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// Log configuration (without sensitive data)
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	registry, err := category.Load(cfg.CategoriesFile)
	if err != nil {
		logger.Fatal("failed to load categories", zap.Error(err))
	}

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		logger.Fatal("failed to initialize cel evaluator", zap.Error(err))
	}
	validator, err := validate.New(evaluator, registry.Names(), validate.DefaultRules)
	if err != nil {
		logger.Fatal("failed to compile validation rules", zap.Error(err))
	}

	cls, err := initClassifier(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize classifier", zap.Error(err))
	}
	logger.Info("classifier initialized",
		zap.String("backend", cfg.ClassifierBackend),
		zap.String("model", cls.Model()),
	)

	// Redis is optional: it backs the classification cache and the event stream
	var publisher events.Publisher = events.Noop{}
	checks := map[string]server.CheckFunc{}
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

		if cfg.CacheTTL > 0 {
			cls = classifier.NewCached(cls, classifier.NewRedisStore(redisClient), cfg.CacheTTL, logger)
		}
		publisher = events.NewRedisPublisher(redisClient, cfg.EventStream, cfg.EventMaxLen, logger)
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	handler := server.NewHandler(server.Options{
		AuthToken:    cfg.AuthToken,
		Registry:     registry,
		Validator:    validator,
		Classifier:   cls,
		Publisher:    publisher,
		MaxBodyBytes: cfg.MaxBodyBytes,
		SanitizeHTML: cfg.SanitizeHTML,
		Logger:       logger,
	})

	srv := server.NewServer(cfg.Port, handler, cfg.ReadTimeout, cfg.WriteTimeout, logger)
	if err := srv.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	// Start health server
	healthServer := server.NewHealthServer(cfg.HealthPort, checks, logger)
	if err := healthServer.Start(); err != nil {
		logger.Fatal("failed to start health server", zap.Error(err))
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("status formatter running, press Ctrl+C to stop")
	<-sigChan

	logger.Info("shutdown signal received, stopping server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := healthServer.Stop(); err != nil {
		logger.Error("failed to stop health server", zap.Error(err))
	}

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis connection", zap.Error(err))
		}
	}

	select {
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, forcing exit")
	default:
		logger.Info("status formatter stopped gracefully")
	}
}

// initLogger initializes the logger
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

// initClassifier builds the configured classifier backend
func initClassifier(cfg *config.Config, logger *zap.Logger) (classifier.Classifier, error) {
	switch cfg.ClassifierBackend {
	case config.BackendAdapter:
		client, err := llm.NewClient(&llm.Config{
			Provider: cfg.LLMProvider,
			APIKey:   cfg.LLMAPIKey,
			Logger:   logger.Named("llm"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		complete := classifier.FromLLMClient(client)
		return classifier.NewAdapter(classifier.WithTimeout(complete, cfg.LLMTimeout), cfg.LLMModel, logger), nil
	default:
		return classifier.NewGateway(classifier.GatewayConfig{
			BaseURL:      cfg.GatewayURL,
			APIKey:       cfg.OpenAIAPIKey,
			GatewayToken: cfg.CFToken,
			Model:        cfg.GatewayModel,
			Timeout:      cfg.LLMTimeout,
		}, logger)
	}
}
