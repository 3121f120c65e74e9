package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/humanizi/whatsrelay/internal/api/router"
	appconfig "github.com/humanizi/whatsrelay/internal/config"
	"github.com/humanizi/whatsrelay/internal/conversation"
	"github.com/humanizi/whatsrelay/internal/messaging"
	"github.com/humanizi/whatsrelay/internal/observability/metrics"
	"github.com/humanizi/whatsrelay/internal/webhook"
	"github.com/humanizi/whatsrelay/pkg/logging"
)

func main() {
	// Local development reads a .env file; missing files are fine.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting whatsrelay API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
	}

	var store conversation.Store
	if redisClient != nil {
		store = conversation.NewRedisStore(redisClient, cfg.MaxHistoryPairs, nil)
	} else {
		store = conversation.NewMemoryStore(cfg.MaxHistoryPairs)
	}

	llm, err := buildLLMClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}

	graphClient, err := messaging.NewGraphClient(messaging.GraphConfig{
		BaseURL:       cfg.GraphBaseURL,
		APIVersion:    cfg.GraphAPIVersion,
		AccessToken:   cfg.WhatsAppToken,
		PhoneNumberID: cfg.PhoneNumberID,
		Timeout:       cfg.GraphTimeout,
	})
	if err != nil {
		logger.Error("failed to initialize graph client", "error", err)
		os.Exit(1)
	}

	var messageLog conversation.MessageLog
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		msgStore := messaging.NewStore(pool)
		if err := msgStore.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure message schema", "error", err)
			os.Exit(1)
		}
		messageLog = msgStore
	}

	relayMetrics := metrics.NewRelayMetrics(nil)

	pipeline := conversation.NewPipeline(conversation.PipelineDeps{
		Store:       store,
		LLM:         llm,
		Messenger:   graphClient,
		Transcripts: conversation.NewTranscriptStore(redisClient),
		Log:         messageLog,
		Logger:      logger,
		Metrics:     relayMetrics,
	}, conversation.PipelineConfig{
		Model:          modelForProvider(cfg),
		SystemPrompt:   cfg.SystemPrompt,
		MaxTokens:      int32(cfg.MaxReplyTokens),
		Temperature:    float32(cfg.ReplyTemperature),
		MaxReplyLength: cfg.ReplyMaxLength,
	})

	webhookHandler := webhook.NewHandler(cfg.VerifyToken, pipeline, logger, relayMetrics)

	r := router.New(&router.Config{
		Logger:         logger,
		WebhookHandler: webhookHandler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildLLMClient selects the reply provider from configuration. With OpenAI
// as primary and a Gemini key also configured, Gemini backs up the primary;
// the Gemini client runs its own configured model, so the shared request
// model id stays valid in both directions.
func buildLLMClient(ctx context.Context, cfg *appconfig.Config) (conversation.LLMClient, error) {
	switch cfg.LLMProvider {
	case "openai":
		primary, err := conversation.NewOpenAILLMClient(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, err
		}
		if cfg.GeminiAPIKey == "" {
			return primary, nil
		}
		secondary, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return conversation.NewFallbackLLMClient(primary, secondary, slog.Default()), nil
	case "gemini":
		return conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "bedrock":
		awsCfg, err := appconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg)), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

func modelForProvider(cfg *appconfig.Config) string {
	switch cfg.LLMProvider {
	case "gemini":
		return cfg.GeminiModel
	case "bedrock":
		return cfg.BedrockModelID
	default:
		return cfg.OpenAIModel
	}
}
