package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-insurance-bot/internal/application"
	"telegram-insurance-bot/internal/config"
	"telegram-insurance-bot/internal/domain/ports/adapter"
	"telegram-insurance-bot/internal/domain/ports/repository"
	"telegram-insurance-bot/internal/infra/adapters/assistant"
	"telegram-insurance-bot/internal/infra/adapters/ocr"
	"telegram-insurance-bot/internal/infra/adapters/policy"
	tele "telegram-insurance-bot/internal/infra/adapters/telegram"
	"telegram-insurance-bot/internal/infra/logging"
	"telegram-insurance-bot/internal/infra/memory"
	"telegram-insurance-bot/internal/infra/metrics"
	red "telegram-insurance-bot/internal/infra/redis"
	"telegram-insurance-bot/internal/infra/web"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode (noop collaborators allowed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()

	// ---- Redis (rate limiting + optional state backend) ----
	var rateLimiter *red.RateLimiter
	var store repository.ConversationStore
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
		if cfg.State.Backend == "redis" {
			store = red.NewStateStore(redisClient, cfg.Redis.TTL)
			logger.Info().Dur("ttl", cfg.Redis.TTL).Msg("state backend: redis")
		}
	}
	if store == nil {
		store = memory.NewStateStore()
		logger.Info().Msg("state backend: memory")
	}

	// ---- OCR extractor ----
	var extractor adapter.DocumentExtractor
	if cfg.OCR.APIKey != "" {
		extractor, err = ocr.NewMindeeAdapter(cfg.OCR.APIKey, cfg.OCR.BaseURL, logger)
		if err != nil {
			log.Fatalf("mindee adapter: %v", err)
		}
	} else {
		// LoadConfig only lets the key be empty in dev mode.
		extractor = ocr.NewNoopExtractor()
		logger.Warn().Msg("ocr: noop extractor")
	}

	// ---- Assistant (HuggingFace -> Gemini -> OpenAI) ----
	var resp adapter.Assistant
	switch {
	case cfg.Assistant.HuggingFaceToken != "":
		resp, err = assistant.NewHuggingFaceAdapter(cfg.Assistant.HuggingFaceToken, cfg.Assistant.HuggingFaceURL, cfg.Assistant.MaxTokens)
		if err != nil {
			log.Fatalf("huggingface adapter: %v", err)
		}
		logger.Info().Str("url", cfg.Assistant.HuggingFaceURL).Msg("assistant: huggingface")
	case cfg.Assistant.GeminiKey != "":
		resp, err = assistant.NewGeminiAdapter(ctx, cfg.Assistant.GeminiKey, cfg.Assistant.Model, cfg.Assistant.MaxTokens)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
		logger.Info().Str("model", cfg.Assistant.Model).Msg("assistant: gemini")
	case cfg.Assistant.OpenAIKey != "":
		resp, err = assistant.NewOpenAIAdapter(cfg.Assistant.OpenAIKey, cfg.Assistant.Model, cfg.Assistant.MaxTokens)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
		logger.Info().Str("model", cfg.Assistant.Model).Msg("assistant: openai")
	default:
		resp = assistant.NewNoopAssistant()
		logger.Warn().Msg("assistant: noop")
	}

	// ---- Telegram + runner ----
	transport, err := tele.NewRealTransport(&cfg.Bot, rateLimiter, logger)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	facade, err := application.NewBotFacade(store, transport, extractor, policy.NewPDFGenerator(), resp, logger)
	if err != nil {
		log.Fatalf("facade: %v", err)
	}
	go func() {
		if err := transport.StartPolling(ctx, facade.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin HTTP (health + metrics) ----
	srv := web.NewServer(cfg.Admin.Port, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	transport.StopPolling()
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
}
