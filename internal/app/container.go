package app

import (
	"context"
	"fmt"

	"github.com/opengovchat/decision-bot-go/internal/adapter"
	"github.com/opengovchat/decision-bot-go/internal/config"
	"github.com/opengovchat/decision-bot-go/internal/prompt"
	"github.com/opengovchat/decision-bot-go/internal/router"
	"github.com/opengovchat/decision-bot-go/internal/server"
	"github.com/opengovchat/decision-bot-go/internal/service/ai"
	"github.com/opengovchat/decision-bot-go/internal/service/botchain"
	"github.com/opengovchat/decision-bot-go/internal/service/cache"
	"github.com/opengovchat/decision-bot-go/internal/service/conversation"
	"github.com/opengovchat/decision-bot-go/internal/service/database"
	"github.com/opengovchat/decision-bot-go/internal/service/intent"
	"go.uber.org/zap"
)

// Container bundles the assembled services behind the running server.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Server *server.Server

	Cache     *cache.CacheService
	Postgres  *database.PostgresService
	Decisions *database.DecisionStore
	Router    *router.Router

	closers []func()
}

// Close releases held resources in reverse construction order.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles all infrastructure services and returns a container
// holding the fully-wired server. All heavy-weight initialization
// (Redis/Postgres/AI clients) is performed here so cmd/bot stays focused
// on lifecycle.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Cache and database
	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache service: %w", err)
	}
	closers = append(closers, func() {
		_ = cacheSvc.Close()
	})

	// Postgres is optional: without it conversation context still lives in
	// Redis, only durable turn history and the local decision mirror are off.
	var (
		postgresSvc   *database.PostgresService
		decisionStore *database.DecisionStore
		convStore     *conversation.Store
	)
	if cfg.Postgres.DSN != "" {
		postgresSvc, err = database.NewPostgresService(database.PostgresConfig{
			DSN: cfg.Postgres.DSN,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres service: %w", err)
		}
		closers = append(closers, func() {
			_ = postgresSvc.Close()
		})

		decisionStore = database.NewDecisionStore(postgresSvc, logger)
		if err = decisionStore.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure decisions schema: %w", err)
		}

		convStore = conversation.NewStore(postgresSvc, logger)
		if err = convStore.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure conversations schema: %w", err)
		}
	} else {
		logger.Warn("POSTGRES_DSN not set, conversation history and decision mirror disabled")
	}

	memory := conversation.NewMemory(convStore, cacheSvc, logger)

	// AI stack, only assembled when the fallback path is switched on
	var (
		modelManager *ai.ModelManager
		clarifier    *ai.Clarifier
		parser       *ai.FallbackParser
		summarizer   *ai.Summarizer
	)
	library := intent.NewLibrary()
	if cfg.Intent.EnableLLMFallback {
		modelManager, err = ai.NewModelManager(ctx, ai.ModelManagerConfig{
			GeminiAPIKey:       cfg.Gemini.APIKey,
			OpenAIAPIKey:       cfg.OpenAI.APIKey,
			DefaultGeminiModel: "gemini-2.5-flash",
			DefaultOpenAIModel: "gpt-4.1-mini",
			EnableFallback:     cfg.OpenAI.EnableFallback,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create model manager: %w", err)
		}

		promptBuilder := prompt.NewPromptBuilder()
		if err = promptBuilder.Preload(); err != nil {
			return nil, fmt.Errorf("failed to preload prompt templates: %w", err)
		}

		clarifier = ai.NewClarifier(modelManager, promptBuilder, cacheSvc, library, cfg.Intent.CurrentGovernment, logger)
		parser = ai.NewFallbackParser(modelManager, promptBuilder, library, cfg.Intent.CurrentGovernment, logger)
		summarizer = ai.NewSummarizer(modelManager, promptBuilder, logger)
		logger.Info("LLM fallback enabled",
			zap.Bool("gemini", cfg.Gemini.APIKey != ""),
			zap.Bool("openai", cfg.OpenAI.APIKey != ""))
	}

	// Downstream bot chain
	sqlgen := botchain.NewSQLGenClient(cfg.BotChain.SQLGenURL, logger)
	evaluator := botchain.NewEvaluatorClient(cfg.BotChain.EvaluatorURL, logger)
	ranker := botchain.NewRankerClient(cfg.BotChain.RankerURL, logger)
	formatter := botchain.NewFormatterClient(cfg.BotChain.FormatterURL, logger)

	// Classification and routing
	classifier := intent.New(cfg.Intent.CurrentGovernment)
	render := adapter.NewResponseFormatter(cfg.Intent.CurrentGovernment)

	registry := router.BuildRegistry(&router.Dependencies{
		SQLGen:            sqlgen,
		Evaluator:         evaluator,
		Ranker:            ranker,
		Formatter:         formatter,
		Clarifier:         clarifier,
		Summarizer:        summarizer,
		Render:            render,
		Memory:            memory,
		CurrentGovernment: cfg.Intent.CurrentGovernment,
		Logger:            logger,
	})

	routerOpts := []router.Option{
		router.WithMemory(memory),
		router.WithCacheTTL(cfg.Intent.CacheTTL),
		router.WithFallbackFloor(cfg.Intent.FallbackFloor),
		router.WithLogger(logger),
	}
	if parser != nil {
		routerOpts = append(routerOpts, router.WithFallbackParser(parser))
	}
	chatRouter := router.New(classifier, registry, routerOpts...)

	srv := server.New(cfg.Server, &server.Dependencies{
		Router:     chatRouter,
		Classifier: classifier,
		Cache:      cacheSvc,
		Postgres:   postgresSvc,
		Models:     modelManager,
		Logger:     logger,
	})

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Server:    srv,
		Cache:     cacheSvc,
		Postgres:  postgresSvc,
		Decisions: decisionStore,
		Router:    chatRouter,
		closers:   closers,
	}, nil
}
