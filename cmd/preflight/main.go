package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/opengovchat/decision-bot-go/internal/config"
	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/service/botchain"
	"github.com/opengovchat/decision-bot-go/internal/service/cache"
	"github.com/opengovchat/decision-bot-go/internal/service/database"
	"github.com/opengovchat/decision-bot-go/internal/util"
)

// Preflight walks every external dependency the bot needs and reports
// which ones answer. Run it before deploying a new environment.
func main() {
	log.Println("=== Deployment Preflight ===")
	log.Println()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config invalid: %v", err)
	}
	log.Println("✓ Config loaded")

	logger, _ := util.NewLogger("warn", "")
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failures := 0

	// Redis
	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		log.Printf("❌ Redis unreachable at %s: %v", cfg.Redis.Addr(), err)
		failures++
	} else {
		defer cacheSvc.Close()
		if err := cacheSvc.WaitUntilReady(ctx, constants.RedisConfig.ReadyTimeout); err != nil {
			log.Printf("❌ Redis not ready: %v", err)
			failures++
		} else {
			log.Printf("✓ Redis ready at %s", cfg.Redis.Addr())
		}
	}

	// Postgres
	if cfg.Postgres.DSN == "" {
		log.Println("- Postgres skipped (POSTGRES_DSN not set)")
	} else {
		postgres, err := database.NewPostgresService(database.PostgresConfig{DSN: cfg.Postgres.DSN}, logger)
		if err != nil {
			log.Printf("❌ Postgres unreachable: %v", err)
			failures++
		} else {
			defer postgres.Close()

			store := database.NewDecisionStore(postgres, logger)
			if err := store.EnsureSchema(ctx); err != nil {
				log.Printf("❌ Decisions schema: %v", err)
				failures++
			} else if count, err := store.Count(ctx); err != nil {
				log.Printf("❌ Decisions count: %v", err)
				failures++
			} else if _, err := store.GetByNumber(ctx, cfg.Intent.CurrentGovernment, 1); err != nil {
				// absence is fine, the probe exercises the read path
				log.Printf("❌ Decisions lookup: %v", err)
				failures++
			} else {
				log.Printf("✓ Postgres ready, %d decisions in store", count)
			}
		}
	}

	// Bot chain
	chain := []struct {
		name string
		ping interface {
			Ping(ctx context.Context) bool
		}
		required bool
	}{
		{"sqlgen", botchain.NewSQLGenClient(cfg.BotChain.SQLGenURL, logger), true},
		{"evaluator", botchain.NewEvaluatorClient(cfg.BotChain.EvaluatorURL, logger), true},
		{"ranker", botchain.NewRankerClient(cfg.BotChain.RankerURL, logger), false},
		{"formatter", botchain.NewFormatterClient(cfg.BotChain.FormatterURL, logger), false},
	}

	for _, stage := range chain {
		if stage.ping.Ping(ctx) {
			log.Printf("✓ %s bot answering", stage.name)
			continue
		}
		if stage.required {
			log.Printf("❌ %s bot not answering", stage.name)
			failures++
		} else {
			log.Printf("- %s bot not configured or not answering (optional)", stage.name)
		}
	}

	log.Println()
	if failures > 0 {
		log.Printf("❌ Preflight failed: %d problem(s)", failures)
		os.Exit(1)
	}
	log.Println("✓ All checks passed")
}
