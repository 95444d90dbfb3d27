package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/database"
	"go.uber.org/zap"
)

// CLI flags
var (
	inputFile  = flag.String("file", "data/decisions.json", "JSON file with a decisions array")
	dsn        = flag.String("dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN")
	government = flag.Int("government", 37, "government number for records that omit it")
	dryRun     = flag.Bool("dry-run", false, "Validate without writing to the database")
	verbose    = flag.Bool("verbose", false, "Verbose output")
)

func main() {
	flag.Parse()

	log.Println("==============================")
	log.Println("Decision JSON to PostgreSQL Import")
	log.Println("==============================")

	if *dryRun {
		log.Println("[DRY RUN MODE] No database changes will be made")
	}

	decisions, err := loadDecisions(*inputFile)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *inputFile, err)
	}
	log.Printf("✓ Loaded %d decisions from %s", len(decisions), *inputFile)

	if err := validateDecisions(decisions); err != nil {
		log.Fatalf("Data validation failed: %v", err)
	}
	log.Println("✓ Data validation passed")

	if *dryRun {
		log.Println("✓ Dry-run completed successfully")
		printSummary(decisions)
		return
	}

	if *dsn == "" {
		log.Fatal("No DSN, pass -dsn or set POSTGRES_DSN")
	}

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}

	postgres, err := database.NewPostgresService(database.PostgresConfig{DSN: *dsn}, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer postgres.Close()
	log.Println("✓ PostgreSQL connected")

	ctx := context.Background()
	store := database.NewDecisionStore(postgres, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	imported := 0
	for _, d := range decisions {
		if err := store.Upsert(ctx, d); err != nil {
			log.Printf("✗ Decision %d/%d failed: %v", d.GovernmentNumber, d.DecisionNumber, err)
			continue
		}
		imported++
		if *verbose {
			log.Printf("  upserted %d/%d %s", d.GovernmentNumber, d.DecisionNumber, d.Title)
		}
	}

	total, err := store.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count decisions: %v", err)
	}

	log.Printf("✓ Import completed: %d/%d upserted, %d in store", imported, len(decisions), total)
}

func loadDecisions(path string) ([]*domain.Decision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var decisions []*domain.Decision
	if err := json.Unmarshal(data, &decisions); err != nil {
		// some exports wrap the array in an object
		var doc struct {
			Decisions []*domain.Decision `json:"decisions"`
		}
		if err2 := json.Unmarshal(data, &doc); err2 != nil {
			return nil, err
		}
		decisions = doc.Decisions
	}

	for _, d := range decisions {
		if d.GovernmentNumber == 0 {
			d.GovernmentNumber = *government
		}
	}

	return decisions, nil
}

func validateDecisions(decisions []*domain.Decision) error {
	if len(decisions) == 0 {
		return fmt.Errorf("no decisions in input")
	}

	seen := make(map[string]struct{}, len(decisions))
	for i, d := range decisions {
		if d == nil {
			return fmt.Errorf("record %d is null", i)
		}
		if d.GovernmentNumber <= 0 || d.DecisionNumber <= 0 {
			return fmt.Errorf("record %d has bad numbers %d/%d", i, d.GovernmentNumber, d.DecisionNumber)
		}
		if d.Title == "" {
			return fmt.Errorf("record %d (decision %d) has no title", i, d.DecisionNumber)
		}

		key := d.Key()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate decision %s", key)
		}
		seen[key] = struct{}{}
	}

	return nil
}

func printSummary(decisions []*domain.Decision) {
	byGovernment := make(map[int]int)
	withDate := 0
	withContent := 0

	for _, d := range decisions {
		byGovernment[d.GovernmentNumber]++
		if d.DecisionDate != "" {
			withDate++
		}
		if d.Content != "" {
			withContent++
		}
	}

	log.Println()
	log.Println("Summary:")
	for gov, count := range byGovernment {
		log.Printf("  government %d: %d decisions", gov, count)
	}
	log.Printf("  with date: %d, with content: %d", withDate, withContent)
}
