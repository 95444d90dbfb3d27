package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/opengovchat/decision-bot-go/internal/constants"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"github.com/opengovchat/decision-bot-go/internal/service/database"
	"github.com/opengovchat/decision-bot-go/internal/util"
)

const (
	userAgent    = "Mozilla/5.0 (compatible; DecisionBot/1.0; +https://www.gov.il)"
	delayBetween = 250 * time.Millisecond
)

// CLI flags
var (
	dsn        = flag.String("dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN")
	government = flag.Int("government", 37, "government number for pages that omit it")
	pages      = flag.Int("pages", 10, "listing pages to walk")
	dryRun     = flag.Bool("dry-run", false, "parse without writing to the database")
)

var (
	decisionNumberPattern = regexp.MustCompile(`dec(\d+)`)
	governmentPattern     = regexp.MustCompile(`ממשלה ה?[- ]?(\d+)`)
	hebrewDatePattern     = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
)

func main() {
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()
	httpClient := &http.Client{Timeout: constants.ScraperConfig.RequestTimeout}

	links := collectDecisionLinks(ctx, httpClient, logger)
	if len(links) == 0 {
		logger.Fatal("no decision links found, listing structure may have changed")
	}
	logger.Info("Decision links collected", zap.Int("count", len(links)))

	decisions := fetchDecisions(ctx, httpClient, links, logger)

	parsed := 0
	for _, d := range decisions {
		if d != nil {
			parsed++
		}
	}
	logger.Info("Decision pages parsed",
		zap.Int("parsed", parsed),
		zap.Int("failed", len(links)-parsed))

	if *dryRun {
		logger.Info("Dry run, skipping database writes")
		return
	}

	if *dsn == "" {
		logger.Fatal("no DSN, pass -dsn or set POSTGRES_DSN")
	}

	postgres, err := database.NewPostgresService(database.PostgresConfig{DSN: *dsn}, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer postgres.Close()

	store := database.NewDecisionStore(postgres, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure decisions schema", zap.Error(err))
	}

	upserted := 0
	for _, d := range decisions {
		if d == nil {
			continue
		}
		if d.GovernmentNumber == 0 {
			d.GovernmentNumber = *government
		}
		if err := store.Upsert(ctx, d); err != nil {
			logger.Error("upsert failed",
				zap.Int("decision", d.DecisionNumber),
				zap.Error(err))
			continue
		}
		upserted++
	}

	total, err := store.Count(ctx)
	if err != nil {
		total = -1
	}
	logger.Info("Ingest completed",
		zap.Int("upserted", upserted),
		zap.Int("total_in_store", total))
}

// collectDecisionLinks walks the listing pages sequentially. Listing pages
// are cheap, the per-decision fetches are where the pool pays off.
func collectDecisionLinks(ctx context.Context, client *http.Client, logger *zap.Logger) []string {
	seen := make(map[string]struct{})
	links := make([]string, 0)

	for page := 0; page < *pages; page++ {
		url := fmt.Sprintf("%s?skip=%d", constants.ScraperConfig.BaseURL, page*constants.ScraperConfig.PageSize)
		pageLinks, err := fetchListingPage(ctx, client, url)
		if err != nil {
			logger.Error("listing page failed", zap.Int("page", page), zap.Error(err))
			break
		}
		if len(pageLinks) == 0 {
			break
		}

		for _, link := range pageLinks {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}

		logger.Info("Listing page walked", zap.Int("page", page), zap.Int("links", len(pageLinks)))
		time.Sleep(delayBetween)
	}

	return links
}

func fetchListingPage(ctx context.Context, client *http.Client, url string) ([]string, error) {
	doc, err := fetchDocument(ctx, client, url)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0)
	doc.Find("a[href*='/policies/dec']").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		if !decisionNumberPattern.MatchString(href) {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = "https://www.gov.il" + href
		}
		links = append(links, href)
	})

	return links, nil
}

func fetchDecisions(ctx context.Context, client *http.Client, links []string, logger *zap.Logger) []*domain.Decision {
	p := pool.New().WithMaxGoroutines(constants.ScraperConfig.MaxConcurrency)

	decisions := make([]*domain.Decision, len(links))
	var mu sync.Mutex

	for idx, link := range links {
		idx, link := idx, link
		p.Go(func() {
			d, err := fetchDecision(ctx, client, link)
			if err != nil {
				logger.Warn("decision page failed", zap.String("url", link), zap.Error(err))
				return
			}
			mu.Lock()
			decisions[idx] = d
			mu.Unlock()
		})
	}

	p.Wait()
	return decisions
}

func fetchDecision(ctx context.Context, client *http.Client, url string) (*domain.Decision, error) {
	match := decisionNumberPattern.FindStringSubmatch(url)
	if match == nil {
		return nil, fmt.Errorf("no decision number in URL")
	}
	decisionNumber, err := strconv.Atoi(match[1])
	if err != nil || decisionNumber <= 0 {
		return nil, fmt.Errorf("bad decision number %q", match[1])
	}

	doc, err := fetchDocument(ctx, client, url)
	if err != nil {
		return nil, err
	}

	d := &domain.Decision{
		DecisionNumber: decisionNumber,
		URL:            url,
	}

	d.Title = normalizeText(doc.Find("h1").First().Text())
	if d.Title == "" {
		return nil, fmt.Errorf("decision page has no title")
	}

	// metadata rows render as dt/dd pairs
	doc.Find("dl dt").Each(func(_ int, dt *goquery.Selection) {
		label := strings.TrimSpace(dt.Text())
		value := normalizeText(dt.Next().Text())
		if value == "" {
			return
		}

		switch {
		case strings.Contains(label, "תאריך"):
			if iso := parseHebrewDate(value); iso != "" {
				d.DecisionDate = iso
			}
		case strings.Contains(label, "משרד"):
			d.Ministries = splitMinistries(value)
		case strings.Contains(label, "נושא"):
			d.Topic = value
		case strings.Contains(label, "אופרטיבי"), strings.Contains(label, "סוג החלטה"):
			d.Operativity = value
		}
	})

	pageText := doc.Text()
	if match := governmentPattern.FindStringSubmatch(pageText); match != nil {
		if gov, err := strconv.Atoi(match[1]); err == nil && gov > 0 && gov < 100 {
			d.GovernmentNumber = gov
		}
	}
	if d.DecisionDate == "" {
		if iso := parseHebrewDate(pageText); iso != "" {
			d.DecisionDate = iso
		}
	}

	paragraphs := make([]string, 0)
	doc.Find("article p, .decision-content p").Each(func(_ int, sel *goquery.Selection) {
		text := normalizeText(sel.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	d.Content = strings.Join(paragraphs, "\n")

	return d, nil
}

func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "he,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	return doc, nil
}

// parseHebrewDate converts the first DD.MM.YYYY occurrence to ISO.
func parseHebrewDate(text string) string {
	match := hebrewDatePattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}

	t, err := time.Parse("2.1.2006", fmt.Sprintf("%s.%s.%s", match[1], match[2], match[3]))
	if err != nil {
		return ""
	}
	return util.FormatISODate(t)
}

func splitMinistries(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})

	ministries := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			ministries = append(ministries, part)
		}
	}
	return util.UniqueStrings(ministries)
}

func normalizeText(input string) string {
	input = strings.ReplaceAll(input, " ", " ")
	lines := strings.Split(input, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	return strings.Join(filtered, "\n")
}
