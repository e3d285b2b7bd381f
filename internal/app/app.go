package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	_ "github.com/lib/pq"

	"tendertracker/internal/classify"
	"tendertracker/internal/config"
	"tendertracker/internal/domain"
	"tendertracker/internal/infrastructure/portal"
	"tendertracker/internal/infrastructure/sheets"
	"tendertracker/internal/infrastructure/storage"
	"tendertracker/internal/ports"
	"tendertracker/internal/usecase"
	"tendertracker/internal/validate"
)

// Application wires config to the ingestion pipeline.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	db       *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, logger *slog.Logger) (*Application, error) {
	rules := toRules(cfg.Categories)
	categorizer := classify.New(rules, cfg.PriorityBuyers)
	validator := validate.New(categorizer, cfg.Pipeline.DescriptionCap)

	adapters := []ports.SourceAdapter{
		portal.NewETendersAdapter(
			cfg.Sources.API.BaseURL,
			cfg.Sources.API.PageSize,
			nil,
			componentLogger(logger, "adapter.etenders"),
		),
		portal.NewEasyTendersAdapter(
			cfg.Sources.HTML.BaseURL,
			searchTerms(cfg.Categories, cfg.Sources.HTML.KeywordsPerCategory),
			nil,
			componentLogger(logger, "adapter.easytenders"),
		),
		portal.NewTransnetAdapter(
			cfg.Sources.Browser.URL,
			cfg.Sources.Browser.WaitSelector,
			cfg.Sources.Browser.BrowserTimeout(),
			componentLogger(logger, "adapter.transnet"),
		),
	}

	app := &Application{cfg: cfg}

	sink, db, err := buildSink(cfg.Sink)
	if err != nil {
		return nil, err
	}
	app.db = db

	app.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Adapters:      adapters,
		Sink:          sink,
		Categorizer:   categorizer,
		Validator:     validator,
		GraceDays:     cfg.Pipeline.RolloverGraceDays,
		KeepUnmatched: cfg.Pipeline.KeepUnmatched,
		Logger:        componentLogger(logger, "pipeline"),
	})

	return app, nil
}

// Run performs a single full ingestion.
func (a *Application) Run(ctx context.Context) (*usecase.Summary, error) {
	return a.pipeline.Run(ctx)
}

// Close releases the database handle when the Postgres sink is active.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func buildSink(cfg config.SinkConfig) (ports.TenderSink, *sql.DB, error) {
	switch cfg.Kind {
	case "postgres":
		if cfg.Database.DSN == "" {
			return nil, nil, fmt.Errorf("postgres sink selected but no DSN configured")
		}
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return storage.NewPostgresSink(db), db, nil
	case "", "sheets":
		if cfg.Sheets.Endpoint == "" {
			return nil, nil, fmt.Errorf("sheets sink selected but no endpoint configured")
		}
		return sheets.New(cfg.Sheets.Endpoint, cfg.Sheets.Token), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown sink kind %q", cfg.Kind)
	}
}

func toRules(categories []config.CategoryConfig) []classify.Rule {
	rules := make([]classify.Rule, 0, len(categories))
	for _, c := range categories {
		rules = append(rules, classify.Rule{
			Label:    domain.Category(c.Label),
			Keywords: c.Keywords,
			Rank:     c.Rank,
		})
	}
	return rules
}

// searchTerms takes the top keywords of each category, in rank order, for the
// HTML portal's search fan-out.
func searchTerms(categories []config.CategoryConfig, perCategory int) []string {
	if perCategory <= 0 {
		perCategory = 5
	}

	sorted := make([]config.CategoryConfig, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	var terms []string
	for _, c := range sorted {
		n := perCategory
		if n > len(c.Keywords) {
			n = len(c.Keywords)
		}
		terms = append(terms, c.Keywords[:n]...)
	}
	return terms
}

func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With("component", component)
}
