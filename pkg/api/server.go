// Package api exposes the valuation, risk, and comparison engines over
// HTTP. Handlers are thin: parse, delegate, render.
package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"goldval/pkg/config"
	"goldval/pkg/core/benchmark"
	"goldval/pkg/core/capital"
	"goldval/pkg/core/dcf"
	"goldval/pkg/core/dilution"
	"goldval/pkg/core/marketdata"
	"goldval/pkg/core/metrics"
	"goldval/pkg/core/nav"
	"goldval/pkg/core/report"
	"goldval/pkg/core/risk"
	"goldval/pkg/core/scenario"
	"goldval/pkg/core/sensitivity"
	"goldval/pkg/core/store"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// CompanySource yields normalized company records. The live implementation
// is marketdata.Normalizer; tests substitute fixtures.
type CompanySource interface {
	Company(ctx context.Context, ticker string) (models.Company, error)
	AllCompanies(ctx context.Context) ([]models.Company, []models.TickerError)
}

// GoldSource yields the current gold price and its trailing history summary.
type GoldSource interface {
	GetGoldPrice(ctx context.Context, fallback float64) marketdata.GoldPrice
	GetGoldStats(ctx context.Context, period string) (marketdata.GoldStats, error)
}

// Server wires every engine behind the HTTP surface.
type Server struct {
	cfg       *config.Config
	companies CompanySource
	gold      GoldSource

	calc        *dcf.Calculator
	sensitivity *sensitivity.Generator
	scenarios   scenario.ScenarioSet
	analyzer    *scenario.Analyzer
	navModel    *nav.Model
	riskScorer  *risk.Scorer
	benchmark   *benchmark.Calculator
	dilution    *dilution.Modeler
	capital     *capital.Analyzer
	metrics     *metrics.Calculator
	report      *report.Builder
	snapshots   *store.SnapshotRepo

	log zerolog.Logger
}

// NewServer builds the full engine stack from configuration. snapshots may
// be nil when no database is configured; valuation runs are then not
// persisted.
func NewServer(cfg *config.Config, companies CompanySource, gold GoldSource, asOfYear int, snapshots *store.SnapshotRepo) *Server {
	calc := dcf.NewCalculator(cfg.Assumptions.TaxRate, asOfYear)
	analyzer := scenario.NewAnalyzer(calc, cfg.Assumptions.RiskAversion)
	set := scenario.SetFromConfig(cfg.Assumptions.GoldPriceScenarios)
	capitalAnalyzer := capital.NewAnalyzer(cfg.Risk.Categories.Funding.Thresholds.RunwayMonths)
	dilutionModeler := dilution.NewModeler()

	return &Server{
		cfg:         cfg,
		companies:   companies,
		gold:        gold,
		calc:        calc,
		sensitivity: sensitivity.NewGenerator(calc),
		scenarios:   set,
		analyzer:    analyzer,
		navModel:    nav.NewModel(calc, cfg.Assumptions.NAVModel),
		riskScorer:  risk.NewScorer(cfg.Risk),
		benchmark:   benchmark.NewCalculator(analyzer, set, cfg.Benchmarks),
		dilution:    dilutionModeler,
		capital:     capitalAnalyzer,
		metrics:     metrics.NewCalculator(capitalAnalyzer, dilutionModeler),
		report:      report.NewBuilder(),
		snapshots:   snapshots,
		log:         logging.ForComponent("api"),
	}
}

// Router assembles the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/gold", s.handleGold)
		r.Get("/gold/stats", s.handleGoldStats)

		r.Get("/companies", s.handleListCompanies)
		r.Route("/companies/{ticker}", func(r chi.Router) {
			r.Get("/", s.handleCompany)
			r.Get("/valuation", s.handleValuation)
			r.Get("/sensitivity", s.handleSensitivity)
			r.Get("/nav", s.handleNAV)
			r.Get("/risk", s.handleRisk)
			r.Get("/dilution", s.handleDilution)
			r.Get("/return", s.handleReturn)
		})

		r.Get("/compare", s.handleCompare)
		r.Get("/report", s.handleReportHTML)
		r.Get("/report.md", s.handleReportMarkdown)
		r.Get("/report.xlsx", s.handleReportWorkbook)
	})
	return r
}
