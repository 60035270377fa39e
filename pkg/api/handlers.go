package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"goldval/pkg/core/dcf"
	"goldval/pkg/core/dilution"
	"goldval/pkg/core/marketdata"
	"goldval/pkg/core/metrics"
	"goldval/pkg/core/nav"
	"goldval/pkg/core/report"
	"goldval/pkg/core/scenario"
	"goldval/pkg/core/sensitivity"
	"goldval/pkg/models"
)

// Default perturbation grids for the sensitivity endpoint.
var (
	defaultPriceGrid = []float64{1800, 1950, 2100, 2250, 2400}
	defaultRateGrid  = []float64{0.05, 0.08, 0.10, 0.12}
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleGold(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.gold.GetGoldPrice(r.Context(), s.cfg.Assumptions.FallbackGoldPrice))
}

func (s *Server) handleGoldStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.gold.GetGoldStats(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	render.JSON(w, r, stats)
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, failures := s.companies.AllCompanies(r.Context())
	gold := s.gold.GetGoldPrice(r.Context(), s.cfg.Assumptions.FallbackGoldPrice)
	rows, metricFailures := s.metrics.Compare(companies, gold)
	failures = append(failures, metricFailures...)

	render.JSON(w, r, struct {
		Companies []metrics.SummaryRow `json:"companies"`
		Failures  []models.TickerError `json:"failures,omitempty"`
		Gold      float64              `json:"gold_price"`
	}{rows, failures, gold.Price})
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	c, gold, err := s.resolve(r)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	bundle, err := s.metrics.AllMetrics(c, gold)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	render.JSON(w, r, bundle)
}

// ValuationResponse is the full single-company valuation payload.
type ValuationResponse struct {
	Ticker    string                       `json:"ticker"`
	GoldPrice float64                      `json:"gold_price"`
	Rate      float64                      `json:"discount_rate"`
	Metrics   dcf.Metrics                  `json:"metrics"`
	Expected  scenario.ExpectedValueResult `json:"expected_value"`
	Dilution  dilution.NPVAdjustment       `json:"dilution_adjusted"`
	Drivers   []sensitivity.Driver         `json:"value_drivers"`
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	c, gold, err := s.resolve(r)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	goldPrice := queryFloat(r, "gold", gold.Price)
	rate := queryFloat(r, "rate", s.cfg.Assumptions.NAVModel.DefaultDiscountRate)

	in := dcf.InputsFromProject(c.Project, goldPrice, rate)
	m, err := s.calc.ProjectMetrics(in)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	expected, err := s.analyzer.CalculateExpectedNPV(in, s.scenarios)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	adjusted, err := s.dilution.NPVAdjustedForDilution(c, m.NPV)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	drivers, err := s.sensitivity.FindValueDrivers(in, 10)
	if err != nil {
		s.log.Warn().Str("ticker", c.Ticker).Err(err).Msg("value drivers unavailable")
	}

	resp := ValuationResponse{
		Ticker:    c.Ticker,
		GoldPrice: goldPrice,
		Rate:      rate,
		Metrics:   m,
		Expected:  expected,
		Dilution:  adjusted,
		Drivers:   drivers,
	}
	s.persist(r, c.Ticker, goldPrice, resp)
	render.JSON(w, r, resp)
}

func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	c, gold, err := s.resolve(r)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	rate := queryFloat(r, "rate", s.cfg.Assumptions.NAVModel.DefaultDiscountRate)

	in := dcf.InputsFromProject(c.Project, gold.Price, rate)
	matrix, err := s.sensitivity.GoldDiscountMatrix(in, defaultPriceGrid, defaultRateGrid)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	render.JSON(w, r, matrix)
}

func (s *Server) handleNAV(w http.ResponseWriter, r *http.Request) {
	c, gold, err := s.resolve(r)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	var opts nav.Options
	if rate := queryFloat(r, "rate", 0); rate > 0 {
		opts.DiscountRate = &rate
	}
	result, err := s.navModel.CalculateCompanyNAV(c, gold.Price, opts)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	render.JSON(w, r, result)
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.resolve(r)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	render.JSON(w, r, s.riskScorer.CalculateComposite(c))
}

func (s *Server) handleDilution(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.resolve(r)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	analysis, err := s.dilution.ModelScenarios(c)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	render.JSON(w, r, analysis)
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.resolve(r)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	rate := queryFloat(r, "rate", s.cfg.Assumptions.NAVModel.DefaultDiscountRate)
	result, err := s.benchmark.CalculateAdjustedReturn(c, rate, nil)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	render.JSON(w, r, result)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	companies, failures := s.companies.AllCompanies(r.Context())
	gold := s.gold.GetGoldPrice(r.Context(), s.cfg.Assumptions.FallbackGoldPrice)
	rate := queryFloat(r, "rate", s.cfg.Assumptions.NAVModel.DefaultDiscountRate)

	navComparison := s.navModel.CompareCompanies(companies, gold.Price, nav.Options{})
	riskScores, riskRanking := s.riskScorer.CompareCompanies(companies)
	returns, returnFailures := s.benchmark.CompareCompanies(companies, rate)
	dilutions, dilutionFailures := s.dilution.CompareCompanies(companies)
	failures = append(failures, returnFailures...)
	failures = append(failures, dilutionFailures...)

	render.JSON(w, r, map[string]interface{}{
		"gold_price":   gold.Price,
		"nav":          navComparison,
		"risk_scores":  riskScores,
		"risk_ranking": riskRanking,
		"returns":      returns,
		"dilution":     dilutions,
		"failures":     failures,
	})
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	in, err := s.reportInput(r)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	html, err := s.report.HTML(in)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	in, err := s.reportInput(r)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(s.report.Markdown(in)))
}

func (s *Server) handleReportWorkbook(w http.ResponseWriter, r *http.Request) {
	in, err := s.reportInput(r)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	f, err := s.report.Workbook(in)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="gold_portfolio.xlsx"`)
	if err := f.Write(w); err != nil {
		s.log.Error().Err(err).Msg("failed to stream workbook")
	}
}

// reportInput assembles the full memo input for the configured universe.
func (s *Server) reportInput(r *http.Request) (report.Input, error) {
	companies, _ := s.companies.AllCompanies(r.Context())
	gold := s.gold.GetGoldPrice(r.Context(), s.cfg.Assumptions.FallbackGoldPrice)
	rate := queryFloat(r, "rate", s.cfg.Assumptions.NAVModel.DefaultDiscountRate)

	in := report.Input{GeneratedAt: time.Now(), Gold: gold}
	in.NAV = s.navModel.CompareCompanies(companies, gold.Price, nav.Options{DiscountRate: &rate})
	_, in.RiskRanking = s.riskScorer.CompareCompanies(companies)
	for _, c := range companies {
		section := report.CompanySection{Risk: s.riskScorer.CalculateComposite(c)}

		bundle, err := s.metrics.AllMetrics(c, gold)
		if err != nil {
			s.log.Warn().Str("ticker", c.Ticker).Err(err).Msg("skipping company in report")
			continue
		}
		section.Metrics = bundle

		if m, err := s.calc.ProjectMetrics(dcf.InputsFromProject(c.Project, gold.Price, rate)); err == nil {
			section.Valuation = &m
		}
		if ret, err := s.benchmark.CalculateAdjustedReturn(c, rate, nil); err == nil {
			section.Return = &ret
		}
		in.Companies = append(in.Companies, section)
	}
	return in, nil
}

// resolve loads the requested company and the current gold snapshot.
func (s *Server) resolve(r *http.Request) (models.Company, marketdata.GoldPrice, error) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	if ticker == "" {
		return models.Company{}, marketdata.GoldPrice{}, fmt.Errorf("missing ticker")
	}
	c, err := s.companies.Company(r.Context(), ticker)
	if err != nil {
		return models.Company{}, marketdata.GoldPrice{}, err
	}
	return c, s.gold.GetGoldPrice(r.Context(), s.cfg.Assumptions.FallbackGoldPrice), nil
}

// persist saves a valuation snapshot when a repository is configured.
func (s *Server) persist(r *http.Request, ticker string, goldPrice float64, snapshot interface{}) {
	if s.snapshots == nil {
		return
	}
	runID, err := s.snapshots.Save(r.Context(), ticker, goldPrice, snapshot)
	if err != nil {
		s.log.Warn().Str("ticker", ticker).Err(err).Msg("snapshot not persisted")
		return
	}
	s.log.Debug().Str("ticker", ticker).Str("run_id", runID.String()).Msg("snapshot persisted")
}

func queryFloat(r *http.Request, name string, def float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}
