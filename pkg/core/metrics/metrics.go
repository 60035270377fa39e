// Package metrics assembles the per-company metric bundle the reporting and
// API layers consume, combining cash, capital structure, and dilution
// analyses with the live gold context.
package metrics

import (
	"time"

	"github.com/rs/zerolog"

	"goldval/pkg/core/capital"
	"goldval/pkg/core/dilution"
	"goldval/pkg/core/marketdata"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// MarketMetrics is the market slice of a bundle, millions-denominated where
// named so reports can print it directly.
type MarketMetrics struct {
	CurrentPrice            float64 `json:"current_price"`
	MarketCapMillions       float64 `json:"market_cap_millions"`
	EnterpriseValueMillions float64 `json:"enterprise_value_millions"`
	DailyChangePct          float64 `json:"daily_change_pct"`
	FiftyTwoWeekHigh        float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow         float64 `json:"fifty_two_week_low"`
	From52wHighPct          float64 `json:"from_52w_high_pct"`
}

// CashMetrics is the liquidity slice of a bundle.
type CashMetrics struct {
	TotalCashMillions     float64            `json:"total_cash_millions"`
	NetCashMillions       float64            `json:"net_cash_millions"`
	QuarterlyBurnMillions float64            `json:"quarterly_burn_millions"`
	RunwayMonths          float64            `json:"runway_months"`
	RunwayBand            capital.RunwayBand `json:"runway_band"`
	CashPerShare          float64            `json:"cash_per_share"`
	BurnTrend             string             `json:"burn_trend"`
}

// CapitalMetrics is the share-structure slice of a bundle.
type CapitalMetrics struct {
	SharesOutstandingMillions float64 `json:"shares_outstanding_millions"`
	FloatPct                  float64 `json:"float_pct"`
	TotalDebtMillions         float64 `json:"total_debt_millions"`
	DebtToEquity              float64 `json:"debt_to_equity"`
}

// DilutionMetrics is the condensed dilution slice of a bundle.
type DilutionMetrics struct {
	ExpectedDilutionPct float64         `json:"expected_dilution_pct"`
	ExpectedOwnership   float64         `json:"expected_ownership_post"`
	Informed            bool            `json:"informed"`
	Bands               []dilution.Band `json:"bands"`
}

// ProjectMetrics is the flagship-project slice of a bundle.
type ProjectMetrics struct {
	Name               string  `json:"name"`
	Stage              string  `json:"stage"`
	AnnualProductionOz float64 `json:"annual_production_oz"`
	AISCPerOz          float64 `json:"aisc_per_oz"`
	MarginPerOz        float64 `json:"margin_per_oz"`
	MineLifeYears      int     `json:"mine_life_years"`
	CapexMillions      float64 `json:"capex_millions"`
	StartYear          int     `json:"start_year"`
	YearsToProduction  int     `json:"years_to_production"`
}

// FundingMetrics is the capex-funding slice of a bundle.
type FundingMetrics struct {
	FundingGapMillions float64 `json:"funding_gap_millions"`
	CapexCoveragePct   float64 `json:"capex_coverage_pct"`
}

// GoldContext is the gold price snapshot the bundle was computed against.
type GoldContext struct {
	Price          float64 `json:"price"`
	DailyChangePct float64 `json:"daily_change_pct"`
	Source         string  `json:"source"`
}

// CompanyMetrics is the full bundle for one ticker.
type CompanyMetrics struct {
	Ticker        string          `json:"ticker"`
	Name          string          `json:"name"`
	Market        MarketMetrics   `json:"market"`
	Cash          CashMetrics     `json:"cash"`
	Capital       CapitalMetrics  `json:"capital"`
	Dilution      DilutionMetrics `json:"dilution"`
	Project       ProjectMetrics  `json:"project"`
	Funding       FundingMetrics  `json:"funding"`
	Gold          GoldContext     `json:"gold"`
	ControlFactor float64         `json:"control_factor"`
	AnalysisTime  time.Time       `json:"analysis_time"`
}

// SummaryRow is the compact per-company row used by comparison tables.
type SummaryRow struct {
	Ticker              string  `json:"ticker"`
	Name                string  `json:"name"`
	Price               float64 `json:"price"`
	MarketCapMillions   float64 `json:"market_cap_millions"`
	CashMillions        float64 `json:"cash_millions"`
	RunwayMonths        float64 `json:"runway_months"`
	RunwayRisk          string  `json:"runway_risk"`
	Project             string  `json:"project"`
	Stage               string  `json:"stage"`
	AISCPerOz           float64 `json:"aisc_per_oz"`
	MarginPerOz         float64 `json:"margin_per_oz"`
	StartYear           int     `json:"start_year"`
	ExpectedDilutionPct float64 `json:"expected_dilution_pct"`
	FundingGapMillions  float64 `json:"funding_gap_millions"`
	GoldPrice           float64 `json:"gold_price"`
}

// Calculator composes the component analyzers into one bundle per company.
type Calculator struct {
	capital  *capital.Analyzer
	dilution *dilution.Modeler
	log      zerolog.Logger
}

// NewCalculator builds a metrics calculator from already-configured
// component analyzers.
func NewCalculator(capitalAnalyzer *capital.Analyzer, dilutionModeler *dilution.Modeler) *Calculator {
	return &Calculator{
		capital:  capitalAnalyzer,
		dilution: dilutionModeler,
		log:      logging.ForComponent("metrics"),
	}
}

// AllMetrics assembles the full bundle for one normalized company against
// the given gold snapshot.
func (m *Calculator) AllMetrics(c models.Company, gold marketdata.GoldPrice) (CompanyMetrics, error) {
	cashAnalysis := m.capital.AnalyzeCashPosition(c.Cash, c.Project.InitialCapex)
	structure := m.capital.AnalyzeStructure(c.Market, c.Cash)
	dilutionAnalysis, err := m.dilution.ModelScenarios(c)
	if err != nil {
		return CompanyMetrics{}, err
	}

	bands := make([]dilution.Band, 0, len(dilutionAnalysis.Scenarios))
	for _, sc := range dilutionAnalysis.Scenarios {
		bands = append(bands, sc.Band)
	}

	out := CompanyMetrics{
		Ticker: c.Ticker,
		Name:   c.Name,
		Market: MarketMetrics{
			CurrentPrice:            c.Market.CurrentPrice,
			MarketCapMillions:       c.Market.MarketCap / 1e6,
			EnterpriseValueMillions: structure.EnterpriseValue / 1e6,
			DailyChangePct:          c.Market.DailyChangePct,
			FiftyTwoWeekHigh:        c.Market.FiftyTwoWeekHigh,
			FiftyTwoWeekLow:         c.Market.FiftyTwoWeekLow,
			From52wHighPct:          fromHigh(c.Market.CurrentPrice, c.Market.FiftyTwoWeekHigh),
		},
		Cash: CashMetrics{
			TotalCashMillions:     c.Cash.TotalCash / 1e6,
			NetCashMillions:       structure.NetCash / 1e6,
			QuarterlyBurnMillions: c.Cash.QuarterlyBurn / 1e6,
			RunwayMonths:          cashAnalysis.RunwayMonths,
			RunwayBand:            cashAnalysis.Band,
			BurnTrend:             cashAnalysis.BurnTrend,
		},
		Capital: CapitalMetrics{
			SharesOutstandingMillions: c.Market.SharesOutstanding / 1e6,
			TotalDebtMillions:         c.Cash.TotalDebt / 1e6,
			DebtToEquity:              structure.DebtToEquity,
		},
		Dilution: DilutionMetrics{
			ExpectedDilutionPct: dilutionAnalysis.ExpectedDilutionPct,
			ExpectedOwnership:   dilutionAnalysis.ExpectedOwnership,
			Informed:            dilutionAnalysis.Informed,
			Bands:               bands,
		},
		Project: ProjectMetrics{
			Name:               c.Project.Name,
			Stage:              string(c.Project.Stage),
			AnnualProductionOz: c.Project.AnnualProductionOz,
			AISCPerOz:          c.Project.AISCPerOz,
			MarginPerOz:        gold.Price - c.Project.AISCPerOz,
			MineLifeYears:      c.Project.MineLifeYears,
			CapexMillions:      c.Project.InitialCapex / 1e6,
			StartYear:          c.Project.StartYear,
			YearsToProduction:  c.Calculated.YearsToProduction,
		},
		Funding: FundingMetrics{
			FundingGapMillions: c.Calculated.FundingGap / 1e6,
		},
		Gold: GoldContext{
			Price:          gold.Price,
			DailyChangePct: gold.DailyChangePct,
			Source:         gold.Source,
		},
		ControlFactor: c.ControlFactor,
		AnalysisTime:  time.Now().UTC(),
	}

	if c.Market.SharesOutstanding > 0 {
		out.Cash.CashPerShare = c.Cash.TotalCash / c.Market.SharesOutstanding
		out.Capital.FloatPct = c.Market.FloatShares / c.Market.SharesOutstanding * 100
	}
	if c.Project.InitialCapex > 0 {
		out.Funding.CapexCoveragePct = c.Cash.TotalCash / c.Project.InitialCapex * 100
	}

	m.log.Debug().Str("ticker", c.Ticker).Msg("metric bundle assembled")
	return out, nil
}

// Summary condenses a full bundle into a comparison-table row.
func Summary(full CompanyMetrics) SummaryRow {
	return SummaryRow{
		Ticker:              full.Ticker,
		Name:                full.Name,
		Price:               full.Market.CurrentPrice,
		MarketCapMillions:   full.Market.MarketCapMillions,
		CashMillions:        full.Cash.TotalCashMillions,
		RunwayMonths:        full.Cash.RunwayMonths,
		RunwayRisk:          full.Cash.RunwayBand.Level,
		Project:             full.Project.Name,
		Stage:               full.Project.Stage,
		AISCPerOz:           full.Project.AISCPerOz,
		MarginPerOz:         full.Project.MarginPerOz,
		StartYear:           full.Project.StartYear,
		ExpectedDilutionPct: full.Dilution.ExpectedDilutionPct,
		FundingGapMillions:  full.Funding.FundingGapMillions,
		GoldPrice:           full.Gold.Price,
	}
}

// Compare assembles summary rows for a set of companies, collecting
// per-ticker failures instead of aborting.
func (m *Calculator) Compare(companies []models.Company, gold marketdata.GoldPrice) ([]SummaryRow, []models.TickerError) {
	rows := make([]SummaryRow, 0, len(companies))
	var failures []models.TickerError
	for _, c := range companies {
		full, err := m.AllMetrics(c, gold)
		if err != nil {
			failures = append(failures, models.TickerError{Ticker: c.Ticker, Err: err.Error()})
			continue
		}
		rows = append(rows, Summary(full))
	}
	return rows, failures
}

func fromHigh(current, high float64) float64 {
	if high <= 0 {
		return 0
	}
	return (current - high) / high * 100
}
