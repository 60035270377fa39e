// Package benchmark compares mining's implied annualized return against a
// control-investment benchmark, applying an illiquidity/control penalty and
// a two-threshold hurdle gate.
package benchmark

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"goldval/pkg/config"
	"goldval/pkg/core/dcf"
	"goldval/pkg/core/scenario"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

// MiningReturn is the market-implied return of one mining equity.
type MiningReturn struct {
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	ExpectedNPV       float64 `json:"expected_npv"`
	MarketCap         float64 `json:"market_cap"`
	ImpliedUpside     float64 `json:"implied_upside"`
	AnnualizedReturn  float64 `json:"annualized_return"`
	Annualized        bool    `json:"annualized"` // false when the unannualized fallback applied
	YearsToProduction int     `json:"years_to_production"`
	Project           string  `json:"project"`
	Stage             string  `json:"stage"`
}

// Adjustment is the control penalty applied to a mining return.
type Adjustment struct {
	MiningReturn   float64 `json:"mining_return"`
	BenchmarkIRR   float64 `json:"benchmark_irr"`
	ControlFactor  float64 `json:"control_factor"`
	ControlPenalty float64 `json:"control_penalty"`
	AdjustedReturn float64 `json:"adjusted_return"`
	BeatsBenchmark bool    `json:"beats_benchmark"`
}

// AdjustedReturn is the full decision record for one company.
type AdjustedReturn struct {
	Ticker                string       `json:"ticker"`
	Name                  string       `json:"name"`
	Mining                MiningReturn `json:"mining"`
	Adjustment            Adjustment   `json:"adjustment"`
	MeetsHurdle           bool         `json:"meets_hurdle"`
	MinimumAdjustedHurdle float64      `json:"minimum_adjusted_hurdle"`
	MinimumRawHurdle      float64      `json:"minimum_raw_hurdle"`
}

// AlternativeComparison is one alternative benchmark next to the mining
// return.
type AlternativeComparison struct {
	Name           string  `json:"name"`
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	MiningExcess   float64 `json:"mining_excess"`
	BeatsBenchmark bool    `json:"beats_benchmark"`
}

// Alternatives is the comparison across every configured alternative.
type Alternatives struct {
	MiningReturn    float64                          `json:"mining_return"`
	Comparisons     map[string]AlternativeComparison `json:"comparisons"`
	BeatsAll        bool                             `json:"beats_all"`
	BestAlternative string                           `json:"best_alternative"`
}

// Calculator prices companies under the scenario distribution and benchmarks
// the implied return against the configured control investment.
type Calculator struct {
	analyzer *scenario.Analyzer
	set      scenario.ScenarioSet
	cfg      config.BenchmarksConfig
	log      zerolog.Logger
}

// NewCalculator wires the scenario analyzer and benchmark configuration.
func NewCalculator(analyzer *scenario.Analyzer, set scenario.ScenarioSet, cfg config.BenchmarksConfig) *Calculator {
	return &Calculator{
		analyzer: analyzer,
		set:      set,
		cfg:      cfg,
		log:      logging.ForComponent("benchmark"),
	}
}

// MiningExpectedReturn derives the market-implied return: expected NPV over
// market cap, annualized across years to production. When annualizing is
// impossible the raw upside passes through unannualized.
func (c *Calculator) MiningExpectedReturn(co models.Company, discountRate float64) (MiningReturn, error) {
	res, err := c.analyzer.CalculateExpectedNPV(
		dcf.InputsFromProject(co.Project, 0, discountRate), c.set)
	if err != nil {
		return MiningReturn{}, err
	}

	out := MiningReturn{
		Ticker:            co.Ticker,
		Name:              co.Name,
		ExpectedNPV:       res.ExpectedNPV,
		MarketCap:         co.Market.MarketCap,
		YearsToProduction: co.Calculated.YearsToProduction,
		Project:           co.Project.Name,
		Stage:             string(co.Project.Stage),
	}
	if co.Market.MarketCap <= 0 {
		return out, nil
	}

	out.ImpliedUpside = res.ExpectedNPV/co.Market.MarketCap - 1
	if out.YearsToProduction > 0 && out.ImpliedUpside > -1 {
		out.AnnualizedReturn = math.Pow(1+out.ImpliedUpside, 1/float64(out.YearsToProduction)) - 1
		out.Annualized = true
	} else {
		out.AnnualizedReturn = out.ImpliedUpside
	}
	return out, nil
}

// ControlAdjustment applies the control penalty, control factor times the
// benchmark IRR, to a mining return.
func (c *Calculator) ControlAdjustment(miningReturn, controlFactor float64) Adjustment {
	penalty := controlFactor * c.cfg.SelfStorage.Returns.IRR
	adjusted := miningReturn - penalty
	return Adjustment{
		MiningReturn:   miningReturn,
		BenchmarkIRR:   c.cfg.SelfStorage.Returns.IRR,
		ControlFactor:  controlFactor,
		ControlPenalty: penalty,
		AdjustedReturn: adjusted,
		BeatsBenchmark: adjusted > 0,
	}
}

// CalculateAdjustedReturn builds the full decision record. The control
// factor comes from the override when given, else the company, else the
// configured base.
func (c *Calculator) CalculateAdjustedReturn(co models.Company, discountRate float64, controlFactor *float64) (AdjustedReturn, error) {
	mining, err := c.MiningExpectedReturn(co, discountRate)
	if err != nil {
		return AdjustedReturn{}, err
	}

	factor := c.cfg.ControlFactors.Base
	if co.ControlFactor > 0 {
		factor = co.ControlFactor
	}
	if controlFactor != nil {
		factor = *controlFactor
	}

	adj := c.ControlAdjustment(mining.AnnualizedReturn, factor)
	hurdles := c.cfg.HurdleRates
	out := AdjustedReturn{
		Ticker:                co.Ticker,
		Name:                  co.Name,
		Mining:                mining,
		Adjustment:            adj,
		MinimumAdjustedHurdle: hurdles.MinimumAdjustedReturn,
		MinimumRawHurdle:      hurdles.MinimumRawReturn,
		MeetsHurdle: adj.AdjustedReturn >= hurdles.MinimumAdjustedReturn &&
			mining.AnnualizedReturn >= hurdles.MinimumRawReturn,
	}
	c.log.Info().
		Str("ticker", co.Ticker).
		Float64("adjusted_return", adj.AdjustedReturn).
		Bool("meets_hurdle", out.MeetsHurdle).
		Msg("adjusted return calculated")
	return out, nil
}

// CompareCompanies ranks companies by adjusted return, best first, with
// per-ticker failures surfaced as records.
func (c *Calculator) CompareCompanies(companies []models.Company, discountRate float64) ([]AdjustedReturn, []models.TickerError) {
	results := make([]AdjustedReturn, 0, len(companies))
	var failures []models.TickerError
	for _, co := range companies {
		r, err := c.CalculateAdjustedReturn(co, discountRate, nil)
		if err != nil {
			failures = append(failures, models.TickerError{Ticker: co.Ticker, Err: err.Error()})
			continue
		}
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Adjustment.AdjustedReturn > results[j].Adjustment.AdjustedReturn
	})
	return results, failures
}

// CompareToAlternatives holds the mining return against every configured
// alternative benchmark.
func (c *Calculator) CompareToAlternatives(miningReturn float64) Alternatives {
	out := Alternatives{
		MiningReturn: miningReturn,
		Comparisons:  make(map[string]AlternativeComparison, len(c.cfg.AlternativeBenchmarks)),
		BeatsAll:     true,
	}
	names := make([]string, 0, len(c.cfg.AlternativeBenchmarks))
	for name := range c.cfg.AlternativeBenchmarks {
		names = append(names, name)
	}
	sort.Strings(names)

	bestReturn := math.Inf(-1)
	for _, name := range names {
		alt := c.cfg.AlternativeBenchmarks[name]
		cmp := AlternativeComparison{
			Name:           alt.Name,
			ExpectedReturn: alt.ExpectedReturn,
			Volatility:     alt.Volatility,
			MiningExcess:   miningReturn - alt.ExpectedReturn,
			BeatsBenchmark: miningReturn > alt.ExpectedReturn,
		}
		out.Comparisons[name] = cmp
		if !cmp.BeatsBenchmark {
			out.BeatsAll = false
		}
		if alt.ExpectedReturn > bestReturn {
			bestReturn = alt.ExpectedReturn
			out.BestAlternative = name
		}
	}
	return out
}
