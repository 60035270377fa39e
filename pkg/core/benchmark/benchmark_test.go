package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldval/pkg/config"
	"goldval/pkg/core/dcf"
	"goldval/pkg/core/scenario"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

func TestMain(m *testing.M) {
	logging.Initialize("error")
	m.Run()
}

func testBenchmarks() config.BenchmarksConfig {
	var cfg config.BenchmarksConfig
	cfg.SelfStorage.Name = "Self-Storage Development"
	cfg.SelfStorage.Returns.IRR = 0.18
	cfg.ControlFactors.Base = 0.25
	cfg.HurdleRates.MinimumAdjustedReturn = 0.15
	cfg.HurdleRates.MinimumRawReturn = 0.25
	cfg.HurdleRates.MaximumAcceptableRiskScore = 2.0
	cfg.AlternativeBenchmarks = map[string]config.AltBenchmark{
		"gold_etf":    {Name: "Gold ETF", ExpectedReturn: 0.08, Volatility: 0.15},
		"gold_miners": {Name: "Major Miners", ExpectedReturn: 0.12, Volatility: 0.30},
	}
	return cfg
}

func testCalculator() *Calculator {
	calc := dcf.NewCalculator(0.25, 2025)
	analyzer := scenario.NewAnalyzer(calc, 0.5)
	set := scenario.SetFromConfig(map[string]config.ScenarioDef{
		"bear": {Price: 1800, Probability: 0.20, Label: "Bear"},
		"base": {Price: 2100, Probability: 0.50, Label: "Base"},
		"bull": {Price: 2500, Probability: 0.30, Label: "Bull"},
	})
	return NewCalculator(analyzer, set, testBenchmarks())
}

func developer() models.Company {
	return models.Company{
		Ticker: "DEV",
		Name:   "Developer Gold",
		Project: models.ProjectParameters{
			Name:               "Flagship",
			AnnualProductionOz: 150_000,
			AISCPerOz:          1100,
			InitialCapex:       400e6,
			StartYear:          2029,
			MineLifeYears:      17,
			Stage:              models.StageFS,
		},
		Market:     models.MarketData{MarketCap: 250e6},
		Calculated: models.CalculatedData{YearsToProduction: 4},
	}
}

func TestControlAdjustment(t *testing.T) {
	c := testCalculator()

	adj := c.ControlAdjustment(0.30, 0.25)
	assert.InDelta(t, 0.045, adj.ControlPenalty, 1e-9)
	assert.InDelta(t, 0.255, adj.AdjustedReturn, 1e-9)
	assert.True(t, adj.BeatsBenchmark)

	deep := c.ControlAdjustment(0.02, 0.25)
	assert.False(t, deep.BeatsBenchmark)
}

func TestMiningExpectedReturnAnnualizes(t *testing.T) {
	c := testCalculator()

	r, err := c.MiningExpectedReturn(developer(), 0.08)
	require.NoError(t, err)

	assert.Greater(t, r.ExpectedNPV, 0.0)
	assert.True(t, r.Annualized)
	assert.InDelta(t, r.ExpectedNPV/250e6-1, r.ImpliedUpside, 1e-9)
	// Annualizing over four years compresses a large upside.
	assert.Less(t, r.AnnualizedReturn, r.ImpliedUpside)
	assert.Greater(t, r.AnnualizedReturn, 0.0)
}

func TestMiningExpectedReturnFallback(t *testing.T) {
	c := testCalculator()

	co := developer()
	co.Calculated.YearsToProduction = 0
	r, err := c.MiningExpectedReturn(co, 0.08)
	require.NoError(t, err)

	assert.False(t, r.Annualized)
	assert.InDelta(t, r.ImpliedUpside, r.AnnualizedReturn, 1e-12)
}

func TestMiningExpectedReturnZeroMarketCap(t *testing.T) {
	c := testCalculator()

	co := developer()
	co.Market.MarketCap = 0
	r, err := c.MiningExpectedReturn(co, 0.08)
	require.NoError(t, err)
	assert.Zero(t, r.ImpliedUpside)
	assert.Zero(t, r.AnnualizedReturn)
}

func TestCalculateAdjustedReturnHurdleGate(t *testing.T) {
	c := testCalculator()

	r, err := c.CalculateAdjustedReturn(developer(), 0.08, nil)
	require.NoError(t, err)

	// Both thresholds must pass, not either.
	wantGate := r.Adjustment.AdjustedReturn >= 0.15 && r.Mining.AnnualizedReturn >= 0.25
	assert.Equal(t, wantGate, r.MeetsHurdle)
	assert.InDelta(t, 0.25*0.18, r.Adjustment.ControlPenalty, 1e-9)
}

func TestControlFactorPrecedence(t *testing.T) {
	c := testCalculator()

	co := developer()
	co.ControlFactor = 0.40
	r, err := c.CalculateAdjustedReturn(co, 0.08, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.40, r.Adjustment.ControlFactor, 1e-9)

	override := 0.10
	r, err = c.CalculateAdjustedReturn(co, 0.08, &override)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, r.Adjustment.ControlFactor, 1e-9)
}

func TestCompareCompanies(t *testing.T) {
	c := testCalculator()

	cheap := developer()
	rich := developer()
	rich.Ticker = "RICH"
	rich.Market.MarketCap = 5e9
	broken := developer()
	broken.Ticker = "BROKEN"
	broken.Project.AnnualProductionOz = 0

	results, failures := c.CompareCompanies([]models.Company{rich, cheap, broken}, 0.08)
	require.Len(t, results, 2)
	require.Len(t, failures, 1)
	assert.Equal(t, "DEV", results[0].Ticker)
	assert.Equal(t, "BROKEN", failures[0].Ticker)
}

func TestCompareToAlternatives(t *testing.T) {
	c := testCalculator()

	alts := c.CompareToAlternatives(0.20)
	require.Len(t, alts.Comparisons, 2)
	assert.True(t, alts.BeatsAll)
	assert.Equal(t, "gold_miners", alts.BestAlternative)

	alts = c.CompareToAlternatives(0.10)
	assert.False(t, alts.BeatsAll)
	assert.True(t, alts.Comparisons["gold_etf"].BeatsBenchmark)
	assert.False(t, alts.Comparisons["gold_miners"].BeatsBenchmark)
}

func TestCompareToAlternativesAllNonPositive(t *testing.T) {
	cfg := testBenchmarks()
	cfg.AlternativeBenchmarks = map[string]config.AltBenchmark{
		"cash_drag": {Name: "Cash Drag", ExpectedReturn: -0.02},
		"flat_fund": {Name: "Flat Fund", ExpectedReturn: 0},
	}
	calc := dcf.NewCalculator(0.25, 2025)
	analyzer := scenario.NewAnalyzer(calc, 0.5)
	c := NewCalculator(analyzer, nil, cfg)

	// The least bad alternative still wins the slot.
	alts := c.CompareToAlternatives(0.20)
	assert.Equal(t, "flat_fund", alts.BestAlternative)
}
