package capital

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldval/pkg/config"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

func TestMain(m *testing.M) {
	logging.Initialize("error")
	m.Run()
}

func defaultBands() config.BandThresholds {
	return config.BandThresholds{Critical: 6, High: 12, Moderate: 18, Low: 24}
}

func TestRunwayMonths(t *testing.T) {
	a := NewAnalyzer(defaultBands())

	assert.InDelta(t, 15, a.RunwayMonths(50e6, 10e6), 1e-9)
	assert.Zero(t, a.RunwayMonths(50e6, 0))
	assert.Zero(t, a.RunwayMonths(50e6, -2e6))
}

func TestBandForRunway(t *testing.T) {
	a := NewAnalyzer(defaultBands())

	cases := []struct {
		runway float64
		level  string
		score  int
	}{
		{5, "critical", 1},
		{6, "high", 2},
		{11.9, "high", 2},
		{15, "moderate", 3},
		{20, "low", 4},
		{24, "minimal", 5},
		{60, "minimal", 5},
	}
	for _, tc := range cases {
		band := a.BandForRunway(tc.runway)
		assert.Equal(t, tc.level, band.Level, "runway %v", tc.runway)
		assert.Equal(t, tc.score, band.Score, "runway %v", tc.runway)
	}
}

func TestBurnTrend(t *testing.T) {
	a := NewAnalyzer(defaultBands())

	// Most recent first: cash has been falling quarter over quarter.
	assert.Equal(t, "decreasing", a.BurnTrend([]float64{40e6, 50e6, 60e6}))
	// A big raise mid-series dominates the average.
	assert.Equal(t, "increasing", a.BurnTrend([]float64{90e6, 50e6, 60e6}))
	assert.Equal(t, "stable", a.BurnTrend([]float64{50e6, 50e6}))
	assert.Equal(t, "stable", a.BurnTrend([]float64{50e6}))
	assert.Equal(t, "stable", a.BurnTrend(nil))
}

func TestAnalyzeCashPosition(t *testing.T) {
	a := NewAnalyzer(defaultBands())

	cash := models.CashData{
		TotalCash:      60e6,
		QuarterlyBurn:  9e6,
		HistoricalCash: []float64{60e6, 69e6, 78e6},
	}
	res := a.AnalyzeCashPosition(cash, 400e6)

	assert.InDelta(t, 20, res.RunwayMonths, 1e-9)
	assert.Equal(t, "low", res.Band.Level)
	assert.Equal(t, 4, res.Band.Score)
	assert.Equal(t, "decreasing", res.BurnTrend)
	assert.InDelta(t, 340e6, res.FundingGap, 1)
}

func TestFundingGapFloorsAtZero(t *testing.T) {
	a := NewAnalyzer(defaultBands())
	res := a.AnalyzeCashPosition(models.CashData{TotalCash: 500e6}, 400e6)
	assert.Zero(t, res.FundingGap)
}

func TestAnalyzeStructure(t *testing.T) {
	a := NewAnalyzer(defaultBands())

	s := a.AnalyzeStructure(
		models.MarketData{MarketCap: 200e6},
		models.CashData{TotalCash: 50e6, TotalDebt: 30e6},
	)
	assert.InDelta(t, 20e6, s.NetCash, 1)
	assert.InDelta(t, 180e6, s.EnterpriseValue, 1)
	assert.InDelta(t, 0.15, s.DebtToEquity, 1e-9)
	assert.InDelta(t, 25, s.CashPctOfCap, 1e-9)
}

func TestModelOffering(t *testing.T) {
	a := NewAnalyzer(defaultBands())

	impact, err := a.ModelOffering(50e6, 100e6, 1.00, 20)
	require.NoError(t, err)
	assert.InDelta(t, 0.80, impact.IssuePrice, 1e-9)
	assert.InDelta(t, 62.5e6, impact.NewShares, 1)
	assert.InDelta(t, 162.5e6, impact.PostShares, 1)
	assert.InDelta(t, 62.5, impact.DilutionPct, 1e-6)
	assert.InDelta(t, 100.0/162.5*100, impact.OwnershipPost, 1e-6)

	impact, err = a.ModelOffering(50e6, 100e6, 1.00, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.90, impact.IssuePrice, 1e-9)
}

func TestModelOfferingInvalidInputs(t *testing.T) {
	a := NewAnalyzer(defaultBands())

	_, err := a.ModelOffering(50e6, 0, 1.00, 20)
	require.Error(t, err)

	_, err = a.ModelOffering(50e6, 100e6, 1.00, 100)
	require.Error(t, err)
}
