package dilution

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldval/pkg/logging"
	"goldval/pkg/models"
)

func TestMain(m *testing.M) {
	logging.Initialize("error")
	m.Run()
}

func sampleCompany() models.Company {
	return models.Company{
		Ticker: "JRG",
		Name:   "Junior Gold Corp",
		Market: models.MarketData{
			CurrentPrice:      1.50,
			MarketCap:         150e6,
			SharesOutstanding: 100e6,
		},
		Calculated: models.CalculatedData{FundingGap: 300e6},
	}
}

func TestDefaultBandsProbabilityMass(t *testing.T) {
	var sum float64
	for _, b := range DefaultBands() {
		sum += b.Probability
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestInformedBandsProbabilityMass(t *testing.T) {
	for _, tc := range []struct{ gap, backstop float64 }{
		{0, 0}, {100e6, 150e6}, {100e6, 60e6}, {100e6, 10e6},
	} {
		var sum float64
		for _, b := range InformedBands(tc.gap, tc.backstop) {
			sum += b.Probability
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "gap %v backstop %v", tc.gap, tc.backstop)
	}
}

func TestInformedBandsShiftWithCoverage(t *testing.T) {
	covered := InformedBands(100e6, 120e6)
	uncovered := InformedBands(100e6, 10e6)

	// A full backstop makes the debt-funded outcome the most likely one.
	assert.Greater(t, covered[0].Probability, uncovered[0].Probability)
	assert.Less(t, covered[2].Probability, uncovered[2].Probability)
}

func TestModelScenariosDefaultPath(t *testing.T) {
	m := NewModeler()
	a, err := m.ModelScenarios(sampleCompany())
	require.NoError(t, err)

	assert.False(t, a.Informed)
	require.Len(t, a.Scenarios, 4)

	base := a.Scenarios[1] // 30% band
	assert.InDelta(t, 30e6, base.NewShares, 1)
	assert.InDelta(t, 130e6, base.PostShares, 1)
	assert.InDelta(t, 100.0/130.0*100, base.OwnershipPost, 1e-6)
	assert.InDelta(t, 30e6*1.50, base.ImpliedRaised, 1)

	// post_shares = current x (1 + pct/100) exactly, for every band
	for _, sc := range a.Scenarios {
		assert.InDelta(t, 100e6*(1+sc.DilutionPct/100), sc.PostShares, 1e-6)
	}

	// Expected post shares lie inside the scenario envelope.
	min, max := a.Scenarios[0].PostShares, a.Scenarios[0].PostShares
	for _, sc := range a.Scenarios {
		if sc.PostShares < min {
			min = sc.PostShares
		}
		if sc.PostShares > max {
			max = sc.PostShares
		}
	}
	assert.GreaterOrEqual(t, a.ExpectedPostShares, min)
	assert.LessOrEqual(t, a.ExpectedPostShares, max)

	// 10x0.20 + 30x0.50 + 60x0.25 + 100x0.05
	assert.InDelta(t, 37, a.ExpectedDilutionPct, 1e-9)
}

func TestModelScenariosInformedPath(t *testing.T) {
	m := NewModeler()
	c := sampleCompany()
	c.KnownRaises = []models.KnownRaise{
		{Type: "equity", Proceeds: 50e6, Status: "completed"},
		{Type: "equity", Proceeds: 25e6, Status: "announced"}, // not yet in hand
	}
	c.Financing = []models.StrategicFinancing{
		{Partner: "StreamCo", CommittedAmount: 260e6, Kind: "stream"},
	}

	a, err := m.ModelScenarios(c)
	require.NoError(t, err)
	assert.True(t, a.Informed)
	assert.InDelta(t, 50e6, a.CompletedProceeds, 1)
	assert.InDelta(t, 250e6, a.RemainingFundingGap, 1)
	assert.Equal(t, "Debt-Funded Build", a.Scenarios[0].Name)
	// Backstop covers the remaining gap, debt outcome dominates.
	assert.InDelta(t, 0.45, a.Scenarios[0].Probability, 1e-9)
}

func TestModelScenariosZeroFundingGapSurvivesJSON(t *testing.T) {
	m := NewModeler()
	c := sampleCompany()
	c.Calculated.FundingGap = 0 // fully funded, coverage undefined

	a, err := m.ModelScenarios(c)
	require.NoError(t, err)
	for _, sc := range a.Scenarios {
		assert.True(t, math.IsInf(float64(sc.FundingGapCoverage), 1))
	}

	body, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"funding_gap_coverage":null`)

	var back Analysis
	require.NoError(t, json.Unmarshal(body, &back))
	assert.True(t, math.IsInf(float64(back.Scenarios[0].FundingGapCoverage), 1))
}

func TestModelScenariosRejectsZeroShares(t *testing.T) {
	m := NewModeler()
	c := sampleCompany()
	c.Market.SharesOutstanding = 0
	_, err := m.ModelScenarios(c)
	require.Error(t, err)
}

func TestNPVAdjustedForDilution(t *testing.T) {
	m := NewModeler()
	adj, err := m.NPVAdjustedForDilution(sampleCompany(), 500e6)
	require.NoError(t, err)

	assert.InDelta(t, 5.00, adj.BaseNPVPerShare, 1e-9)
	require.Len(t, adj.Scenarios, 4)

	// Dilution only ever lowers per-share value.
	for _, sc := range adj.Scenarios {
		assert.Less(t, sc.NPVPerShare, adj.BaseNPVPerShare)
		assert.Negative(t, sc.VsBasePct)
	}
	assert.Less(t, adj.ExpectedNPVPerShare, adj.BaseNPVPerShare)
	assert.Negative(t, adj.ExpectedVsBasePct)
}

func TestCompareCompaniesPartialFailure(t *testing.T) {
	m := NewModeler()
	good := sampleCompany()
	bad := sampleCompany()
	bad.Ticker = "BAD"
	bad.Market.SharesOutstanding = 0

	analyses, failures := m.CompareCompanies([]models.Company{good, bad})
	require.Len(t, analyses, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, "BAD", failures[0].Ticker)
}
