package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldval/pkg/config"
	"goldval/pkg/core/dcf"
	"goldval/pkg/logging"
	"goldval/pkg/models"
)

func TestMain(m *testing.M) {
	logging.Initialize("error")
	m.Run()
}

func devInputs() dcf.ProjectInputs {
	return dcf.ProjectInputs{
		GoldPrice:          2100,
		AnnualProductionOz: 150_000,
		AISCPerOz:          1100,
		DiscountRate:       0.08,
		InitialCapex:       400e6,
		StartYear:          2029,
		MineLifeYears:      17,
	}
}

func defaultSet() ScenarioSet {
	return SetFromConfig(map[string]config.ScenarioDef{
		"bear":       {Price: 1800, Probability: 0.20, Label: "Bear"},
		"base":       {Price: 2100, Probability: 0.50, Label: "Base"},
		"bull":       {Price: 2500, Probability: 0.25, Label: "Bull"},
		"super_bull": {Price: 3000, Probability: 0.05, Label: "Super Bull"},
	})
}

func TestSetFromConfigOrdering(t *testing.T) {
	set := defaultSet()
	require.Len(t, set, 4)
	assert.Equal(t, "bear", set[0].Name)
	assert.Equal(t, "super_bull", set[3].Name)
}

func TestNormalizedRescalesProbabilities(t *testing.T) {
	set := ScenarioSet{
		{Name: "a", Price: 1800, Probability: 0.4},
		{Name: "b", Price: 2200, Probability: 0.4},
	}
	norm, err := set.Normalized(logging.ForComponent("test"))
	require.NoError(t, err)

	var sum float64
	for _, sc := range norm {
		sum += sc.Probability
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 0.5, norm[0].Probability, 1e-12)
}

func TestNormalizedRejectsZeroMass(t *testing.T) {
	set := ScenarioSet{{Name: "a", Price: 2000, Probability: 0}}
	_, err := set.Normalized(logging.ForComponent("test"))
	require.Error(t, err)
}

func TestCalculateExpectedNPV(t *testing.T) {
	calc := dcf.NewCalculator(0.25, 2025)
	a := NewAnalyzer(calc, 0.5)

	res, err := a.CalculateExpectedNPV(devInputs(), defaultSet())
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 4)

	// Expectation must equal the weighted sum of scenario NPVs exactly.
	var manual float64
	for _, out := range res.Outcomes {
		manual += out.NPV * out.Probability
	}
	assert.InDelta(t, manual, res.ExpectedNPV, 1)

	// Population variance, no Bessel correction.
	var variance float64
	for _, out := range res.Outcomes {
		d := out.NPV - res.ExpectedNPV
		variance += out.Probability * d * d
	}
	assert.InDelta(t, variance, res.Variance, variance*1e-9)

	assert.Greater(t, res.StdDev, 0.0)
	assert.InDelta(t, res.StdDev/res.ExpectedNPV, float64(res.CoefficientOfVariation), 1e-9)
	assert.InDelta(t, res.ExpectedNPV-0.5*res.StdDev, res.RiskAdjustedValue, 1)
	assert.Less(t, res.RiskAdjustedValue, res.ExpectedNPV)

	// Best and worst outcomes track the price ordering of the set.
	assert.InDelta(t, res.Outcomes[3].NPVMillions, res.MaxNPVMillions, 1e-6)
	assert.InDelta(t, res.Outcomes[0].NPVMillions, res.MinNPVMillions, 1e-6)
	assert.Greater(t, res.UpsideVsExpected, 0.0)
	assert.Less(t, res.DownsideVsExpected, 0.0)
}

func TestCompareProjectsRanksAndIsolatesFailures(t *testing.T) {
	a := NewAnalyzer(dcf.NewCalculator(0.25, 2025), 0.5)

	good := models.ProjectParameters{
		Name:               "Big",
		AnnualProductionOz: 200_000,
		AISCPerOz:          1000,
		InitialCapex:       400e6,
		StartYear:          2029,
		MineLifeYears:      15,
	}
	small := good
	small.Name = "Small"
	small.AnnualProductionOz = 80_000
	broken := good
	broken.Name = "Broken"
	broken.AnnualProductionOz = 0

	rankings, failures := a.CompareProjects(
		[]models.ProjectParameters{small, broken, good}, 0.08, defaultSet())

	require.Len(t, rankings, 2)
	require.Len(t, failures, 1)
	assert.Equal(t, "Big", rankings[0].Name)
	assert.Equal(t, "Broken", failures[0].Ticker)
}
